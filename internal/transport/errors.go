package transport

import (
	"errors"
	"net/http"

	"supplier-catalog/internal/middleware"
	"supplier-catalog/internal/pricelist"
	"supplier-catalog/internal/repository"
	"supplier-catalog/internal/service"

	"go.uber.org/zap"
)

// statusFor maps a service error to its HTTP status. The boolean is false for
// errors whose text must not reach the client.
func statusFor(err error) (int, bool) {
	switch {
	case errors.Is(err, service.ErrNotAuthenticated),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized, true
	case errors.Is(err, service.ErrSellerOnly):
		return http.StatusForbidden, true
	case errors.Is(err, pricelist.ErrEmptyDocument),
		errors.Is(err, pricelist.ErrMalformed),
		errors.Is(err, pricelist.ErrInvalidPriceList),
		errors.Is(err, pricelist.ErrInvalidURL),
		errors.Is(err, pricelist.ErrDocumentTooLarge),
		errors.Is(err, service.ErrUnknownCategory),
		errors.Is(err, service.ErrInvalidUserType),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrListingUnavailable):
		return http.StatusBadRequest, true
	case errors.Is(err, pricelist.ErrFetchFailed):
		return http.StatusBadGateway, true
	case errors.Is(err, service.ErrShopConflict),
		errors.Is(err, service.ErrCategoryConflict),
		errors.Is(err, service.ErrConcurrentImport),
		errors.Is(err, repository.ErrUserAlreadyExists):
		return http.StatusConflict, true
	case errors.Is(err, service.ErrShopNotFound),
		errors.Is(err, service.ErrContactNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrListingNotFound):
		return http.StatusNotFound, true
	default:
		return http.StatusInternalServerError, false
	}
}

// respondServiceError writes the failure envelope for err
func respondServiceError(w http.ResponseWriter, log *zap.Logger, err error, action string) {
	status, public := statusFor(err)
	if !public {
		log.Error(action+" failed", zap.Error(err))
		middleware.RespondWithError(w, status, action+" failed")
		return
	}

	log.Debug(action+" rejected", zap.Int("status", status), zap.Error(err))
	if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
		middleware.RespondWithValidationErrors(w, validationErrors)
		return
	}
	middleware.RespondWithError(w, status, err.Error())
}

// decodeRequest decodes and validates a JSON body, writing the failure response itself
func decodeRequest(w http.ResponseWriter, r *http.Request, log *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		log.Debug("Request validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return false
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
