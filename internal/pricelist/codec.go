// Package pricelist decodes, validates and downloads seller price lists.
package pricelist

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"supplier-catalog/internal/domain"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmptyDocument    = errors.New("price list document is empty")
	ErrMalformed        = errors.New("price list is malformed")
	ErrInvalidPriceList = errors.New("price list failed validation")
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterStructValidation(recommendedPriceRequired, domain.PriceListGood{})
	return v
}

// recommendedPriceRequired accepts either price_rrc or price_rrp
func recommendedPriceRequired(sl validator.StructLevel) {
	good := sl.Current().Interface().(domain.PriceListGood)
	if good.PriceRRC == nil && good.PriceRRP == nil {
		sl.ReportError(good.PriceRRP, "PriceRRP", "price_rrp", "required", "")
	}
}

// Decode reads a YAML price list. JSON documents decode as well.
func Decode(r io.Reader) (*domain.PriceList, error) {
	var list domain.PriceList
	if err := yaml.NewDecoder(r).Decode(&list); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDocument
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &list, nil
}

// DecodeBytes is Decode over an in-memory document
func DecodeBytes(data []byte) (*domain.PriceList, error) {
	return Decode(bytes.NewReader(data))
}

// Validate checks a decoded price list. Field errors are available through
// errors.As with validator.ValidationErrors.
func Validate(list *domain.PriceList) error {
	if list == nil {
		return ErrEmptyDocument
	}
	if err := validate.Struct(list); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", ErrInvalidPriceList, verrs)
		}
		return fmt.Errorf("failed to validate price list: %w", err)
	}
	return nil
}

// Parse decodes and validates a raw document
func Parse(data []byte) (*domain.PriceList, error) {
	list, err := DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	if err := Validate(list); err != nil {
		return nil, err
	}
	return list, nil
}
