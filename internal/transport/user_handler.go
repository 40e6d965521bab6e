package transport

import (
	"net/http"

	"supplier-catalog/internal/domain"
	"supplier-catalog/internal/logger"
	"supplier-catalog/internal/middleware"
	"supplier-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Company   string `json:"company" validate:"max=50"`
	Position  string `json:"position" validate:"max=50"`
	Type      string `json:"type" validate:"required,oneof=seller buyer"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ContactRequest represents a new delivery contact
type ContactRequest struct {
	LastName  string `json:"last_name" validate:"max=50"`
	FirstName string `json:"first_name" validate:"required,max=50"`
	Surname   string `json:"surname" validate:"max=50"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"required,max=20"`
	City      string `json:"city" validate:"required,max=50"`
	Street    string `json:"street" validate:"required,max=100"`
	Building  string `json:"building" validate:"max=15"`
	Housing   string `json:"housing" validate:"max=15"`
	Structure string `json:"structure" validate:"max=15"`
	Apartment string `json:"apartment" validate:"max=15"`
}

// UserProfile represents user profile data
type UserProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company"`
	Position  string `json:"position"`
	Type      string `json:"type"`
}

func profileOf(user *domain.User) UserProfile {
	return UserProfile{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Company:   user.Company,
		Position:  user.Position,
		Type:      string(user.Type),
	}
}

// UserHandler handles account, session and contact requests
type UserHandler struct {
	userService    service.UserService
	contactService service.ContactService
	logger         *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, contactService service.ContactService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService:    userService,
		contactService: contactService,
		logger:         logger,
	}
}

// RegisterRoutes registers all user routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/v1/user", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", h.Logout)
			r.Get("/profile", h.GetProfile)
			r.Get("/contact", h.ListContacts)
			r.Post("/contact", h.CreateContact)
			r.Delete("/contact/{id}", h.DeleteContact)
		})
	})
}

// Register handles user registration
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)

	var req RegisterRequest
	if !decodeRequest(w, r, log, &req) {
		return
	}

	user, key, err := h.userService.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Company:   req.Company,
		Position:  req.Position,
		Type:      domain.UserType(req.Type),
	})
	if err != nil {
		respondServiceError(w, log, err, "registration")
		return
	}

	log.Info("User registered successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithOK(w, http.StatusCreated, map[string]interface{}{
		"token": key,
		"user":  profileOf(user),
	})
}

// Login handles user authentication
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)

	var req LoginRequest
	if !decodeRequest(w, r, log, &req) {
		return
	}

	key, user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, log, err, "login")
		return
	}

	log.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithOK(w, http.StatusOK, map[string]interface{}{"token": key})
}

// Logout revokes the token the request was authenticated with
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)

	key, _ := middleware.TokenKeyFromContext(r.Context())
	if err := h.userService.Logout(r.Context(), key); err != nil {
		respondServiceError(w, log, err, "logout")
		return
	}

	middleware.RespondWithOK(w, http.StatusOK, nil)
}

// GetProfile returns the authenticated user
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.UserFromContext(r.Context())
	middleware.RespondWithOK(w, http.StatusOK, map[string]interface{}{"user": profileOf(user)})
}

func (h *UserHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)
	user, _ := middleware.UserFromContext(r.Context())

	contacts, err := h.contactService.List(r.Context(), user.ID)
	if err != nil {
		respondServiceError(w, log, err, "list contacts")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, contacts)
}

func (h *UserHandler) CreateContact(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)
	user, _ := middleware.UserFromContext(r.Context())

	var req ContactRequest
	if !decodeRequest(w, r, log, &req) {
		return
	}

	contact, err := h.contactService.Create(r.Context(), user.ID, service.ContactInput(req))
	if err != nil {
		respondServiceError(w, log, err, "create contact")
		return
	}

	middleware.RespondWithOK(w, http.StatusCreated, map[string]interface{}{"contact": contact})
}

func (h *UserHandler) DeleteContact(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), h.logger)
	user, _ := middleware.UserFromContext(r.Context())

	contactID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, service.ErrContactNotFound.Error())
		return
	}

	if err := h.contactService.Delete(r.Context(), user.ID, contactID); err != nil {
		respondServiceError(w, log, err, "delete contact")
		return
	}

	middleware.RespondWithOK(w, http.StatusOK, nil)
}
