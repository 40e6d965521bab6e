package service

import (
	"context"
	"fmt"
	"time"

	"supplier-catalog/internal/domain"
	"supplier-catalog/internal/repository"

	"github.com/google/uuid"
)

var ErrContactNotFound = repository.ErrContactNotFound

// ContactInput carries the editable fields of a contact
type ContactInput struct {
	LastName  string
	FirstName string
	Surname   string
	Email     string
	Phone     string
	City      string
	Street    string
	Building  string
	Housing   string
	Structure string
	Apartment string
}

// ContactService manages the delivery contacts of a user
type ContactService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Contact, error)
	Create(ctx context.Context, userID uuid.UUID, input ContactInput) (*domain.Contact, error)
	// Delete removes one of the user's contacts. Contacts of other users are
	// reported as ErrContactNotFound.
	Delete(ctx context.Context, userID, contactID uuid.UUID) error
}

type contactService struct {
	contactRepo repository.ContactRepository
}

// NewContactService creates a new instance of ContactService
func NewContactService(contactRepo repository.ContactRepository) ContactService {
	return &contactService{contactRepo: contactRepo}
}

func (s *contactService) List(ctx context.Context, userID uuid.UUID) ([]*domain.Contact, error) {
	contacts, err := s.contactRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}
	return contacts, nil
}

func (s *contactService) Create(ctx context.Context, userID uuid.UUID, input ContactInput) (*domain.Contact, error) {
	contact := &domain.Contact{
		ID:        uuid.New(),
		UserID:    userID,
		LastName:  input.LastName,
		FirstName: input.FirstName,
		Surname:   input.Surname,
		Email:     input.Email,
		Phone:     input.Phone,
		City:      input.City,
		Street:    input.Street,
		Building:  input.Building,
		Housing:   input.Housing,
		Structure: input.Structure,
		Apartment: input.Apartment,
		CreatedAt: time.Now(),
	}

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	return contact, nil
}

func (s *contactService) Delete(ctx context.Context, userID, contactID uuid.UUID) error {
	return s.contactRepo.DeleteForUser(ctx, contactID, userID)
}
