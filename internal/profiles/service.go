package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Identity is the authenticated account a profile belongs to.
type Identity struct {
	UserID uuid.UUID
	Email  string
}

// UpdateInput carries the client-editable profile fields. Email is accepted
// for client compatibility but never stored; it always comes from the identity.
type UpdateInput struct {
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone" validate:"omitempty,min=10,max=32"`
	FirstName *string `json:"firstName" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Address   *string `json:"address" validate:"omitempty,max=255"`
	Apartment *string `json:"apartment" validate:"omitempty,max=100"`
	City      *string `json:"city" validate:"omitempty,max=100"`
	State     *string `json:"state" validate:"omitempty,max=100"`
	ZipCode   *string `json:"zipCode" validate:"omitempty,max=20"`
	Country   *string `json:"country" validate:"omitempty,max=100"`
}

// ProfileDTO is the response shape for /me/profile.
type ProfileDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Phone     *string   `json:"phone"`
	FirstName *string   `json:"firstName"`
	LastName  *string   `json:"lastName"`
	Address   *string   `json:"address"`
	Apartment *string   `json:"apartment"`
	City      *string   `json:"city"`
	State     *string   `json:"state"`
	ZipCode   *string   `json:"zipCode"`
	Country   *string   `json:"country"`
}

type profileRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error)
}

type Service struct {
	repo profileRepository
}

func NewService(repo profileRepository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository required")
	}
	return &Service{repo: repo}, nil
}

func (s *Service) Get(ctx context.Context, identity Identity) (*ProfileDTO, error) {
	if identity.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	profile, err := s.repo.FindByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load profile")
	}
	return toDTO(profile), nil
}

func (s *Service) Upsert(ctx context.Context, identity Identity, input UpdateInput) (*ProfileDTO, error) {
	if identity.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	profile := &models.Profile{
		ID:        identity.UserID,
		Email:     identity.Email,
		Phone:     clean(input.Phone),
		FirstName: clean(input.FirstName),
		LastName:  clean(input.LastName),
		Address:   clean(input.Address),
		Apartment: clean(input.Apartment),
		City:      clean(input.City),
		State:     clean(input.State),
		ZipCode:   clean(input.ZipCode),
		Country:   clean(input.Country),
	}
	saved, err := s.repo.Upsert(ctx, profile)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save profile")
	}
	return toDTO(saved), nil
}

// clean trims the value and maps blanks to NULL.
func clean(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func toDTO(p *models.Profile) *ProfileDTO {
	return &ProfileDTO{
		ID:        p.ID,
		Email:     p.Email,
		Phone:     p.Phone,
		FirstName: p.FirstName,
		LastName:  p.LastName,
		Address:   p.Address,
		Apartment: p.Apartment,
		City:      p.City,
		State:     p.State,
		ZipCode:   p.ZipCode,
		Country:   p.Country,
	}
}
