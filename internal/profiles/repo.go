package profiles

import (
	"context"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// editableColumns are overwritten on upsert. id and created_at never change.
var editableColumns = []string{
	"email", "phone", "first_name", "last_name", "address",
	"apartment", "city", "state", "zip_code", "country", "updated_at",
}

// Repository persists account profiles.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads the profile keyed by the account id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	if err := r.db.WithContext(ctx).First(&profile, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

// Upsert inserts the profile or overwrites the editable columns of the
// existing row, then returns the stored state.
func (r *Repository) Upsert(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(editableColumns),
		}).
		Create(profile).Error
	if err != nil {
		return nil, err
	}
	return r.FindByID(ctx, profile.ID)
}
