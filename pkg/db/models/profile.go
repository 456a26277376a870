package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile holds contact and shipping details for an account. ID equals the user id.
type Profile struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Email     string    `gorm:"column:email;not null"`
	Phone     *string   `gorm:"column:phone"`
	FirstName *string   `gorm:"column:first_name"`
	LastName  *string   `gorm:"column:last_name"`
	Address   *string   `gorm:"column:address"`
	Apartment *string   `gorm:"column:apartment"`
	City      *string   `gorm:"column:city"`
	State     *string   `gorm:"column:state"`
	ZipCode   *string   `gorm:"column:zip_code"`
	Country   *string   `gorm:"column:country"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
