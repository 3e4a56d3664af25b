package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is the person holding one or more installment contracts.
type Customer struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	FullName   string    `gorm:"column:full_name;not null"`
	Phone      *string   `gorm:"column:phone;uniqueIndex"`
	NationalID *string   `gorm:"column:national_id;uniqueIndex"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
