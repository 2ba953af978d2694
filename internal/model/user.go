package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents one registered account.
// Status false marks the record as soft-deleted; rows are never physically removed.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name" gorm:"size:255;index"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password  string    `json:"-" gorm:"size:255;not null"` // bcrypt digest, never exposed
	Cellphone string    `json:"cellphone" gorm:"size:32;index"`
	Status    bool      `json:"status" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate sets the UUID before inserting the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
