package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID                       uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName                 string    `gorm:"type:varchar(50);not null"`
	Username                 string    `gorm:"type:varchar(16);uniqueIndex;not null"`
	PasswordHash             string    `gorm:"type:varchar(255);not null"`
	IDNumberHash             string    `gorm:"type:varchar(255);not null"`
	IDNumberFingerprint      string    `gorm:"type:char(64);uniqueIndex;not null"`
	AccountNumberHash        string    `gorm:"type:varchar(255);not null"`
	AccountNumberFingerprint string    `gorm:"type:char(64);uniqueIndex;not null"`
	Role                     string    `gorm:"type:varchar(16)"`
	CreatedAt                time.Time
	UpdatedAt                time.Time
}
