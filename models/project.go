package models

import (
	"time"
)

// Project is keyed by Code, the string form of an increasing integer.
type Project struct {
	Code      string    `gorm:"primaryKey;size:20" json:"code"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Name      string    `gorm:"not null;size:100" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
}
