package models

import (
	"time"
)

type Task struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Name        string    `gorm:"not null;size:200" json:"name"`
	ProjectCode string    `gorm:"not null;index;size:20" json:"project_code"`
	Project     *Project  `gorm:"foreignKey:ProjectCode" json:"project,omitempty"`
	RoleID      *uint     `gorm:"index" json:"role_id"`
	Role        *Role     `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
}
