package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Name         string    `gorm:"uniqueIndex;not null;size:100" json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	IsManager    bool      `gorm:"default:false" json:"is_manager"`
	Roles        []Role    `gorm:"many2many:user_roles" json:"roles,omitempty"`
}

func (u *User) Permission() Permission {
	return ResolvePermission(u)
}

func (u *User) CanManageEntriesFor(userID uint) bool {
	if u.IsAdmin {
		return true
	}
	return u.ID == userID
}
