package models

import "time"

type AdminWhitelistEntry struct {
	Email     string    `gorm:"primaryKey" json:"email"`
	IsAdmin   bool      `gorm:"not null" json:"is_admin"`
	Role      string    `gorm:"not null;default:admin" json:"role"`
	FullName  string    `json:"full_name"`
	AddedBy   string    `json:"added_by"`
	CreatedAt time.Time `json:"created_at"`
}

func (AdminWhitelistEntry) TableName() string {
	return "admin_whitelist"
}
