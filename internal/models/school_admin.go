package models

import "time"

// SchoolAdmin issuer-side account, scoped to a single school
type SchoolAdmin struct {
	ID                 uint       `gorm:"primarykey" json:"id"`
	SchoolID           uint       `gorm:"index;not null" json:"school_id"`
	Username           string     `gorm:"type:varchar(80);uniqueIndex;not null" json:"username"`
	PasswordHash       string     `gorm:"type:varchar(255);not null" json:"-"`
	TokenVersion       uint64     `gorm:"not null;default:0" json:"-"` // bumped on password change to revoke issued tokens
	TokenInvalidBefore *time.Time `json:"-"`
	LastLoginAt        *time.Time `json:"last_login_at"`
	CreatedAt          time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"index" json:"updated_at"`
}

// TableName sets the table name
func (SchoolAdmin) TableName() string {
	return "school_admins"
}
