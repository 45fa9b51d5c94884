package models

import "time"

// School issuing tenant; every card, student and result belongs to one school
type School struct {
	ID                uint      `gorm:"primarykey" json:"id"`
	Name              string    `gorm:"type:varchar(160);not null" json:"name"`
	Slug              string    `gorm:"type:varchar(80);uniqueIndex;not null" json:"slug"`
	NotificationEmail string    `gorm:"type:varchar(255)" json:"notification_email"` // depletion notices go here
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time `gorm:"index" json:"updated_at"`
}

// TableName sets the table name
func (School) TableName() string {
	return "schools"
}
