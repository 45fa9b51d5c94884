package models

import "time"

// Student read-only collaborator record. The redemption engine only ever
// looks students up by (school_id, admission_number); it never mutates them.
type Student struct {
	ID              uint      `gorm:"primarykey" json:"id"`
	SchoolID        uint      `gorm:"uniqueIndex:idx_students_school_admission;not null" json:"school_id"`
	AdmissionNumber string    `gorm:"type:varchar(64);uniqueIndex:idx_students_school_admission;not null" json:"admission_number"`
	FirstName       string    `gorm:"type:varchar(80);not null" json:"first_name"`
	LastName        string    `gorm:"type:varchar(80);not null" json:"last_name"`
	ClassName       string    `gorm:"type:varchar(80)" json:"class_name"`
	CreatedAt       time.Time `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"index" json:"updated_at"`
}

// TableName sets the table name
func (Student) TableName() string {
	return "students"
}
