package models

import "time"

// StudentResult read-only gradebook record for one student, session and
// term. The payload is opaque to this service (subject scores, ratings,
// attendance, comments are produced elsewhere).
type StudentResult struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	StudentID uint      `gorm:"index:idx_results_student_session_term;not null" json:"student_id"`
	SchoolID  uint      `gorm:"index;not null" json:"school_id"`
	SessionID uint      `gorm:"index:idx_results_student_session_term;not null" json:"session_id"`
	TermID    uint      `gorm:"index:idx_results_student_session_term;not null" json:"term_id"`
	Payload   string    `gorm:"type:text;not null" json:"payload"` // gradebook JSON, treated as opaque
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

// TableName sets the table name
func (StudentResult) TableName() string {
	return "student_results"
}
