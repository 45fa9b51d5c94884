package models

import "time"

// ScratchCardUsage append-only ledger of successful redemptions. One row is
// written per consumed use, in the same transaction as the counter
// decrement, so the per-card row count always equals the card's usage_count.
// Rows are never updated or deleted.
type ScratchCardUsage struct {
	ID                     uint      `gorm:"primarykey" json:"id"`
	CardID                 uint      `gorm:"index;not null" json:"card_id"`
	SchoolID               uint      `gorm:"index;not null" json:"school_id"` // denormalized from the card
	StudentAdmissionNumber string    `gorm:"type:varchar(64);index;not null" json:"student_admission_number"`
	SessionID              *uint     `gorm:"index" json:"session_id,omitempty"`
	TermID                 *uint     `gorm:"index" json:"term_id,omitempty"`
	UsedByEmail            string    `gorm:"type:varchar(255);index" json:"used_by_email"` // caller-asserted, unauthenticated
	UsedByIPAddress        string    `gorm:"type:varchar(64);index" json:"used_by_ip_address"`
	RequestID              string    `gorm:"type:varchar(64);index" json:"request_id"`
	UsedAt                 time.Time `gorm:"index;not null" json:"used_at"`
}

// TableName sets the table name
func (ScratchCardUsage) TableName() string {
	return "scratch_card_usages"
}
