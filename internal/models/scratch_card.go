package models

import (
	"time"
)

const (
	ScratchCardStatusActive      = "active"
	ScratchCardStatusDepleted    = "depleted"
	ScratchCardStatusDeactivated = "deactivated"
)

// ScratchCard result-checker scratch card: a limited-use PIN that grants
// public access to one student's results. Cards are never deleted; a
// depleted or deactivated card is kept for audit.
type ScratchCard struct {
	ID            uint       `gorm:"primarykey" json:"id"`
	Pin           string     `gorm:"type:varchar(16);uniqueIndex;not null" json:"pin"`
	SchoolID      uint       `gorm:"index;not null" json:"school_id"`
	BatchID       *uint      `gorm:"index" json:"batch_id,omitempty"`
	UsesRemaining int        `gorm:"not null;default:0" json:"uses_remaining"`
	UsageCount    int        `gorm:"not null;default:0" json:"usage_count"`
	IsActive      bool       `gorm:"index;not null;default:true" json:"is_active"`
	LastUsedAt    *time.Time `gorm:"index" json:"last_used_at"`
	DeactivatedAt *time.Time `gorm:"index" json:"deactivated_at"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"index" json:"updated_at"`

	Batch *ScratchCardBatch `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}

// TableName sets the table name
func (ScratchCard) TableName() string {
	return "scratch_cards"
}

// Status derives the reporting status from the stored state.
// Explicit deactivation wins over depletion.
func (c *ScratchCard) Status() string {
	if !c.IsActive {
		return ScratchCardStatusDeactivated
	}
	if c.UsesRemaining <= 0 {
		return ScratchCardStatusDepleted
	}
	return ScratchCardStatusActive
}

// Redeemable reports whether the card can still consume a use.
func (c *ScratchCard) Redeemable() bool {
	return c.IsActive && c.UsesRemaining > 0
}
