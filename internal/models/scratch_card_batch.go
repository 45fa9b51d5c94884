package models

import (
	"time"
)

// ScratchCardBatch one generation run of scratch cards for a school
type ScratchCardBatch struct {
	ID          uint          `gorm:"primarykey" json:"id"`
	BatchNo     string        `gorm:"type:varchar(48);uniqueIndex;not null" json:"batch_no"`
	SchoolID    uint          `gorm:"index;not null" json:"school_id"`
	Quantity    int           `gorm:"not null;default:0" json:"quantity"`
	InitialUses int           `gorm:"not null;default:0" json:"initial_uses"`
	CreatedBy   *uint         `gorm:"index" json:"created_by,omitempty"`
	CreatedAt   time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"index" json:"updated_at"`
	Cards       []ScratchCard `gorm:"foreignKey:BatchID;constraint:OnUpdate:CASCADE" json:"cards,omitempty"`
}

// TableName sets the table name
func (ScratchCardBatch) TableName() string {
	return "scratch_card_batches"
}
