package repository

import "time"

// ScratchCardListFilter filter for listing a school's cards
type ScratchCardListFilter struct {
	Page        int
	PageSize    int
	SchoolID    uint
	Pin         string // prefix / substring match
	Status      string // active / depleted / deactivated
	BatchNo     string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// ScratchCardUsageListFilter filter for listing ledger entries
type ScratchCardUsageListFilter struct {
	Page            int
	PageSize        int
	SchoolID        uint
	CardID          uint
	AdmissionNumber string
	UsedFrom        *time.Time
	UsedTo          *time.Time
}

// StudentListFilter filter for the read-only student listing
type StudentListFilter struct {
	Page     int
	PageSize int
	SchoolID uint
	Search   string // matches admission number or name
}
