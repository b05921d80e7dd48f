package domain

import "time"

// LogUnit is the unit a reading log page value is expressed in.
type LogUnit string

// Progress units.
const (
	UnitPages   LogUnit = "pages"
	UnitPercent LogUnit = "percent"
	UnitChapter LogUnit = "chapter"
)

// Valid reports whether u is empty or a known unit.
func (u LogUnit) Valid() bool {
	switch u {
	case "", UnitPages, UnitPercent, UnitChapter:
		return true
	}
	return false
}

// ReadingLog is an append-only progress entry nested under a relationship.
type ReadingLog struct {
	ID       string    `json:"id"`
	Page     int       `json:"page"`
	Thoughts string    `json:"thoughts,omitempty"`
	Unit     LogUnit   `json:"unit,omitempty"`
	Skipped  bool      `json:"skipped,omitempty"`
	Date     time.Time `json:"date"`
}

// LogEntryInput is the caller-supplied part of a reading log.
type LogEntryInput struct {
	Page     int     `json:"page" validate:"gte=0"`
	Thoughts string  `json:"thoughts,omitempty" validate:"max=2000"`
	Unit     LogUnit `json:"unit,omitempty" validate:"logunit"`
	Skipped  bool    `json:"skipped,omitempty"`
}

// Like records that one user liked a review.
type Like struct {
	LikerFID int64     `json:"likerFid"`
	LikedAt  time.Time `json:"likedAt"`
}
