package submission

import (
	"time"

	"github.com/volatiletech/null/v8"
)

type SlotType string

// Slot types
const (
	Proposal SlotType = "PROPOSAL"
	Abstract SlotType = "ABSTRACT"
	SRS      SlotType = "SRS"
	PPT1     SlotType = "PPT1"
	PPT2     SlotType = "PPT2"
	Report   SlotType = "REPORT"
	Rev1     SlotType = "REV1"
	Rev2     SlotType = "REV2"
)

var SlotTypes = []SlotType{Proposal, Abstract, SRS, PPT1, PPT2, Report, Rev1, Rev2}

func (t SlotType) IsValid() bool {
	for _, st := range SlotTypes {
		if st == t {
			return true
		}
	}
	return false
}

// IsReviewDate reports whether slots of type t carry a review date instead of a deadline.
func (t SlotType) IsReviewDate() bool {
	switch t {
	case Rev1, Rev2, PPT1, PPT2:
		return true
	}
	return false
}

// Title is the display title given to a slot of type t.
func (t SlotType) Title() string {
	if t.IsReviewDate() {
		return string(t) + " Presentation"
	}
	switch t {
	case Proposal:
		return "Project Proposal"
	case Abstract:
		return "Abstract"
	case SRS:
		return "SRS Document"
	case Report:
		return "Final Report"
	}
	return "Document Submission"
}

// Submission statuses
const (
	StatusOnTime = "On Time"
	StatusLate   = "Late"
)

// Slot is a deliverable teams upload against, or a scheduled review date.
type Slot struct {
	ID         int64     `json:"id"`
	Type       SlotType  `json:"slot_type"`
	Title      string    `json:"title"`
	Deadline   null.Time `json:"deadline"`    // UTC
	ReviewDate null.Time `json:"review_date"` // UTC, date only
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"` // UTC
}

// StatusAt is the status of a submission made at t against s.
// Submitting at the deadline exactly is on time; slots without deadline never make a submission late.
func (s Slot) StatusAt(t time.Time) string {
	if !s.Deadline.Valid || !t.After(s.Deadline.Time) {
		return StatusOnTime
	}
	return StatusLate
}

// IsOverdue reports whether the deadline of s has passed at t.
func (s Slot) IsOverdue(t time.Time) bool {
	return s.Deadline.Valid && t.After(s.Deadline.Time)
}

type Submission struct {
	ID          int64     `json:"id"`
	TeamID      string    `json:"team_id"`
	SlotID      int64     `json:"slot_id"`
	SlotType    SlotType  `json:"slot_type"`
	FilePath    string    `json:"-"`
	FileURL     string    `json:"file_url"`
	SubmittedAt time.Time `json:"submitted_at"` // UTC
	Status      string    `json:"status"`
}

// SetDate is the payload of a deadline (or review date) update.
type SetDate struct {
	Type SlotType  `json:"-"`
	Date time.Time `json:"date" validate:"required"`
}

type SlotFilter struct {
	ActiveOnly bool
}

type SubmissionFilter struct {
	TeamID string
}
