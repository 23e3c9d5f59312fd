package models

import (
	"time"

	"github.com/lib/pq"
)

// BookingStatus is the lifecycle state of a schedule entry.
type BookingStatus string

const (
	BookingPending   BookingStatus = "PENDING"
	BookingConfirmed BookingStatus = "CONFIRMED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// RepeatType is recorded on a booking but never expanded into future
// occurrences.
type RepeatType string

const (
	RepeatNone    RepeatType = "NONE"
	RepeatDaily   RepeatType = "DAILY"
	RepeatWeekly  RepeatType = "WEEKLY"
	RepeatMonthly RepeatType = "MONTHLY"
)

// ValidBookingStatus reports whether the value is a known status.
func ValidBookingStatus(s BookingStatus) bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingCancelled:
		return true
	}
	return false
}

// ValidRepeatType reports whether the value is a known repeat pattern.
func ValidRepeatType(r RepeatType) bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatMonthly:
		return true
	}
	return false
}

// allowedTransitions is the explicit status machine: nothing leaves
// CANCELLED, CONFIRMED can only be cancelled.
var allowedTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingCancelled},
	BookingCancelled: {},
}

// CanTransition reports whether a booking may move from one status to
// another. Keeping the same status is always allowed.
func CanTransition(from, to BookingStatus) bool {
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Schedule is one lab booking: a date, a set of slot labels from the
// canonical grid, and soft references to a course and a lab.
type Schedule struct {
	ID         string         `db:"id" json:"id"`
	Date       time.Time      `db:"date" json:"date"`
	Slots      pq.StringArray `db:"slots" json:"slots"`
	UserName   string         `db:"user_name" json:"user_name"`
	UserID     string         `db:"user_id" json:"user_id,omitempty"`
	CourseCode string         `db:"course_code" json:"course_code"`
	LabCode    string         `db:"lab_code" json:"lab_code"`
	Annotation string         `db:"annotation" json:"annotation,omitempty"`
	RepeatType RepeatType     `db:"repeat_type" json:"repeat_type"`
	Status     BookingStatus  `db:"status" json:"status"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleFilter captures criteria for listing schedules.
type ScheduleFilter struct {
	StartDate  *time.Time
	EndDate    *time.Time
	LabCode    string
	CourseCode string
	UserID     string
	Status     BookingStatus
	Page       int
	PageSize   int
}

// BookingConflictError is returned when requested slots overlap an existing
// confirmed booking for the same lab and date.
type BookingConflictError struct {
	Message  string    `json:"message"`
	Conflict *Schedule `json:"conflict"`
}

// Error implements the error interface.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
