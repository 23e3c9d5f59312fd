package models

// CreateScheduleRequest is the payload for booking a lab.
type CreateScheduleRequest struct {
	Date       string   `json:"date" validate:"required,datetime=2006-01-02"`
	Slots      []string `json:"slots" validate:"required,min=1,dive,required"`
	UserName   string   `json:"user_name" validate:"required"`
	CourseCode string   `json:"course_code" validate:"required"`
	LabCode    string   `json:"lab_code"`
	Annotation string   `json:"annotation"`
	RepeatType string   `json:"repeat_type" validate:"omitempty,oneof=NONE DAILY WEEKLY MONTHLY"`
	Status     string   `json:"status" validate:"omitempty,oneof=PENDING CONFIRMED CANCELLED"`
}

// UpdateScheduleRequest is the payload for modifying a booking. Nil fields
// are left untouched.
type UpdateScheduleRequest struct {
	Date       *string   `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Slots      *[]string `json:"slots" validate:"omitempty,min=1,dive,required"`
	UserName   *string   `json:"user_name"`
	CourseCode *string   `json:"course_code"`
	LabCode    *string   `json:"lab_code"`
	Annotation *string   `json:"annotation"`
	RepeatType *string   `json:"repeat_type" validate:"omitempty,oneof=NONE DAILY WEEKLY MONTHLY"`
	Status     *string   `json:"status" validate:"omitempty,oneof=PENDING CONFIRMED CANCELLED"`
}

// ConflictCheckRequest probes whether a prospective booking would collide.
type ConflictCheckRequest struct {
	Date      string   `json:"date" validate:"required,datetime=2006-01-02"`
	LabCode   string   `json:"lab_code" validate:"required"`
	Slots     []string `json:"slots" validate:"required,min=1,dive,required"`
	ExcludeID string   `json:"exclude_id"`
}

// ConflictCheckResult reports the outcome of a conflict probe.
type ConflictCheckResult struct {
	Conflict bool      `json:"conflict"`
	With     *Schedule `json:"with,omitempty"`
}
