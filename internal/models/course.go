package models

import "time"

// Course groups students under a short unique code with a hard enrollment
// capacity.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Nickname    string    `db:"nickname" json:"nickname"`
	Code        string    `db:"code" json:"code"`
	Period      string    `db:"period" json:"period"`
	Capacity    int       `db:"capacity" json:"capacity"`
	Description string    `db:"description" json:"description,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail enriches Course with the current enrollment count.
type CourseDetail struct {
	Course
	StudentCount int `db:"student_count" json:"student_count"`
}

// AvailableSeats returns remaining capacity, never negative.
func (c CourseDetail) AvailableSeats() int {
	remaining := c.Capacity - c.StudentCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// CourseFilter captures criteria for listing courses.
type CourseFilter struct {
	Search    string
	Period    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
