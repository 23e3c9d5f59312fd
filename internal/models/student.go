package models

import "time"

// Student belongs to at most one course at a time; the course link is the
// enrollment relation the capacity guard protects.
type Student struct {
	ID                 string    `db:"id" json:"id"`
	FullName           string    `db:"full_name" json:"full_name"`
	Email              string    `db:"email" json:"email"`
	Phone              string    `db:"phone" json:"phone,omitempty"`
	RegistrationNumber string    `db:"registration_number" json:"registration_number,omitempty"`
	CourseID           *string   `db:"course_id" json:"course_id,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail enriches Student with course context for list views.
type StudentDetail struct {
	Student
	CourseName *string `db:"course_name" json:"course_name,omitempty"`
	CourseCode *string `db:"course_code" json:"course_code,omitempty"`
}

// StudentFilter captures criteria for listing students.
type StudentFilter struct {
	Search    string
	CourseID  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
