package models

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Name        string `json:"name" validate:"required"`
	Nickname    string `json:"nickname"`
	Code        string `json:"code" validate:"required"`
	Period      string `json:"period"`
	Capacity    int    `json:"capacity" validate:"required,min=1"`
	Description string `json:"description"`
}

// UpdateCourseRequest is the payload for modifying a course. Nil fields are
// left untouched.
type UpdateCourseRequest struct {
	Name        *string `json:"name"`
	Nickname    *string `json:"nickname"`
	Code        *string `json:"code"`
	Period      *string `json:"period"`
	Capacity    *int    `json:"capacity" validate:"omitempty,min=1"`
	Description *string `json:"description"`
}

// EnrollmentRequest links or unlinks a student and a course.
type EnrollmentRequest struct {
	StudentID string `json:"student_id" validate:"required"`
}

// TransferRequest moves a student between courses atomically.
type TransferRequest struct {
	StudentID      string `json:"student_id" validate:"required"`
	TargetCourseID string `json:"target_course_id" validate:"required"`
}

// CreateStudentRequest is the payload for creating a student.
type CreateStudentRequest struct {
	FullName           string  `json:"full_name" validate:"required"`
	Email              string  `json:"email" validate:"required,email"`
	Phone              string  `json:"phone"`
	RegistrationNumber string  `json:"registration_number"`
	CourseID           *string `json:"course_id"`
}

// UpdateStudentRequest modifies student profile fields. The course link is
// deliberately absent; enrollment changes go through the course endpoints.
type UpdateStudentRequest struct {
	FullName           *string `json:"full_name"`
	Email              *string `json:"email" validate:"omitempty,email"`
	Phone              *string `json:"phone"`
	RegistrationNumber *string `json:"registration_number"`
}

// CreateLabRequest is the payload for creating a lab.
type CreateLabRequest struct {
	Code        string `json:"code" validate:"required"`
	Name        string `json:"name" validate:"required"`
	Capacity    int    `json:"capacity" validate:"required,min=1"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// UpdateLabRequest modifies a lab. Nil fields are left untouched.
type UpdateLabRequest struct {
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	Capacity    *int    `json:"capacity" validate:"omitempty,min=1"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
	Active      *bool   `json:"active"`
}

// CreateUserRequest is the payload for provisioning an account with an
// explicit role. Unlike public registration it may create any role.
type CreateUserRequest struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=ADMIN PROFESSOR STUDENT USER"`
	Phone    string `json:"phone"`
}

// UpdateUserRequest modifies a user profile.
type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Phone    *string `json:"phone"`
	Role     *string `json:"role" validate:"omitempty,oneof=ADMIN PROFESSOR STUDENT USER"`
	Active   *bool   `json:"active"`
}
