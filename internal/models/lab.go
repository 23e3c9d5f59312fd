package models

import "time"

// Lab is a bookable laboratory identified by a short unique code.
type Lab struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Capacity    int       `db:"capacity" json:"capacity"`
	Location    string    `db:"location" json:"location,omitempty"`
	Description string    `db:"description" json:"description,omitempty"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// LabDetail enriches Lab with the number of confirmed bookings.
type LabDetail struct {
	Lab
	ActiveBookings int `json:"active_bookings"`
}
