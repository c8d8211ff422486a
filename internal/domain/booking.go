package domain

import "time"

// Booking links a user to a tour they paid for. Price is a snapshot taken at
// booking time and never re-read from the tour.
type Booking struct {
	ID        uint      `json:"id"`
	TourID    uint      `json:"tour_id"`
	Tour      *Tour     `json:"tour,omitempty"`
	UserID    uint      `json:"user_id"`
	User      *User     `json:"user,omitempty"`
	Price     float64   `json:"price"`
	Paid      bool      `json:"paid"`
	CreatedAt time.Time `json:"created_at"`
}
