package domain

import "time"

type Review struct {
	ID        uint      `json:"id"`
	Review    string    `json:"review"`
	Rating    int       `json:"rating"`
	TourID    uint      `json:"tour_id"`
	UserID    uint      `json:"user_id"`
	User      *User     `json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
