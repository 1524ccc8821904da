package models

import "time"

// Channel links a customer and a provider for one booking.
type Channel struct {
	ID         string    `bson:"id" json:"id"`
	BookingID  string    `bson:"booking_id" json:"bookingId"`
	UserID     string    `bson:"user_id" json:"userId"`
	ProviderID string    `bson:"provider_id" json:"providerId"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}
