package bookingRepo

import (
	"context"

	"ceremonify/models"

	"go.mongodb.org/mongo-driver/mongo"
)

// BookingRepository is the booking ledger.
type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	// FindBlocking lists bookings in a blocking status that cover date at timeSlot.
	FindBlocking(ctx context.Context, providerID, date, timeSlot string) ([]models.Booking, error)
	// UpdateStatus moves a booking from one status to another only if it is
	// still in from. Entering a blocking status claims every day of the range;
	// a taken claim fails with repository.ErrDuplicate and changes nothing.
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) (*models.Booking, error)
	SetChannelStatus(ctx context.Context, id, status string) error
	SetPaymentStatus(ctx context.Context, id, status string) error
	ListByChannelStatus(ctx context.Context, status string, limit int) ([]models.Booking, error)
}

// MongoBookingRepo implements BookingRepository using MongoDB.
type MongoBookingRepo struct {
	bookingColl *mongo.Collection
	claimColl   *mongo.Collection
}

// NewMongoBookingRepo constructs a new instance of MongoBookingRepo.
func NewMongoBookingRepo(db *mongo.Database) BookingRepository {
	return &MongoBookingRepo{
		bookingColl: db.Collection("bookings"),
		claimColl:   db.Collection("slot_claims"),
	}
}
