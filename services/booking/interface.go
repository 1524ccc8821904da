// Package booking admits bookings against provider availability and drives
// their status through the booking lifecycle.
package booking

import (
	"context"
	"time"

	availabilityRepo "ceremonify/database/repository/availability"
	bookingRepo "ceremonify/database/repository/booking"
	channelRepo "ceremonify/database/repository/channel"
	providerRepo "ceremonify/database/repository/provider"
	"ceremonify/models"
	"ceremonify/services/availability"
	"ceremonify/services/payment"
	"ceremonify/services/tasks"

	"go.uber.org/zap"
)

type CreateBookingRequest struct {
	UserID              string                   `json:"userId"`
	ProviderID          string                   `json:"providerId"`
	StartDate           string                   `json:"startDate"`
	EndDate             string                   `json:"endDate"`
	TimeSlot            string                   `json:"timeSlot"`
	SpecialRequirements string                   `json:"specialRequirements"`
	PaymentPreference   models.PaymentPreference `json:"paymentPreference"`
}

// BookingService is the admission surface used by the HTTP layer and workers.
type BookingService interface {
	CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error)
	TransitionBookingStatus(ctx context.Context, bookingID string, status models.BookingStatus) (*models.Booking, error)
	CheckAvailability(ctx context.Context, providerID, startDate, endDate, timeSlot string) (availability.Result, error)
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)

	EnsureChannel(ctx context.Context, bookingID string) error
	ListChannelPending(ctx context.Context, limit int) ([]models.Booking, error)

	SetAvailability(ctx context.Context, slot models.AvailabilitySlot) (*models.AvailabilitySlot, error)
	ListAvailability(ctx context.Context, providerID string) ([]models.AvailabilitySlot, error)
	DeleteAvailability(ctx context.Context, providerID string, day time.Weekday) error
	UpdateAdvancePolicy(ctx context.Context, providerID string, policy models.AdvancePolicy) (*models.Provider, error)
}

// DefaultBookingService implements BookingService.
type DefaultBookingService struct {
	Bookings     bookingRepo.BookingRepository
	Providers    providerRepo.ProviderRepository
	Channels     channelRepo.ChannelRepository
	Availability availabilityRepo.AvailabilityRepository
	Checker      *availability.Checker
	Tracker      payment.Tracker
	Retries      tasks.Scheduler
	Logger       *zap.Logger

	DefaultCurrency string
}
