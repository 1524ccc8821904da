// Package memoryRepo keeps every repository in process memory. It backs
// STORAGE_DRIVER=memory and the service tests, and enforces the same
// uniqueness and conditional-write rules as the MongoDB repositories.
package memoryRepo

import (
	"sync"

	availabilityRepo "ceremonify/database/repository/availability"
	bookingRepo "ceremonify/database/repository/booking"
	channelRepo "ceremonify/database/repository/channel"
	paymentRepo "ceremonify/database/repository/payment"
	providerRepo "ceremonify/database/repository/provider"
	"ceremonify/models"
)

type availabilityKey struct {
	providerID string
	day        int
}

type claimKey struct {
	providerID string
	date       string
	timeSlot   string
}

// Store is a single lock over every collection, so multi-collection writes
// are atomic the way a database transaction would make them.
type Store struct {
	mu sync.Mutex

	availability map[availabilityKey]models.AvailabilitySlot
	bookings     map[string]models.Booking
	bookingOrder []string
	claims       map[claimKey]string
	providers    map[string]models.Provider
	channels     map[string]models.Channel
	schedules    map[string]models.PaymentSchedule
	payments     map[string]models.Payment
	paymentOrder []string
	collected    map[string]int64
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		availability: make(map[availabilityKey]models.AvailabilitySlot),
		bookings:     make(map[string]models.Booking),
		claims:       make(map[claimKey]string),
		providers:    make(map[string]models.Provider),
		channels:     make(map[string]models.Channel),
		schedules:    make(map[string]models.PaymentSchedule),
		payments:     make(map[string]models.Payment),
		collected:    make(map[string]int64),
	}
}

func (s *Store) Availability() availabilityRepo.AvailabilityRepository { return &availabilityStore{s} }
func (s *Store) Bookings() bookingRepo.BookingRepository                { return &bookingStore{s} }
func (s *Store) Providers() providerRepo.ProviderRepository             { return &providerStore{s} }
func (s *Store) Channels() channelRepo.ChannelRepository                { return &channelStore{s} }
func (s *Store) Payments() paymentRepo.PaymentRepository                { return &paymentStore{s} }

func copySchedule(s models.PaymentSchedule) models.PaymentSchedule {
	s.Milestones = append([]models.Milestone(nil), s.Milestones...)
	s.AppliedPaymentIDs = append([]string{}, s.AppliedPaymentIDs...)
	return s
}
