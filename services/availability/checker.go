// Package availability decides whether a provider can take a booking over a
// date range at a given time slot.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ceremonify/database/repository"
	availabilityRepo "ceremonify/database/repository/availability"
	bookingRepo "ceremonify/database/repository/booking"
	"ceremonify/models"
)

// ErrInvalidQuery is returned for malformed dates or time slots, before any store access.
var ErrInvalidQuery = errors.New("invalid availability query")

// Result is the admission decision for one request. Date is the first
// rejected day, empty when admissible.
type Result struct {
	Admissible bool   `json:"admissible"`
	Reason     string `json:"reason,omitempty"`
	Date       string `json:"date,omitempty"`
}

// Checker reads weekly working hours and the booking ledger. It holds no state of its own.
type Checker struct {
	Slots    availabilityRepo.AvailabilityRepository
	Bookings bookingRepo.BookingRepository
}

func NewChecker(slots availabilityRepo.AvailabilityRepository, bookings bookingRepo.BookingRepository) *Checker {
	return &Checker{Slots: slots, Bookings: bookings}
}

// IsAdmissible walks the range day by day and stops at the first day that
// fails: no working hours, slot outside working hours, or slot already held
// by a blocking booking. Store failures are errors, never rejections.
func (c *Checker) IsAdmissible(ctx context.Context, providerID, startDate, endDate, timeSlot string) (Result, error) {
	dates, slotMinute, err := parseQuery(startDate, endDate, timeSlot)
	if err != nil {
		return Result{}, err
	}

	for _, d := range dates {
		date := d.Format(models.DateLayout)
		day := d.Weekday()

		slot, err := c.Slots.Get(ctx, providerID, day)
		if errors.Is(err, repository.ErrNotFound) {
			return reject(date, "provider unavailable on %s %s", day, date), nil
		}
		if err != nil {
			return Result{}, fmt.Errorf("failed to load availability for %s: %w", date, err)
		}
		if !slot.Covers(slotMinute) {
			return reject(date, "outside provider's working hours on %s %s", day, date), nil
		}

		blocking, err := c.Bookings.FindBlocking(ctx, providerID, date, timeSlot)
		if err != nil {
			return Result{}, fmt.Errorf("failed to check bookings for %s: %w", date, err)
		}
		if len(blocking) > 0 {
			return reject(date, "slot already booked on %s %s at %s", day, date, timeSlot), nil
		}
	}
	return Result{Admissible: true}, nil
}

func parseQuery(startDate, endDate, timeSlot string) ([]time.Time, int, error) {
	minute, err := models.ParseClock(timeSlot)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	r, err := models.ParseDateRange(startDate, endDate)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	return r.Dates(), minute, nil
}

func reject(date, format string, args ...interface{}) Result {
	return Result{Reason: fmt.Sprintf(format, args...), Date: date}
}
