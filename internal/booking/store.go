package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"flightbook/pkg/amadeus"
	"flightbook/pkg/cache"
)

var ErrNotFound = errors.New("booking not found")

const (
	bookingsKey         = "bookings"
	pendingSelectionKey = "pending_flight_selection"
	pendingOrderKey     = "pending_payment_order"
)

// PendingOrder ties an offsite checkout order to the booking it pays for.
// It lives in its own slot so the redirect back from the provider can be
// reconciled without any state carried through the redirect itself.
type PendingOrder struct {
	OrderID          string `json:"orderId"`
	BookingReference string `json:"bookingReference"`
}

// Store persists the booking collection and the two hand-off slots
// (pending flight selection, pending payment order) as keyed JSON records.
// A single mutex serializes mutations; reads of the collection go through
// a scan by bookingReference.
type Store struct {
	cache cache.Cache
	mu    sync.Mutex
}

func NewStore(c cache.Cache) *Store {
	return &Store{cache: c}
}

func (s *Store) readAll(ctx context.Context) ([]Booking, error) {
	raw, err := s.cache.Get(ctx, bookingsKey)
	if errors.Is(err, cache.ErrKeyNotFound) || (err == nil && raw == "") {
		// Absent collection reads as empty, same as a fresh device.
		return []Booking{}, nil
	}
	// A backend failure must not read as empty: rewriting the collection
	// from an empty read would destroy every prior booking.
	if err != nil {
		return nil, fmt.Errorf("failed to read bookings: %w", err)
	}

	var bookings []Booking
	if err := json.Unmarshal([]byte(raw), &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (s *Store) writeAll(ctx context.Context, bookings []Booking) error {
	data, err := json.Marshal(bookings)
	if err != nil {
		return fmt.Errorf("failed to encode bookings: %w", err)
	}
	return s.cache.Set(ctx, bookingsKey, string(data), 0)
}

// List returns every booking, oldest first.
func (s *Store) List(ctx context.Context) ([]Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readAll(ctx)
}

func (s *Store) GetByReference(ctx context.Context, ref string) (*Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range bookings {
		if bookings[i].BookingReference == ref {
			return &bookings[i], nil
		}
	}
	return nil, ErrNotFound
}

func (s *Store) Append(ctx context.Context, b Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	return s.writeAll(ctx, append(bookings, b))
}

// Replace swaps the stored record whose reference matches b. The record
// must already exist; bookings are only ever created through Append.
func (s *Store) Replace(ctx context.Context, b Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.readAll(ctx)
	if err != nil {
		return err
	}
	for i := range bookings {
		if bookings[i].BookingReference == b.BookingReference {
			bookings[i] = b
			return s.writeAll(ctx, bookings)
		}
	}
	return ErrNotFound
}

func (s *Store) SavePendingSelection(ctx context.Context, offer amadeus.FlightOffer) error {
	data, err := json.Marshal(offer)
	if err != nil {
		return fmt.Errorf("failed to encode selected offer: %w", err)
	}
	return s.cache.Set(ctx, pendingSelectionKey, string(data), 0)
}

// PendingSelection returns the saved offer, or nil when no selection is
// pending.
func (s *Store) PendingSelection(ctx context.Context) (*amadeus.FlightOffer, error) {
	raw, err := s.cache.Get(ctx, pendingSelectionKey)
	if errors.Is(err, cache.ErrKeyNotFound) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending selection: %w", err)
	}

	var offer amadeus.FlightOffer
	if err := json.Unmarshal([]byte(raw), &offer); err != nil {
		return nil, fmt.Errorf("failed to decode selected offer: %w", err)
	}
	return &offer, nil
}

func (s *Store) ClearPendingSelection(ctx context.Context) error {
	return s.cache.Del(ctx, pendingSelectionKey)
}

func (s *Store) SavePendingOrder(ctx context.Context, order PendingOrder) error {
	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to encode pending order: %w", err)
	}
	return s.cache.Set(ctx, pendingOrderKey, string(data), 0)
}

// PendingOrder returns the in-flight checkout order, or nil when no
// payment is awaiting reconciliation.
func (s *Store) PendingOrder(ctx context.Context) (*PendingOrder, error) {
	raw, err := s.cache.Get(ctx, pendingOrderKey)
	if errors.Is(err, cache.ErrKeyNotFound) || (err == nil && raw == "") {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read pending order: %w", err)
	}

	var order PendingOrder
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		return nil, fmt.Errorf("failed to decode pending order: %w", err)
	}
	return &order, nil
}

func (s *Store) ClearPendingOrder(ctx context.Context) error {
	return s.cache.Del(ctx, pendingOrderKey)
}
