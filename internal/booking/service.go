package booking

import (
	"context"
	"errors"
	"time"

	"flightbook/pkg/amadeus"
	"flightbook/pkg/events"
	"flightbook/pkg/idgen"
	"flightbook/pkg/logger"
	"flightbook/pkg/validate"

	"github.com/go-playground/validator/v10"
)

// ErrNoSelection means a booking was attempted with no offer given and no
// pending selection saved from the search step.
var ErrNoSelection = errors.New("no flight selected for booking")

const (
	EventBookingCreated   = "booking_created"
	EventBookingCancelled = "booking_cancelled"
)

// Publisher emits booking lifecycle events. A nil Publisher disables
// publishing; delivery failures never fail the booking operation.
type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
}

var _ Publisher = (*events.Producer)(nil)

type Service struct {
	store    *Store
	refs     idgen.Generator
	events   Publisher
	validate *validator.Validate
	logger   logger.Client
	now      func() time.Time
}

func NewService(store *Store, refs idgen.Generator, publisher Publisher, log logger.Client) *Service {
	return &Service{
		store:    store,
		refs:     refs,
		events:   publisher,
		validate: validator.New(),
		logger:   log,
		now:      time.Now,
	}
}

// Create books a flight for the passenger. A nil offer falls back to the
// pending selection saved at search time; once booked, the selection slot
// is cleared so it cannot be booked twice by accident.
func (s *Service) Create(ctx context.Context, offer *amadeus.FlightOffer, passenger PassengerDetails) (*Booking, error) {
	if err := validate.Struct(s.validate, passenger); err != nil {
		return nil, err
	}

	if offer == nil {
		saved, err := s.store.PendingSelection(ctx)
		if err != nil {
			return nil, err
		}
		if saved == nil {
			return nil, ErrNoSelection
		}
		offer = saved
	}

	b := Booking{
		BookingReference: s.refs.NewReference(),
		FlightDetails:    *offer,
		PassengerDetails: passenger,
		BookingDate:      s.now().UTC(),
		BookingStatus:    StatusPending,
	}

	if err := s.store.Append(ctx, b); err != nil {
		return nil, err
	}
	if err := s.store.ClearPendingSelection(ctx); err != nil {
		s.logger.Warn("failed to clear pending selection",
			logger.Field{Key: "reference", Value: b.BookingReference},
			logger.Field{Key: "err", Value: err},
		)
	}

	s.publish(ctx, b.BookingReference, events.BookingEvent{
		Type:      EventBookingCreated,
		Reference: b.BookingReference,
		Status:    string(b.BookingStatus),
		Email:     passenger.Email,
		At:        b.BookingDate,
	})

	s.logger.Info("booking created",
		logger.Field{Key: "reference", Value: b.BookingReference},
	)
	return &b, nil
}

// Cancel marks the booking cancelled. Cancelling an already cancelled
// booking is a no-op returning the current record; bookings are never
// deleted.
func (s *Service) Cancel(ctx context.Context, ref string) (*Booking, error) {
	b, err := s.store.GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}
	if b.BookingStatus == StatusCancelled {
		return b, nil
	}

	b.BookingStatus = StatusCancelled
	if err := s.store.Replace(ctx, *b); err != nil {
		return nil, err
	}

	s.publish(ctx, b.BookingReference, events.BookingEvent{
		Type:      EventBookingCancelled,
		Reference: b.BookingReference,
		Status:    string(b.BookingStatus),
		Email:     b.PassengerDetails.Email,
		At:        s.now().UTC(),
	})

	s.logger.Info("booking cancelled",
		logger.Field{Key: "reference", Value: ref},
	)
	return b, nil
}

func (s *Service) Get(ctx context.Context, ref string) (*Booking, error) {
	return s.store.GetByReference(ctx, ref)
}

func (s *Service) List(ctx context.Context) ([]Booking, error) {
	return s.store.List(ctx)
}

func (s *Service) publish(ctx context.Context, key string, event events.BookingEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, key, event); err != nil {
		s.logger.Warn("failed to publish booking event",
			logger.Field{Key: "type", Value: event.Type},
			logger.Field{Key: "reference", Value: event.Reference},
			logger.Field{Key: "err", Value: err},
		)
	}
}
