package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"flightbook/cfg"
	"flightbook/internal/booking"
	"flightbook/pkg/events"
	"flightbook/pkg/logger"
	"flightbook/pkg/paypal"
)

// ErrReconciliation means the redirect back from the checkout provider
// could not be tied to a booking. No booking is mutated when reconciliation
// fails.
var ErrReconciliation = errors.New("payment reconciliation failed")

const EventPaymentCompleted = "payment_completed"

// OrderCreator creates checkout orders with the payment provider.
type OrderCreator interface {
	CreateOrder(ctx context.Context, order paypal.OrderRequest) (*paypal.Order, error)
}

// BookingStore is the slice of the booking store the payment workflow
// needs: booking lookup and mutation, plus the pending-order slot that
// carries state across the offsite redirect.
type BookingStore interface {
	GetByReference(ctx context.Context, ref string) (*booking.Booking, error)
	Replace(ctx context.Context, b booking.Booking) error
	SavePendingOrder(ctx context.Context, order booking.PendingOrder) error
	PendingOrder(ctx context.Context) (*booking.PendingOrder, error)
	ClearPendingOrder(ctx context.Context) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, value any) error
}

var (
	_ OrderCreator = (*paypal.Client)(nil)
	_ BookingStore = (*booking.Store)(nil)
)

type Service struct {
	orders     OrderCreator
	store      BookingStore
	events     Publisher
	paypalCfg  cfg.PayPalConfig
	paymentCfg cfg.PaymentConfig
	logger     logger.Client
	now        func() time.Time
}

func NewService(orders OrderCreator, store BookingStore, publisher Publisher, paypalCfg cfg.PayPalConfig, paymentCfg cfg.PaymentConfig, log logger.Client) *Service {
	return &Service{
		orders:     orders,
		store:      store,
		events:     publisher,
		paypalCfg:  paypalCfg,
		paymentCfg: paymentCfg,
		logger:     log,
		now:        time.Now,
	}
}

// Initiation is the hand-off to the offsite checkout: the created order
// and the URL the payer must be redirected to for approval.
type Initiation struct {
	OrderID    string `json:"orderId"`
	ApproveURL string `json:"approveUrl"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
}

// settlementAmount converts a display-currency total into the settlement
// currency at the configured fixed rate, formatted with two decimals.
func (s *Service) settlementAmount(displayTotal string) (string, error) {
	total, err := strconv.ParseFloat(displayTotal, 64)
	if err != nil {
		return "", fmt.Errorf("invalid booking total %q: %w", displayTotal, err)
	}
	return fmt.Sprintf("%.2f", total/s.paymentCfg.ConversionRate), nil
}

// Initiate creates a checkout order for the booking and records the order
// in the pending-order slot so the redirect back can be reconciled. A
// failed initiation leaves no pending slot behind.
func (s *Service) Initiate(ctx context.Context, ref string) (*Initiation, error) {
	b, err := s.store.GetByReference(ctx, ref)
	if err != nil {
		return nil, err
	}

	amount, err := s.settlementAmount(b.FlightDetails.Price.Total)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.CreateOrder(ctx, paypal.OrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypal.PurchaseUnit{{
			Amount: paypal.Amount{
				CurrencyCode: s.paymentCfg.SettlementCurrency,
				Value:        amount,
			},
			Description: fmt.Sprintf("Flight Booking - %s", ref),
		}},
		ApplicationContext: paypal.ApplicationContext{
			ReturnURL:          s.paypalCfg.ReturnURL,
			CancelURL:          s.paypalCfg.CancelURL,
			BrandName:          "Flight Booking",
			UserAction:         "PAY_NOW",
			ShippingPreference: "NO_SHIPPING",
		},
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.SavePendingOrder(ctx, booking.PendingOrder{
		OrderID:          order.ID,
		BookingReference: ref,
	}); err != nil {
		return nil, err
	}

	approveURL, ok := order.ApproveURL()
	if !ok {
		// Without an approval link the payer can never come back; do not
		// leave a slot that reconciliation would trust.
		if clearErr := s.store.ClearPendingOrder(ctx); clearErr != nil {
			s.logger.Warn("failed to clear pending order after bad checkout response",
				logger.Field{Key: "order_id", Value: order.ID},
				logger.Field{Key: "err", Value: clearErr},
			)
		}
		return nil, fmt.Errorf("checkout order %s has no approval link", order.ID)
	}

	s.logger.Info("payment initiated",
		logger.Field{Key: "reference", Value: ref},
		logger.Field{Key: "order_id", Value: order.ID},
		logger.Field{Key: "amount", Value: amount},
		logger.Field{Key: "currency", Value: s.paymentCfg.SettlementCurrency},
	)

	return &Initiation{
		OrderID:    order.ID,
		ApproveURL: approveURL,
		Amount:     amount,
		Currency:   s.paymentCfg.SettlementCurrency,
	}, nil
}

// ReconcileSuccess handles the return redirect after the payer approved
// the order. The pending-order slot names the booking; on a missing slot
// or unknown booking no record is touched and the failure surfaces as
// ErrReconciliation.
func (s *Service) ReconcileSuccess(ctx context.Context) (*booking.Booking, error) {
	slot, err := s.store.PendingOrder(ctx)
	if err != nil {
		return nil, err
	}
	if slot == nil {
		return nil, fmt.Errorf("%w: no pending payment order", ErrReconciliation)
	}

	b, err := s.store.GetByReference(ctx, slot.BookingReference)
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			return nil, fmt.Errorf("%w: booking %s not found", ErrReconciliation, slot.BookingReference)
		}
		return nil, err
	}

	paidAt := s.now().UTC()
	b.PaymentStatus = booking.PaymentStatusPaid
	b.PaymentMethod = booking.PaymentMethodPayPal
	b.PaymentDate = &paidAt
	b.PaymentID = slot.OrderID
	b.BookingStatus = booking.StatusConfirmed

	if err := s.store.Replace(ctx, *b); err != nil {
		return nil, err
	}
	if err := s.store.ClearPendingOrder(ctx); err != nil {
		s.logger.Warn("failed to clear reconciled order slot",
			logger.Field{Key: "order_id", Value: slot.OrderID},
			logger.Field{Key: "err", Value: err},
		)
	}

	s.publish(ctx, b.BookingReference, events.BookingEvent{
		Type:      EventPaymentCompleted,
		Reference: b.BookingReference,
		Status:    string(b.BookingStatus),
		Email:     b.PassengerDetails.Email,
		Amount:    b.FlightDetails.Price.Total,
		Currency:  b.FlightDetails.Price.Currency,
		PaymentID: slot.OrderID,
		At:        paidAt,
	})

	s.logger.Info("payment reconciled",
		logger.Field{Key: "reference", Value: b.BookingReference},
		logger.Field{Key: "order_id", Value: slot.OrderID},
	)
	return b, nil
}

// ReconcileCancel handles the cancel redirect. Nothing is mutated and the
// pending slot stays: the payer may retry the same order or abandon it by
// viewing their bookings.
func (s *Service) ReconcileCancel(ctx context.Context) (*booking.PendingOrder, error) {
	slot, err := s.store.PendingOrder(ctx)
	if err != nil {
		return nil, err
	}
	if slot != nil {
		s.logger.Info("payment cancelled by payer",
			logger.Field{Key: "reference", Value: slot.BookingReference},
			logger.Field{Key: "order_id", Value: slot.OrderID},
		)
	}
	return slot, nil
}

func (s *Service) publish(ctx context.Context, key string, event events.BookingEvent) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, key, event); err != nil {
		s.logger.Warn("failed to publish payment event",
			logger.Field{Key: "type", Value: event.Type},
			logger.Field{Key: "reference", Value: event.Reference},
			logger.Field{Key: "err", Value: err},
		)
	}
}
