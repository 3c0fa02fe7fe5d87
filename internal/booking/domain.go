package booking

import (
	"time"

	"flightbook/pkg/amadeus"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
)

const (
	PaymentStatusPaid   = "PAID"
	PaymentMethodPayPal = "PayPal"
)

// PassengerDetails is the traveller information captured at booking time.
// Phone and date of birth are optional.
type PassengerDetails struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Booking is one booked flight. Bookings are never deleted; cancellation
// flips the status and keeps the record.
type Booking struct {
	BookingReference string              `json:"bookingReference"`
	FlightDetails    amadeus.FlightOffer `json:"flightDetails"`
	PassengerDetails PassengerDetails    `json:"passengerDetails"`
	BookingDate      time.Time           `json:"bookingDate"`
	BookingStatus    Status              `json:"bookingStatus"`
	PaymentStatus    string              `json:"paymentStatus,omitempty"`
	PaymentMethod    string              `json:"paymentMethod,omitempty"`
	PaymentDate      *time.Time          `json:"paymentDate,omitempty"`
	PaymentID        string              `json:"paymentId,omitempty"`
}
