package search

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"flightbook/pkg/amadeus"
	"flightbook/pkg/logger"
	"flightbook/pkg/validate"

	"github.com/go-playground/validator/v10"
)

// ErrNoOffers is the valid-but-empty outcome: the route and date produced
// no offers. It renders distinctly from a hard failure.
var ErrNoOffers = errors.New("no flight offers for the selected route and date")

// City labels carry a human name plus an embedded IATA code,
// e.g. "Chennai (MAA)". The parenthesized code is the canonical identifier.
var iataPattern = regexp.MustCompile(`\(([A-Za-z]{3})\)`)

// ExtractIATA pulls the parenthesized IATA code out of a city label.
func ExtractIATA(label string) (string, bool) {
	match := iataPattern.FindStringSubmatch(label)
	if match == nil {
		return "", false
	}
	return strings.ToUpper(match[1]), true
}

// SearchQuery is a route/date/passenger-count query. Both city fields must
// contain an extractable IATA code and passengers must be within [1,9] or
// the query is rejected before any network call.
type SearchQuery struct {
	From       string `json:"from" validate:"required,citylabel"`
	To         string `json:"to" validate:"required,citylabel"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Passengers int    `json:"passengers" validate:"required,min=1,max=9"`
}

type OfferSearcher interface {
	SearchFlightOffers(ctx context.Context, q amadeus.OffersQuery) ([]amadeus.FlightOffer, error)
}

var _ OfferSearcher = (*amadeus.Client)(nil)

// SelectionStore persists the most recently selected offer so the booking
// step can recover it when the explicit hand-off is unavailable.
type SelectionStore interface {
	SavePendingSelection(ctx context.Context, offer amadeus.FlightOffer) error
}

type Service struct {
	client     OfferSearcher
	selections SelectionStore
	currency   string
	maxResults int
	validate   *validator.Validate
	logger     logger.Client
}

func NewService(client OfferSearcher, selections SelectionStore, currency string, maxResults int, log logger.Client) *Service {
	v := validator.New()
	if err := v.RegisterValidation("citylabel", validateCityLabel); err != nil {
		log.Fatal("failed to register 'citylabel' validator", logger.Field{Key: "err", Value: err})
	}

	return &Service{
		client:     client,
		selections: selections,
		currency:   currency,
		maxResults: maxResults,
		validate:   v,
		logger:     log,
	}
}

func validateCityLabel(fl validator.FieldLevel) bool {
	_, ok := ExtractIATA(fl.Field().String())
	return ok
}

// Search validates the query, runs the offer search and returns offers
// sorted by ascending total price. Precondition failures never reach the
// network.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]amadeus.FlightOffer, error) {
	if err := validate.Struct(s.validate, q); err != nil {
		return nil, err
	}

	origin, _ := ExtractIATA(q.From)
	destination, _ := ExtractIATA(q.To)

	offers, err := s.client.SearchFlightOffers(ctx, amadeus.OffersQuery{
		OriginLocationCode:      origin,
		DestinationLocationCode: destination,
		DepartureDate:           q.Date,
		Adults:                  q.Passengers,
		CurrencyCode:            s.currency,
		Max:                     s.maxResults,
	})
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		s.logger.Info("search returned no offers",
			logger.Field{Key: "origin", Value: origin},
			logger.Field{Key: "destination", Value: destination},
			logger.Field{Key: "date", Value: q.Date},
		)
		return nil, ErrNoOffers
	}

	sortOffersByPrice(offers)
	return offers, nil
}

// SelectOffer records the user's chosen offer in the pending-selection slot.
func (s *Service) SelectOffer(ctx context.Context, offer amadeus.FlightOffer) error {
	if offer.ID == "" || len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
		return validate.ValidationErrors{{Field: "offer", Message: "must include an itinerary with at least one segment"}}
	}
	return s.selections.SavePendingSelection(ctx, offer)
}
