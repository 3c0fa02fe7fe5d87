package search

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"flightbook/pkg/amadeus"
)

// OfferView is a display-ready projection of one offer. The route uses the
// first segment's departure and the last segment's arrival.
type OfferView struct {
	ID           string `json:"id"`
	Origin       string `json:"origin"`
	Destination  string `json:"destination"`
	Departure    string `json:"departure"`
	Arrival      string `json:"arrival"`
	Duration     string `json:"duration"`
	Stops        int    `json:"stops"`
	Carrier      string `json:"carrier"`
	FlightNumber string `json:"flight_number"`
	Price        string `json:"price"`
}

// BuildView formats an offer for display. Returns false when the offer has
// no usable itinerary.
func BuildView(offer amadeus.FlightOffer) (OfferView, bool) {
	if len(offer.Itineraries) == 0 || len(offer.Itineraries[0].Segments) == 0 {
		return OfferView{}, false
	}

	itinerary := offer.Itineraries[0]
	first := itinerary.Segments[0]
	last := itinerary.Segments[len(itinerary.Segments)-1]

	return OfferView{
		ID:           offer.ID,
		Origin:       first.Departure.IataCode,
		Destination:  last.Arrival.IataCode,
		Departure:    FormatDateTime(first.Departure.At),
		Arrival:      FormatDateTime(last.Arrival.At),
		Duration:     FormatDuration(itinerary.Duration),
		Stops:        len(itinerary.Segments) - 1,
		Carrier:      first.CarrierCode,
		FlightNumber: first.CarrierCode + first.Number,
		Price:        FormatPrice(offer.Price.Total, offer.Price.Currency),
	}, true
}

var durationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?$`)

// FormatDuration normalizes an ISO-8601 duration like "PT5H40M" to "5h 40m".
func FormatDuration(iso string) string {
	match := durationPattern.FindStringSubmatch(iso)
	if match == nil {
		return strings.ToLower(strings.TrimPrefix(iso, "PT"))
	}

	var parts []string
	if match[1] != "" {
		parts = append(parts, match[1]+"h")
	}
	if match[2] != "" {
		parts = append(parts, match[2]+"m")
	}
	if len(parts) == 0 {
		return iso
	}
	return strings.Join(parts, " ")
}

const segmentTimeLayout = "2006-01-02T15:04:05"

// FormatDateTime renders a segment timestamp like "2025-03-10T22:30:00"
// as "Mar 10, 2025 22:30". Unparseable input passes through unchanged.
func FormatDateTime(at string) string {
	parsed, err := time.Parse(segmentTimeLayout, at)
	if err != nil {
		return at
	}
	return parsed.Format("Jan 2, 2006 15:04")
}

// FormatPrice renders "54000.00" + "INR" as "54,000 INR". Zero cents are
// dropped; non-zero cents are kept.
func FormatPrice(total, currency string) string {
	intPart := total
	fracPart := ""
	if idx := strings.IndexByte(total, '.'); idx >= 0 {
		intPart = total[:idx]
		fracPart = total[idx+1:]
	}

	grouped := groupThousands(intPart)
	if fracPart != "" && strings.Trim(fracPart, "0") != "" {
		return fmt.Sprintf("%s.%s %s", grouped, fracPart, currency)
	}
	return fmt.Sprintf("%s %s", grouped, currency)
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func sortOffersByPrice(offers []amadeus.FlightOffer) {
	sort.SliceStable(offers, func(i, j int) bool {
		return priceValue(offers[i]) < priceValue(offers[j])
	})
}

func priceValue(offer amadeus.FlightOffer) float64 {
	v, err := strconv.ParseFloat(offer.Price.Total, 64)
	if err != nil {
		// Sort unparseable prices last so they never outrank real offers.
		return math.MaxFloat64
	}
	return v
}
