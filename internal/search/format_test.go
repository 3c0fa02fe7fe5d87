package search

import (
	"testing"

	"flightbook/pkg/amadeus"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "5h 40m", FormatDuration("PT5H40M"))
	assert.Equal(t, "12h", FormatDuration("PT12H"))
	assert.Equal(t, "45m", FormatDuration("PT45M"))
	assert.Equal(t, "2h30m10s", FormatDuration("PT2H30M10S"))
}

func TestFormatDateTime(t *testing.T) {
	assert.Equal(t, "Mar 10, 2025 22:30", FormatDateTime("2025-03-10T22:30:00"))
	assert.Equal(t, "not-a-date", FormatDateTime("not-a-date"))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "54,000 INR", FormatPrice("54000.00", "INR"))
	assert.Equal(t, "54,000.50 INR", FormatPrice("54000.50", "INR"))
	assert.Equal(t, "720 USD", FormatPrice("720", "USD"))
	assert.Equal(t, "1,234,567 INR", FormatPrice("1234567", "INR"))
	assert.Equal(t, "999 INR", FormatPrice("999", "INR"))
}

func TestBuildView_UsesFirstDepartureAndLastArrival(t *testing.T) {
	offer := amadeus.FlightOffer{
		ID: "1",
		Itineraries: []amadeus.Itinerary{{
			Duration: "PT11H45M",
			Segments: []amadeus.Segment{
				{
					Departure:   amadeus.SegmentPoint{IataCode: "MAA", At: "2025-03-10T06:15:00"},
					Arrival:     amadeus.SegmentPoint{IataCode: "SIN", At: "2025-03-10T12:50:00"},
					CarrierCode: "SQ",
					Number:      "529",
				},
				{
					Departure:   amadeus.SegmentPoint{IataCode: "SIN", At: "2025-03-10T14:10:00"},
					Arrival:     amadeus.SegmentPoint{IataCode: "NRT", At: "2025-03-10T22:00:00"},
					CarrierCode: "SQ",
					Number:      "638",
				},
			},
		}},
		Price: amadeus.Price{Currency: "INR", Total: "54000.00"},
	}

	view, ok := BuildView(offer)
	require.True(t, ok)
	assert.Equal(t, "MAA", view.Origin)
	assert.Equal(t, "NRT", view.Destination)
	assert.Equal(t, 1, view.Stops)
	assert.Equal(t, "SQ529", view.FlightNumber)
	assert.Equal(t, "11h 45m", view.Duration)
	assert.Equal(t, "54,000 INR", view.Price)
}

func TestBuildView_NoItinerary(t *testing.T) {
	_, ok := BuildView(amadeus.FlightOffer{ID: "1"})
	assert.False(t, ok)
}
