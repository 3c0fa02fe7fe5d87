package amadeus

// Location is one city suggestion from the reference-data lookup.
// Suggestions are transient; every new lookup supersedes the previous batch.
type Location struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	IataCode string          `json:"iataCode"`
	Address  LocationAddress `json:"address"`
}

type LocationAddress struct {
	CityName    string `json:"cityName"`
	CountryName string `json:"countryName"`
}

// FlightOffer is an offer record from the shopping API. The workflow treats
// it as mostly opaque; only id, price and the first itinerary's segments are
// interpreted. Segments within an itinerary are temporally ordered.
type FlightOffer struct {
	ID          string      `json:"id"`
	Itineraries []Itinerary `json:"itineraries"`
	Price       Price       `json:"price"`
}

type Itinerary struct {
	Duration string    `json:"duration"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Departure   SegmentPoint `json:"departure"`
	Arrival     SegmentPoint `json:"arrival"`
	CarrierCode string       `json:"carrierCode"`
	Number      string       `json:"number"`
	Duration    string       `json:"duration,omitempty"`
}

type SegmentPoint struct {
	IataCode string `json:"iataCode"`
	Terminal string `json:"terminal,omitempty"`
	At       string `json:"at"`
}

type Price struct {
	Currency string `json:"currency"`
	Total    string `json:"total"`
	Base     string `json:"base,omitempty"`
}

// OffersQuery carries the already-validated parameters for an offer search.
type OffersQuery struct {
	OriginLocationCode      string
	DestinationLocationCode string
	DepartureDate           string
	Adults                  int
	CurrencyCode            string
	Max                     int
}

type locationsResponse struct {
	Data []Location `json:"data"`
}

type offersResponse struct {
	Data []FlightOffer `json:"data"`
}
