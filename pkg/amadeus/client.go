package amadeus

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"flightbook/pkg/logger"
)

const (
	locationsPath = "/v1/reference-data/locations"
	offersPath    = "/v2/shopping/flight-offers"
)

// Client issues authenticated calls against the flight aggregation API.
// Tokens come from the TokenCache; a 401 invalidates the cached token and
// the request is retried exactly once with a fresh one.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     *TokenCache
	logger     logger.Client
}

func NewClient(httpClient *http.Client, baseURL string, tokens *TokenCache, log logger.Client) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		tokens:     tokens,
		logger:     log,
	}
}

// Locations looks up city suggestions for a free-text keyword.
func (c *Client) Locations(ctx context.Context, keyword string) ([]Location, error) {
	query := url.Values{}
	query.Set("keyword", keyword)
	query.Set("subType", "CITY")

	var resp locationsResponse
	if err := c.get(ctx, locationsPath, query, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// SearchFlightOffers runs an offer search. An empty result set is returned
// as an empty slice, not an error; the caller decides how to render it.
func (c *Client) SearchFlightOffers(ctx context.Context, q OffersQuery) ([]FlightOffer, error) {
	query := url.Values{}
	query.Set("originLocationCode", q.OriginLocationCode)
	query.Set("destinationLocationCode", q.DestinationLocationCode)
	query.Set("departureDate", q.DepartureDate)
	query.Set("adults", strconv.Itoa(q.Adults))
	query.Set("currencyCode", q.CurrencyCode)
	query.Set("max", strconv.Itoa(q.Max))

	var resp offersResponse
	if err := c.get(ctx, offersPath, query, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.do(ctx, path, query, false)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response for %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, query url.Values, retried bool) ([]byte, error) {
	token, err := c.tokens.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	fullURL := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("external api call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusUnauthorized && !retried:
		// Token presumably expired server-side; retry once with a fresh one.
		c.logger.Warn("token rejected, retrying with fresh token", logger.Field{Key: "path", Value: path})
		c.tokens.Invalidate()
		return c.do(ctx, path, query, true)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: %s", ErrRateLimited, string(body))
	default:
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
}
