// Package geocode resolves coordinates to human-readable addresses.
//
// Client talks to a Google-style reverse geocoding endpoint. RateLimited and
// Cached wrap any Resolver so the fan-out stays within provider quotas and
// repeated coordinates are answered locally.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pkordes/match-results/backend/internal/domain"
)

// DefaultURL is the Google Geocoding API JSON endpoint.
const DefaultURL = "https://maps.googleapis.com/maps/api/geocode/json"

// Resolver resolves one coordinate pair. A non-OK status is returned as a
// result, not an error; errors mean the lookup itself could not be made.
type Resolver interface {
	Resolve(ctx context.Context, lat, lng float64) (domain.GeocodeResult, error)
}

// Client is the HTTP reverse geocoder.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
}

// NewClient constructs a Client for endpoint. Returns an error when the
// endpoint is not an absolute http(s) URL.
func NewClient(endpoint, apiKey string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("geocode.NewClient: parse endpoint: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("geocode.NewClient: endpoint must be http(s), got %q", endpoint)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{endpoint: endpoint, apiKey: apiKey, http: httpClient}, nil
}

// geocodeResponse is the subset of the provider response we read.
type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// Resolve performs one reverse geocode. An OK status with no results is
// reported as ZERO_RESULTS since it carries no address.
func (c *Client) Resolve(ctx context.Context, lat, lng float64) (domain.GeocodeResult, error) {
	q := url.Values{}
	q.Set("latlng", formatCoord(lat)+","+formatCoord(lng))
	if c.apiKey != "" {
		q.Set("key", c.apiKey)
	}

	sep := "?"
	if strings.Contains(c.endpoint, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+sep+q.Encode(), nil)
	if err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("geocode.Client.Resolve: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("geocode.Client.Resolve: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.GeocodeResult{}, fmt.Errorf("geocode.Client.Resolve: unexpected status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return domain.GeocodeResult{}, fmt.Errorf("geocode.Client.Resolve: decode: %w", err)
	}

	status := domain.GeocodeStatus(out.Status)
	if status != domain.GeocodeOK {
		return domain.GeocodeResult{Status: status}, nil
	}
	if len(out.Results) == 0 || out.Results[0].FormattedAddress == "" {
		return domain.GeocodeResult{Status: domain.GeocodeZeroResults}, nil
	}
	return domain.GeocodeResult{Status: domain.GeocodeOK, FormattedAddress: out.Results[0].FormattedAddress}, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
