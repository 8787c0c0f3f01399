// Package enclave is the client for the remote matching service.
// It returns the raw match records for a user and knows nothing about
// geocoding or aggregation.
package enclave

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkordes/match-results/backend/internal/domain"
)

// maxErrorBody bounds how much of a failed response is echoed into the error.
const maxErrorBody = 512

// Client calls GET {baseURL}/matches/{userID}.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New constructs a Client. token, when non-empty, is sent as a bearer token.
// Returns an error if baseURL is not an absolute http(s) URL.
func New(baseURL, token string, httpClient *http.Client) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("enclave.New: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("enclave.New: base url must be http(s), got %q", baseURL)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}, nil
}

// findMatchesResponse is the wire shape of the matching service response.
type findMatchesResponse struct {
	Matches []domain.MatchRecord `json:"matches"`
}

// FindMatches returns the match records for userID. A missing or null
// "matches" field is treated as an empty list. Transport failures and
// non-2xx responses are returned as errors.
func (c *Client) FindMatches(ctx context.Context, userID string) ([]domain.MatchRecord, error) {
	endpoint := c.baseURL + "/matches/" + url.PathEscape(userID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("enclave.Client.FindMatches: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enclave.Client.FindMatches: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("enclave.Client.FindMatches: unexpected status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out findMatchesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("enclave.Client.FindMatches: decode: %w", err)
	}
	if out.Matches == nil {
		return []domain.MatchRecord{}, nil
	}
	return out.Matches, nil
}
