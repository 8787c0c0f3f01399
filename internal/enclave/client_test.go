package enclave_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/match-results/backend/internal/domain"
	"github.com/pkordes/match-results/backend/internal/enclave"
)

func newClient(t *testing.T, h http.HandlerFunc, token string) *enclave.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := enclave.New(srv.URL+"/", token, srv.Client())
	require.NoError(t, err)
	return c
}

func TestFindMatches_OK(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/matches/user-42", r.URL.Path)
		assert.Equal(t, "Bearer s3cret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"matches":[{"lat":40.7,"lng":-74.0,"timestamp":1700000000},{"lat":1.5,"lng":2.5,"timestamp":1700000500}]}`))
	}, "s3cret")

	got, err := c.FindMatches(context.Background(), "user-42")

	require.NoError(t, err)
	assert.Equal(t, []domain.MatchRecord{
		{Lat: 40.7, Lng: -74.0, Timestamp: 1700000000},
		{Lat: 1.5, Lng: 2.5, Timestamp: 1700000500},
	}, got)
}

func TestFindMatches_MissingMatchesIsEmpty(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}, "")

	got, err := c.FindMatches(context.Background(), "u")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFindMatches_NoTokenNoAuthHeader(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"matches":[]}`))
	}, "")

	_, err := c.FindMatches(context.Background(), "u")

	require.NoError(t, err)
}

func TestFindMatches_EscapesUserID(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/matches/a%2Fb", r.URL.RawPath)
		_, _ = w.Write([]byte(`{"matches":[]}`))
	}, "")

	_, err := c.FindMatches(context.Background(), "a/b")

	require.NoError(t, err)
}

func TestFindMatches_Non2xx(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusServiceUnavailable)
	}, "")

	_, err := c.FindMatches(context.Background(), "u")

	require.Error(t, err)
	assert.ErrorContains(t, err, "503")
	assert.ErrorContains(t, err, "upstream down")
}

func TestFindMatches_BadJSON(t *testing.T) {
	c := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}, "")

	_, err := c.FindMatches(context.Background(), "u")

	assert.ErrorContains(t, err, "decode")
}

func TestNew_RejectsNonHTTP(t *testing.T) {
	_, err := enclave.New("ftp://example.com", "", nil)

	assert.Error(t, err)
}
