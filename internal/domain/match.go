// Package domain contains the core data types for the match results service.
// This package has zero internal dependencies and is imported by every other
// internal package (aggregate, enclave, geocode, repo, service, handler).
package domain

// MatchRecord is one raw match returned by the matching service.
// Timestamp is in Unix seconds.
type MatchRecord struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Timestamp int64   `json:"timestamp"`
}

// JoinedEntry pairs a MatchRecord with the geocode answer for its coordinates.
// Index is the record's position in the list returned by the matching service
// and is the only link between the two halves.
type JoinedEntry struct {
	Index   int
	Match   MatchRecord
	Geocode GeocodeResult
}
