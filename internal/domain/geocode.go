package domain

// GeocodeStatus is the per-coordinate outcome reported by the geocoding service.
// Only GeocodeOK carries a usable address; every other value is a failure code
// that the aggregator drops silently.
type GeocodeStatus string

const (
	GeocodeOK             GeocodeStatus = "OK"
	GeocodeZeroResults    GeocodeStatus = "ZERO_RESULTS"
	GeocodeOverQueryLimit GeocodeStatus = "OVER_QUERY_LIMIT"
	GeocodeRequestDenied  GeocodeStatus = "REQUEST_DENIED"
	GeocodeInvalidRequest GeocodeStatus = "INVALID_REQUEST"
	GeocodeUnknownError   GeocodeStatus = "UNKNOWN_ERROR"
)

// Cacheable reports whether an answer with this status is stable enough to
// store. Quota and transient failures are not.
func (s GeocodeStatus) Cacheable() bool {
	return s == GeocodeOK || s == GeocodeZeroResults
}

// GeocodeResult is the geocoder's answer for one coordinate pair.
// FormattedAddress is empty unless Status is GeocodeOK.
type GeocodeResult struct {
	Status           GeocodeStatus
	FormattedAddress string
}

// OK reports whether the result carries a usable address.
func (r GeocodeResult) OK() bool {
	return r.Status == GeocodeOK
}
