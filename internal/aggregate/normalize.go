package aggregate

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pkordes/match-results/backend/internal/domain"
)

// dateLayout renders a match timestamp as month/day.
const dateLayout = "01/02"

// Normalizer converts joined entries into display rows.
// Relative times are computed against now() at the moment Normalize runs, so
// normalizing the same entry later yields a different Time.
type Normalizer struct {
	now      func() time.Time
	location *time.Location
}

// NewNormalizer returns a Normalizer that formats dates in loc and measures
// relative times against now. Nil arguments default to time.Now and UTC.
func NewNormalizer(now func() time.Time, loc *time.Location) *Normalizer {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{now: now, location: loc}
}

// Normalize builds the display row for one entry. The caller must have
// filtered out entries whose geocode status is not OK.
func (n *Normalizer) Normalize(e domain.JoinedEntry) domain.DisplayRow {
	at := time.Unix(e.Match.Timestamp, 0)
	return domain.DisplayRow{
		Location:        e.Geocode.FormattedAddress,
		Address:         e.Geocode.FormattedAddress,
		Date:            at.In(n.location).Format(dateLayout),
		Time:            humanize.RelTime(at, n.now(), "ago", "from now"),
		NumberOfMatches: 1,
	}
}

// Aggregate filters, normalizes and merges entries into the final rows.
// Entries without an OK geocode are dropped. The result is never nil.
func (n *Normalizer) Aggregate(entries []domain.JoinedEntry) []domain.DisplayRow {
	candidates := make([]domain.DisplayRow, 0, len(entries))
	for _, e := range entries {
		if !e.Geocode.OK() {
			continue
		}
		candidates = append(candidates, n.Normalize(e))
	}
	return Merge(candidates)
}
