package domain

// DisplayRow is one aggregated, display-ready line of the results table.
//
// Address always mirrors Location: both come from the same geocoded address.
// Two rows describe the same real-world match when Location, Address and Date
// are equal; Time and NumberOfMatches are not part of that identity.
type DisplayRow struct {
	Location        string `json:"location"`
	Address         string `json:"address"`
	Date            string `json:"date"` // "01/02" month/day
	Time            string `json:"time"` // relative, e.g. "3 hours ago"
	NumberOfMatches int    `json:"numberOfMatches"`
}
