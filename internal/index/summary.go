package index

import "time"

// TermSummary describes one category or tag sub-index.
type TermSummary struct {
	Name   string    `json:"name"`
	Count  int       `json:"count"`
	Latest time.Time `json:"latest"`
}
