package search

import (
	"sort"
	"sync"
	"time"

	"github.com/jongmin-chung/jamie/internal/metrics"
)

const (
	popularQueryLimit  = 10
	noResultQueryLimit = 10
)

// QueryStats aggregates served queries. Safe for concurrent use.
type QueryStats struct {
	mu       sync.Mutex
	total    int
	took     time.Duration
	counts   map[string]int
	noResult []string // most recent last, distinct
}

func NewQueryStats() *QueryStats {
	return &QueryStats{counts: make(map[string]int)}
}

// Record counts one query. Queries are keyed by their normalized form;
// queries that normalize to nothing are ignored.
func (s *QueryStats) Record(query string, took time.Duration, results int) {
	key := Normalize(query)
	if key == "" {
		return
	}

	outcome := "hit"
	if results == 0 {
		outcome = "miss"
	}
	metrics.SearchQueriesTotal.WithLabelValues(outcome).Inc()
	metrics.SearchDuration.Observe(took.Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.total++
	s.took += took
	s.counts[key]++
	if results == 0 {
		for i, q := range s.noResult {
			if q == key {
				s.noResult = append(s.noResult[:i], s.noResult[i+1:]...)
				break
			}
		}
		s.noResult = append(s.noResult, key)
		if len(s.noResult) > noResultQueryLimit {
			s.noResult = s.noResult[len(s.noResult)-noResultQueryLimit:]
		}
	}
}

// StatsSnapshot is the search-stats payload.
type StatsSnapshot struct {
	TotalQueries int `json:"totalQueries"`
	// AverageResponseTime is in milliseconds.
	AverageResponseTime float64  `json:"averageResponseTime"`
	PopularQueries      []string `json:"popularQueries"`
	NoResultQueries     []string `json:"noResultQueries"`
}

// Snapshot returns popular queries by count then text, and no-result
// queries newest first.
func (s *QueryStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		TotalQueries:    s.total,
		PopularQueries:  []string{},
		NoResultQueries: make([]string, 0, len(s.noResult)),
	}
	if s.total > 0 {
		snap.AverageResponseTime = float64(s.took.Microseconds()) / 1000 / float64(s.total)
	}

	for q := range s.counts {
		snap.PopularQueries = append(snap.PopularQueries, q)
	}
	sort.Slice(snap.PopularQueries, func(i, j int) bool {
		a, b := snap.PopularQueries[i], snap.PopularQueries[j]
		if s.counts[a] != s.counts[b] {
			return s.counts[a] > s.counts[b]
		}
		return a < b
	})
	if len(snap.PopularQueries) > popularQueryLimit {
		snap.PopularQueries = snap.PopularQueries[:popularQueryLimit]
	}

	for i := len(s.noResult) - 1; i >= 0; i-- {
		snap.NoResultQueries = append(snap.NoResultQueries, s.noResult[i])
	}
	return snap
}
