// Package fusion merges ranked candidate lists from independent retrieval
// strategies into a single ordering using Reciprocal Rank Fusion.
package fusion

import (
	"sort"

	"github.com/google/uuid"
)

// DefaultK is the standard RRF damping constant.
const DefaultK = 60

// RankedHit is a single result from one retrieval strategy. Rank is 1-based
// within that strategy's list; RawScore is kept for observability only and
// never compared across strategies.
type RankedHit struct {
	TopicID  uuid.UUID
	Rank     int
	RawScore float64
}

// Candidate is the fused retrieval record for one topic across all
// strategies that returned it.
type Candidate struct {
	TopicID    uuid.UUID
	FusedScore float64
	// Ranks and RawScores are keyed by strategy name.
	Ranks     map[string]int
	RawScores map[string]float64
}

// Fuse merges per-strategy ranked lists with RRF: each appearance of a topic
// contributes 1/(k+rank) to its fused score, absence from a list contributes
// nothing. Results are sorted by fused score descending; ties keep first-seen
// order, with strategies visited in lexical name order so the output is
// deterministic regardless of map iteration.
func Fuse(lists map[string][]RankedHit, k int) []Candidate {
	if k <= 0 {
		k = DefaultK
	}

	strategies := make([]string, 0, len(lists))
	for name := range lists {
		strategies = append(strategies, name)
	}
	sort.Strings(strategies)

	type aggregate struct {
		candidate Candidate
		firstSeen int
	}

	byTopic := make(map[uuid.UUID]*aggregate)
	order := make([]*aggregate, 0)

	for _, strategy := range strategies {
		for _, hit := range lists[strategy] {
			if hit.Rank < 1 {
				continue
			}
			agg, ok := byTopic[hit.TopicID]
			if !ok {
				agg = &aggregate{
					candidate: Candidate{
						TopicID:   hit.TopicID,
						Ranks:     make(map[string]int),
						RawScores: make(map[string]float64),
					},
					firstSeen: len(order),
				}
				byTopic[hit.TopicID] = agg
				order = append(order, agg)
			}
			agg.candidate.FusedScore += 1.0 / float64(k+hit.Rank)
			agg.candidate.Ranks[strategy] = hit.Rank
			agg.candidate.RawScores[strategy] = hit.RawScore
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].candidate.FusedScore != order[j].candidate.FusedScore {
			return order[i].candidate.FusedScore > order[j].candidate.FusedScore
		}
		return order[i].firstSeen < order[j].firstSeen
	})

	fused := make([]Candidate, len(order))
	for i, agg := range order {
		fused[i] = agg.candidate
	}
	return fused
}
