package scoring

import (
	"testing"

	"github.com/google/uuid"

	"chat-topics-be/pkg/fusion"
)

func TestScoreMonotonicity(t *testing.T) {
	scorer := NewScorer(DefaultWeights(), fusion.DefaultK)
	id := uuid.New()

	base := scorer.Score(
		fusion.Candidate{TopicID: id, FusedScore: 1.0 / float64(fusion.DefaultK+5)},
		"postgres migration plan",
		[]string{"postgres", "migration"},
		TopicContext{Name: "Database Migration", Keywords: []string{"postgres"}, MessageCount: 10},
		3,
	)

	// Raising the fused score with everything else fixed must not lower
	// confidence.
	better := scorer.Score(
		fusion.Candidate{TopicID: id, FusedScore: 3.0 / float64(fusion.DefaultK+1)},
		"postgres migration plan",
		[]string{"postgres", "migration"},
		TopicContext{Name: "Database Migration", Keywords: []string{"postgres"}, MessageCount: 10},
		3,
	)
	if better.Confidence < base.Confidence {
		t.Errorf("higher fused score lowered confidence: %v -> %v", base.Confidence, better.Confidence)
	}

	// Same for activity.
	active := scorer.Score(
		fusion.Candidate{TopicID: id, FusedScore: 1.0 / float64(fusion.DefaultK+5)},
		"postgres migration plan",
		[]string{"postgres", "migration"},
		TopicContext{Name: "Database Migration", Keywords: []string{"postgres"}, MessageCount: 500},
		3,
	)
	if active.Confidence < base.Confidence {
		t.Errorf("higher activity lowered confidence: %v -> %v", base.Confidence, active.Confidence)
	}

	// And keyword overlap.
	overlapping := scorer.Score(
		fusion.Candidate{TopicID: id, FusedScore: 1.0 / float64(fusion.DefaultK+5)},
		"postgres migration plan",
		[]string{"postgres", "migration"},
		TopicContext{Name: "Database Migration", Keywords: []string{"postgres", "migration"}, MessageCount: 10},
		3,
	)
	if overlapping.Confidence < base.Confidence {
		t.Errorf("higher keyword overlap lowered confidence: %v -> %v", base.Confidence, overlapping.Confidence)
	}
}

func TestScoreBounded(t *testing.T) {
	scorer := NewScorer(DefaultWeights(), fusion.DefaultK)
	match := scorer.Score(
		fusion.Candidate{TopicID: uuid.New(), FusedScore: 10},
		"anything at all",
		[]string{"anything"},
		TopicContext{Name: "anything at all", Keywords: []string{"anything"}, MessageCount: 1 << 30},
		1,
	)
	if match.Confidence < 0 || match.Confidence > 1 {
		t.Errorf("confidence %v out of [0,1]", match.Confidence)
	}
	for _, f := range []float64{match.Factors.FusedScore, match.Factors.KeywordOverlap, match.Factors.NameSimilarity, match.Factors.Activity} {
		if f < 0 || f > 1 {
			t.Errorf("factor %v out of [0,1]", f)
		}
	}
}

func TestScoreReasons(t *testing.T) {
	scorer := NewScorer(DefaultWeights(), fusion.DefaultK)
	match := scorer.Score(
		fusion.Candidate{TopicID: uuid.New(), FusedScore: 3.0 / float64(fusion.DefaultK+1)},
		"database migration",
		[]string{"database", "migration"},
		TopicContext{Name: "Database Migration", Keywords: []string{"database", "migration"}, MessageCount: 100},
		3,
	)

	want := []string{ReasonSemanticMatch, ReasonKeywordMatch, ReasonNameMatch, ReasonActiveTopic}
	if len(match.Reasons) != len(want) {
		t.Fatalf("reasons = %v, want %v", match.Reasons, want)
	}
	for i, r := range want {
		if match.Reasons[i] != r {
			t.Errorf("reasons[%d] = %q, want %q", i, match.Reasons[i], r)
		}
	}
}

func TestRecommendBoundaries(t *testing.T) {
	rec := NewRecommender(DefaultAssignThreshold, DefaultReviewThreshold)
	id := uuid.New()

	tests := []struct {
		confidence float64
		want       string
	}{
		{confidence: 0.80, want: ActionAssign},
		{confidence: 0.79999, want: ActionReview},
		{confidence: 0.50, want: ActionReview},
		{confidence: 0.4999, want: ActionCreate},
	}

	for _, tt := range tests {
		got := rec.Recommend([]ScoredMatch{{TopicID: id, Confidence: tt.confidence}}, nil)
		if got.Action != tt.want {
			t.Errorf("confidence %v: action = %q, want %q", tt.confidence, got.Action, tt.want)
		}
		if got.Confidence != tt.confidence {
			t.Errorf("confidence %v not carried through, got %v", tt.confidence, got.Confidence)
		}
		if got.Reasoning == "" {
			t.Errorf("confidence %v: empty reasoning", tt.confidence)
		}
	}
}

func TestRecommendEmpty(t *testing.T) {
	rec := NewRecommender(0, 0)
	got := rec.Recommend(nil, nil)
	if got.Action != ActionCreate {
		t.Errorf("empty matches: action = %q, want %q", got.Action, ActionCreate)
	}
	if got.Confidence != 0 {
		t.Errorf("empty matches: confidence = %v, want 0", got.Confidence)
	}
	if got.BestMatch != nil {
		t.Errorf("empty matches should carry no best match")
	}
}

func TestRecommendNamesBestMatch(t *testing.T) {
	id := uuid.New()
	rec := NewRecommender(0, 0)
	got := rec.Recommend(
		[]ScoredMatch{{TopicID: id, Confidence: 0.9}},
		map[string]string{id.String(): "Database Migration"},
	)
	if got.BestMatch == nil || got.BestMatch.TopicID != id {
		t.Fatalf("best match not carried: %+v", got)
	}
	if got.Reasoning == "" || got.Action != ActionAssign {
		t.Errorf("unexpected recommendation: %+v", got)
	}
}
