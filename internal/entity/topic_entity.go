package entity

import (
	"time"

	"github.com/google/uuid"
)

// MaxSampleUtterances bounds the FIFO example list stored per topic.
const MaxSampleUtterances = 10

type Topic struct {
	Id               uuid.UUID
	Name             string
	Description      string
	Keywords         []string
	SampleUtterances []string
	Contributors     []string
	MessageCount     int64
	CreatedAt        time.Time
	UpdatedAt        *time.Time
	DeletedAt        *time.Time
	IsDeleted        bool
}

// AddSampleUtterance appends newest-last, evicting the oldest sample past the
// bound.
func (t *Topic) AddSampleUtterance(text string) {
	if text == "" {
		return
	}
	t.SampleUtterances = append(t.SampleUtterances, text)
	if len(t.SampleUtterances) > MaxSampleUtterances {
		t.SampleUtterances = t.SampleUtterances[len(t.SampleUtterances)-MaxSampleUtterances:]
	}
}

// AddContributor records a contributor once.
func (t *Topic) AddContributor(userRef string) {
	if userRef == "" {
		return
	}
	for _, c := range t.Contributors {
		if c == userRef {
			return
		}
	}
	t.Contributors = append(t.Contributors, userRef)
}
