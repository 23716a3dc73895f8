package planner

import (
	"context"
	"strings"

	"chat-topics-be/internal/dto"
	"chat-topics-be/pkg/scoring"
	"chat-topics-be/pkg/textutil"
)

// RulePlanner is the deterministic fallback used when no LLM is configured
// or the LLM's plan could not be parsed. It always gathers context first,
// searches once, then finalizes on the recommendation.
type RulePlanner struct{}

func NewRulePlanner() *RulePlanner {
	return &RulePlanner{}
}

func (p *RulePlanner) Decide(ctx context.Context, obs *Observation) (*dto.ActionPlan, error) {
	if !obs.ContextFetched && obs.Iteration < obs.MaxIterations {
		return &dto.ActionPlan{
			Action:    dto.PlannerActionFetchContext,
			Reasoning: "gathering surrounding messages before searching",
		}, nil
	}

	if !obs.SearchDone && obs.Iteration < obs.MaxIterations {
		return &dto.ActionPlan{
			Action:      dto.PlannerActionSearchTopics,
			SearchQuery: obs.MessageText,
			Reasoning:   "searching the taxonomy with the message text",
		}, nil
	}

	return &dto.ActionPlan{
		Action:    dto.PlannerActionFinalize,
		Finalize:  p.finalize(obs),
		Reasoning: "finalizing on the retrieval recommendation",
	}, nil
}

func (p *RulePlanner) finalize(obs *Observation) *dto.FinalizeDecision {
	rec := obs.Recommendation
	if rec == nil || rec.BestMatch == nil {
		return &dto.FinalizeDecision{
			Decision: dto.DecisionCreate,
			NewTopic: ProposalFromMessage(obs.MessageText),
		}
	}

	best := rec.BestMatch
	switch rec.Action {
	case scoring.ActionAssign:
		return &dto.FinalizeDecision{
			Decision: dto.DecisionAssign,
			TopicId:  best.TopicID.String(),
		}
	case scoring.ActionReview:
		// Mid-band with no judge available: continuity wins. Stay on the
		// channel's current topic if that is the best match, otherwise a
		// new topic is safer than a wrong assignment.
		if obs.CurrentTopicName != "" && bestMatchName(obs) == obs.CurrentTopicName {
			return &dto.FinalizeDecision{
				Decision: dto.DecisionAssign,
				TopicId:  best.TopicID.String(),
			}
		}
		return &dto.FinalizeDecision{
			Decision: dto.DecisionCreate,
			NewTopic: ProposalFromMessage(obs.MessageText),
		}
	default:
		return &dto.FinalizeDecision{
			Decision: dto.DecisionCreate,
			NewTopic: ProposalFromMessage(obs.MessageText),
		}
	}
}

func bestMatchName(obs *Observation) string {
	if obs.Recommendation == nil || obs.Recommendation.BestMatch == nil {
		return ""
	}
	for _, m := range obs.Matches {
		if m.Id == obs.Recommendation.BestMatch.TopicID {
			return m.Name
		}
	}
	return ""
}

// ProposalFromMessage sketches a new topic from the message itself. Keyword
// extraction drives both the name and the keyword list so the topic stays
// findable for similar future messages.
func ProposalFromMessage(text string) *dto.NewTopicProposal {
	keywords := textutil.ExtractKeywords(text)

	name := deriveName(keywords, text)

	return &dto.NewTopicProposal{
		Name:        name,
		Description: "Discussion about: " + truncate(strings.TrimSpace(text), 140),
		Keywords:    keywords,
	}
}

func deriveName(keywords []string, text string) string {
	if len(keywords) == 0 {
		t := truncate(strings.TrimSpace(text), 60)
		if t == "" {
			return "General Discussion"
		}
		return titleize(t)
	}

	n := len(keywords)
	if n > 3 {
		n = 3
	}
	return titleize(strings.Join(keywords[:n], " "))
}

func titleize(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		if len(r) > 0 {
			words[i] = strings.ToUpper(string(r[0])) + string(r[1:])
		}
	}
	return strings.Join(words, " ")
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
