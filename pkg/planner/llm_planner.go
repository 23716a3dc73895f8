package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"chat-topics-be/internal/dto"
	"chat-topics-be/pkg/llm"

	"github.com/go-playground/validator/v10"
)

// LLMPlanner lets a language model steer the categorization loop. The
// model's reply must be a single JSON action plan; anything else is a
// PlanParseError so the caller can fall back to deterministic rules.
type LLMPlanner struct {
	llmProvider llm.LLMProvider
	composer    *PromptComposer
	validate    *validator.Validate
}

func NewLLMPlanner(llmProvider llm.LLMProvider) *LLMPlanner {
	return &LLMPlanner{
		llmProvider: llmProvider,
		composer:    NewPromptComposer(),
		validate:    validator.New(),
	}
}

// PlanParseError marks a model reply that could not be turned into a
// valid action plan.
type PlanParseError struct {
	Response string
	Err      error
}

func (e *PlanParseError) Error() string {
	return fmt.Sprintf("plan extraction failed: %v", e.Err)
}

func (e *PlanParseError) Unwrap() error {
	return e.Err
}

func (p *LLMPlanner) Decide(ctx context.Context, obs *Observation) (*dto.ActionPlan, error) {
	prompt := p.composer.Compose(obs)

	response, err := p.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return nil, fmt.Errorf("llm generation failed: %w", err)
	}

	plan, err := p.extractActionPlan(response)
	if err != nil {
		return nil, &PlanParseError{Response: response, Err: err}
	}

	return plan, nil
}

// extractActionPlan parses structured response into an action plan.
func (p *LLMPlanner) extractActionPlan(response string) (*dto.ActionPlan, error) {
	jsonContent := extractJSON(response)

	var plan dto.ActionPlan
	if err := json.Unmarshal([]byte(jsonContent), &plan); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if err := p.validate.Struct(&plan); err != nil {
		return nil, fmt.Errorf("plan validation failed: %w", err)
	}
	if plan.Finalize != nil {
		if err := p.validate.Struct(plan.Finalize); err != nil {
			return nil, fmt.Errorf("finalize validation failed: %w", err)
		}
	}

	return &plan, nil
}

// extractJSON isolates JSON content from the response.
func extractJSON(response string) string {
	startIdx := strings.Index(response, "{")
	endIdx := strings.LastIndex(response, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return response
	}

	return response[startIdx : endIdx+1]
}

// PromptComposer structures the reasoning framework for the planner model.
type PromptComposer struct{}

func NewPromptComposer() *PromptComposer {
	return &PromptComposer{}
}

func (c *PromptComposer) Compose(obs *Observation) string {
	var prompt strings.Builder

	c.writeSystemRole(&prompt)
	c.writeActionDefinitions(&prompt)
	c.writeObservation(&prompt, obs)
	c.writeReasoningFramework(&prompt, obs)
	c.writeOutputStructure(&prompt)

	return prompt.String()
}

func (c *PromptComposer) writeSystemRole(prompt *strings.Builder) {
	prompt.WriteString("<system_role>\n")
	prompt.WriteString("You are a topic router for a team chat workspace.\n")
	prompt.WriteString("Each short chat message must end up attached to exactly one topic in a growing taxonomy.\n")
	prompt.WriteString("You decide, step by step, whether to gather more context, search the taxonomy, or commit to a final decision.\n")
	prompt.WriteString("</system_role>\n\n")
}

func (c *PromptComposer) writeActionDefinitions(prompt *strings.Builder) {
	prompt.WriteString("<action_definitions>\n")
	prompt.WriteString("Choose ONE action per turn.\n\n")

	prompt.WriteString("<action name=\"FETCH_CONTEXT\">\n")
	prompt.WriteString("  When to use:\n")
	prompt.WriteString("    - The message is short, deictic, or meaningless on its own (\"yes\", \"same here\", \"that one\")\n")
	prompt.WriteString("    - You have not seen the surrounding conversation yet\n")
	prompt.WriteString("  Effect: the surrounding channel/thread messages are fetched and shown to you next turn\n")
	prompt.WriteString("  Do NOT repeat this action once context has been fetched\n")
	prompt.WriteString("</action>\n\n")

	prompt.WriteString("<action name=\"SEARCH_TOPICS\">\n")
	prompt.WriteString("  When to use:\n")
	prompt.WriteString("    - You need candidate topics for this message and have not searched yet\n")
	prompt.WriteString("    - A previous search used a poor query and you want to rephrase once\n")
	prompt.WriteString("  Requires: search_query - the message text, enriched with context terms if helpful\n")
	prompt.WriteString("  Effect: a multi-signal retrieval round runs and you see scored candidates next turn\n")
	prompt.WriteString("</action>\n\n")

	prompt.WriteString("<action name=\"FINALIZE\">\n")
	prompt.WriteString("  When to use:\n")
	prompt.WriteString("    - The scored candidates make the right home for the message clear\n")
	prompt.WriteString("    - You are on the last allowed iteration (you MUST finalize then)\n")
	prompt.WriteString("  Requires: finalize object with either\n")
	prompt.WriteString("    decision=\"assign\" and topic_id from the candidate list, or\n")
	prompt.WriteString("    decision=\"create\" and new_topic {name, description, keywords}\n")
	prompt.WriteString("  Guidance: assign when a candidate has high confidence; create only when nothing fits.\n")
	prompt.WriteString("  Mid-band candidates (confidence between the review and assign thresholds) are yours to judge:\n")
	prompt.WriteString("  prefer assigning to the conversation's current topic when the message continues it.\n")
	prompt.WriteString("</action>\n")
	prompt.WriteString("</action_definitions>\n\n")
}

func (c *PromptComposer) writeObservation(prompt *strings.Builder, obs *Observation) {
	prompt.WriteString("<observation>\n")

	prompt.WriteString(fmt.Sprintf("<iteration current=\"%d\" max=\"%d\"/>\n\n", obs.Iteration, obs.MaxIterations))

	prompt.WriteString("<message>\n")
	prompt.WriteString(fmt.Sprintf("Channel: %s\n", obs.Channel))
	prompt.WriteString(fmt.Sprintf("Text: %q\n", obs.MessageText))
	prompt.WriteString("</message>\n\n")

	prompt.WriteString("<conversation_state>\n")
	if obs.CurrentTopicName != "" {
		prompt.WriteString(fmt.Sprintf("The channel's conversation is currently on topic: %q\n", obs.CurrentTopicName))
	} else {
		prompt.WriteString("No topic is currently active in this channel.\n")
	}
	if len(obs.RecentActivity) > 0 {
		prompt.WriteString("Recent routed messages:\n")
		for _, line := range obs.RecentActivity {
			prompt.WriteString("  " + line + "\n")
		}
	}
	prompt.WriteString("</conversation_state>\n\n")

	prompt.WriteString("<fetched_context>\n")
	if !obs.ContextFetched {
		prompt.WriteString("Surrounding messages have NOT been fetched yet.\n")
	} else if len(obs.ContextMessages) == 0 {
		prompt.WriteString("Context was fetched but the channel has no other recent messages.\n")
	} else {
		prompt.WriteString("Surrounding messages (oldest first):\n")
		for _, msg := range obs.ContextMessages {
			prompt.WriteString("  " + msg + "\n")
		}
	}
	prompt.WriteString("</fetched_context>\n\n")

	prompt.WriteString("<retrieval>\n")
	if !obs.SearchDone {
		prompt.WriteString("The taxonomy has NOT been searched yet.\n")
	} else if len(obs.Matches) == 0 {
		prompt.WriteString("Search ran but no existing topic matched the message.\n")
	} else {
		prompt.WriteString("Scored candidates (best first):\n")
		for _, m := range obs.Matches {
			prompt.WriteString(fmt.Sprintf("  topic_id=%s name=%q confidence=%.2f reasons=%s\n",
				m.Id, m.Name, m.Confidence, strings.Join(m.Reasons, ",")))
		}
		if obs.Recommendation != nil {
			prompt.WriteString(fmt.Sprintf("System recommendation: %s (confidence %.2f) - %s\n",
				obs.Recommendation.Action, obs.Recommendation.Confidence, obs.Recommendation.Reasoning))
		}
	}
	prompt.WriteString("</retrieval>\n")

	prompt.WriteString("</observation>\n\n")
}

func (c *PromptComposer) writeReasoningFramework(prompt *strings.Builder, obs *Observation) {
	prompt.WriteString("<reasoning_framework>\n")
	prompt.WriteString("1. Is the message understandable on its own? If not and context is unfetched, FETCH_CONTEXT.\n")
	prompt.WriteString("2. Has the taxonomy been searched? If not, SEARCH_TOPICS with the best query you can form.\n")
	prompt.WriteString("3. With candidates in hand, weigh confidence, the reasons, and conversation continuity.\n")
	prompt.WriteString("4. FINALIZE: assign to a listed topic_id, or create a new topic with a short reusable name\n")
	prompt.WriteString("   (name the subject, not this one message: \"Database Migration\", not \"Postgres question from Bob\").\n")
	if obs.Iteration >= obs.MaxIterations {
		prompt.WriteString("THIS IS THE LAST ITERATION. You MUST respond with FINALIZE.\n")
	}
	prompt.WriteString("</reasoning_framework>\n\n")
}

func (c *PromptComposer) writeOutputStructure(prompt *strings.Builder) {
	prompt.WriteString("<output_format>\n")
	prompt.WriteString("Respond with ONLY valid JSON in this exact structure:\n\n")
	prompt.WriteString("{\n")
	prompt.WriteString("  \"action\": \"FETCH_CONTEXT\" | \"SEARCH_TOPICS\" | \"FINALIZE\",\n")
	prompt.WriteString("  \"search_query\": \"query text (only if action is SEARCH_TOPICS, otherwise null)\",\n")
	prompt.WriteString("  \"finalize\": {\n")
	prompt.WriteString("    \"decision\": \"assign\" | \"create\",\n")
	prompt.WriteString("    \"topic_id\": \"uuid of chosen candidate (assign only)\",\n")
	prompt.WriteString("    \"new_topic\": {\"name\": \"...\", \"description\": \"...\", \"keywords\": [\"...\"]} (create only)\n")
	prompt.WriteString("  } (only if action is FINALIZE, otherwise null),\n")
	prompt.WriteString("  \"reasoning\": \"One sentence explaining the choice\"\n")
	prompt.WriteString("}\n\n")
	prompt.WriteString("IMPORTANT: Output ONLY the JSON. No preamble, no explanation outside the JSON.\n")
	prompt.WriteString("</output_format>\n")
}
