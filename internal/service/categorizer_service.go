package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"chat-topics-be/internal/config"
	"chat-topics-be/internal/dto"
	"chat-topics-be/internal/entity"
	"chat-topics-be/internal/pkg/logger"
	"chat-topics-be/internal/repository/memory"
	"chat-topics-be/internal/repository/specification"
	"chat-topics-be/internal/repository/unitofwork"
	"chat-topics-be/pkg/dedup"
	"chat-topics-be/pkg/events"
	pktNats "chat-topics-be/pkg/nats"
	"chat-topics-be/pkg/planner"
	"chat-topics-be/pkg/scoring"
	"chat-topics-be/pkg/search"
	"chat-topics-be/pkg/store"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ErrTopicNotFound is returned when a finalized assignment points at a
// topic that no longer exists.
var ErrTopicNotFound = errors.New("topic not found")

// RetrievalExecutor is the slice of pkg/search the loop needs.
type RetrievalExecutor interface {
	Execute(ctx context.Context, uow unitofwork.UnitOfWork, text string) (*search.Result, error)
}

type ICategorizerService interface {
	Categorize(ctx context.Context, msg *dto.IncomingMessage) (*dto.CategorizationResult, error)
}

type categorizerService struct {
	uowFactory       unitofwork.RepositoryFactory
	executor         RetrievalExecutor
	scorer           *scoring.Scorer
	recommender      *scoring.Recommender
	decider          planner.Planner
	stateRepo        *memory.StateRepository
	catalog          *TopicCatalog
	publisherService IPublisherService
	eventPublisher   *pktNats.Publisher
	log              logger.ILogger
	cfg              config.CategorizeConfig
	tracer           trace.Tracer
}

func NewCategorizerService(
	uowFactory unitofwork.RepositoryFactory,
	executor RetrievalExecutor,
	scorer *scoring.Scorer,
	recommender *scoring.Recommender,
	decider planner.Planner,
	stateRepo *memory.StateRepository,
	catalog *TopicCatalog,
	publisherService IPublisherService,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
	cfg config.CategorizeConfig,
) ICategorizerService {
	return &categorizerService{
		uowFactory:       uowFactory,
		executor:         executor,
		scorer:           scorer,
		recommender:      recommender,
		decider:          decider,
		stateRepo:        stateRepo,
		catalog:          catalog,
		publisherService: publisherService,
		eventPublisher:   eventPublisher,
		log:              log,
		cfg:              cfg,
		tracer:           otel.Tracer("chat-topics-be/categorizer"),
	}
}

// searchRound keeps the scored output of the latest SEARCH_TOPICS action so
// finalize and fallback can reuse it.
type searchRound struct {
	matches        []scoring.ScoredMatch
	names          map[string]string
	recommendation scoring.Recommendation
}

// appliedDecision is what apply() reports back after the transaction commits.
type appliedDecision struct {
	topicId    uuid.UUID
	topicName  string
	outcome    string
	confidence float64
	reasoning  string
	createdNew bool
}

func (c *categorizerService) Categorize(ctx context.Context, msg *dto.IncomingMessage) (*dto.CategorizationResult, error) {
	if msg == nil || strings.TrimSpace(msg.Text) == "" {
		return nil, nil
	}

	start := time.Now()
	ctx, span := c.tracer.Start(ctx, "categorize_message",
		trace.WithAttributes(
			attribute.String("chat.channel", msg.Channel),
			attribute.String("chat.message_ref", msg.MessageRef),
		))
	defer span.End()

	uow := c.uowFactory.NewUnitOfWork(ctx)

	// Replay guard: a message that already carries a topic keeps it.
	existing, err := uow.ChatMessageRepository().FindOne(ctx,
		specification.ByChannel{Channel: msg.Channel},
		specification.ByMessageRef{MessageRef: msg.MessageRef},
	)
	if err != nil {
		return nil, fmt.Errorf("lookup message: %w", err)
	}
	if existing != nil && existing.TopicId != nil {
		return c.replayResult(ctx, uow, msg, existing, start)
	}
	// The row is written before the loop so a redelivery of the same message
	// hits the replay guard; topic linkage happens later, inside apply's
	// transaction.
	if existing == nil {
		record := &entity.ChatMessage{
			Id:         uuid.New(),
			MessageRef: msg.MessageRef,
			Channel:    msg.Channel,
			ThreadTs:   msg.ThreadTs,
			UserRef:    msg.UserRef,
			Text:       msg.Text,
			Ts:         msg.Ts,
			PostedAt:   time.Now(),
			CreatedAt:  time.Now(),
		}
		if err := uow.ChatMessageRepository().Create(ctx, record); err != nil {
			return nil, fmt.Errorf("persist message: %w", err)
		}
	}

	state := c.stateRepo.Get(msg.Channel)

	obs := &planner.Observation{
		MessageText:    msg.Text,
		Channel:        msg.Channel,
		MaxIterations:  c.cfg.MaxIterations,
		RecentActivity: renderActivity(state),
	}
	if state.CurrentTopic != nil {
		obs.CurrentTopicName = state.CurrentTopic.Name
	}

	var final *dto.FinalizeDecision
	var round *searchRound
	fellBack := false
	iterations := 0

	for i := 1; i <= c.cfg.MaxIterations; i++ {
		iterations = i
		obs.Iteration = i

		plan, err := c.decider.Decide(ctx, obs)
		if err != nil {
			// A failed plan still consumes the iteration.
			c.log.Warn("categorizer", "planner error", map[string]interface{}{
				"channel": msg.Channel, "iteration": i, "error": err.Error(),
			})
			continue
		}

		switch plan.Action {
		case dto.PlannerActionFetchContext:
			if !obs.ContextFetched {
				c.fetchContext(ctx, uow, msg, obs)
			}
			obs.ContextFetched = true

		case dto.PlannerActionSearchTopics:
			query := plan.SearchQuery
			if query == "" {
				query = msg.Text
			}
			r, err := c.searchTopics(ctx, uow, query)
			if err != nil {
				c.log.Warn("categorizer", "retrieval failed", map[string]interface{}{
					"channel": msg.Channel, "iteration": i, "error": err.Error(),
				})
				continue
			}
			round = r
			state.LastQuery = query
			obs.SearchDone = true
			obs.Recommendation = &r.recommendation
			obs.Matches = summarize(r)

		case dto.PlannerActionFinalize:
			if plan.Finalize == nil {
				c.log.Warn("categorizer", "finalize plan without decision", map[string]interface{}{
					"channel": msg.Channel, "iteration": i,
				})
				continue
			}
			final = plan.Finalize

		default:
			c.log.Warn("categorizer", "unknown planner action", map[string]interface{}{
				"action": plan.Action,
			})
		}

		if final != nil {
			break
		}
	}

	if final == nil {
		final = c.fallbackDecision(msg, state)
		fellBack = true
		c.publishEvent(ctx, events.New(events.TypeFallbackUsed, map[string]interface{}{
			"channel":     msg.Channel,
			"message_ref": msg.MessageRef,
			"decision":    final.Decision,
		}))
	}

	applied, err := c.apply(ctx, msg, final, round, fellBack)
	if err != nil {
		return nil, err
	}

	// State mutates only after the transaction is in.
	state.RecordActivity(store.ActivityEntry{
		MessageID: msg.MessageRef,
		TopicID:   applied.topicId,
		Text:      msg.Text,
		Ts:        msg.Ts,
	})
	state.SetCurrentTopic(applied.topicId, applied.topicName)
	c.stateRepo.Save(state)

	c.publishEvent(ctx, events.New(events.TypeMessageCategorized, map[string]interface{}{
		"channel":     msg.Channel,
		"message_ref": msg.MessageRef,
		"topic_id":    applied.topicId.String(),
		"topic_name":  applied.topicName,
		"decision":    applied.outcome,
	}))

	span.SetAttributes(
		attribute.String("chat.topic_id", applied.topicId.String()),
		attribute.String("chat.decision", applied.outcome),
		attribute.Int("chat.iterations", iterations),
	)

	topicId := applied.topicId
	return &dto.CategorizationResult{
		MessageRef:       msg.MessageRef,
		Channel:          msg.Channel,
		TopicId:          &topicId,
		TopicName:        applied.topicName,
		Decision:         applied.outcome,
		Confidence:       applied.confidence,
		Reasoning:        applied.reasoning,
		IterationCount:   iterations,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// replayResult rebuilds the result for a message categorized earlier.
func (c *categorizerService) replayResult(
	ctx context.Context,
	uow unitofwork.UnitOfWork,
	msg *dto.IncomingMessage,
	existing *entity.ChatMessage,
	start time.Time,
) (*dto.CategorizationResult, error) {
	topicName := ""
	topic, err := uow.TopicRepository().FindOne(ctx, specification.ByID{ID: *existing.TopicId})
	if err == nil && topic != nil {
		topicName = topic.Name
	}
	return &dto.CategorizationResult{
		MessageRef:       msg.MessageRef,
		Channel:          msg.Channel,
		TopicId:          existing.TopicId,
		TopicName:        topicName,
		Decision:         dto.DecisionOutcomeAssigned,
		Confidence:       1.0,
		Reasoning:        "message was already categorized",
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// fetchContext pulls channel history and thread ancestry concurrently.
// Failures degrade to whatever arrived; the planner sees an empty context
// rather than an error.
func (c *categorizerService) fetchContext(ctx context.Context, uow unitofwork.UnitOfWork, msg *dto.IncomingMessage, obs *planner.Observation) {
	var (
		wg       sync.WaitGroup
		history  []*entity.ChatMessage
		thread   []*entity.ChatMessage
		histErr  error
		threadEr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		history, histErr = uow.ChatMessageRepository().MessagesBefore(ctx, msg.Channel, msg.Ts, c.cfg.ContextWindow)
	}()

	if msg.ThreadTs != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			thread, threadEr = uow.ChatMessageRepository().ThreadMessages(ctx, msg.Channel, msg.ThreadTs)
		}()
	}
	wg.Wait()

	if histErr != nil {
		c.log.Warn("categorizer", "channel history fetch failed", map[string]interface{}{"error": histErr.Error()})
	}
	if threadEr != nil {
		c.log.Warn("categorizer", "thread fetch failed", map[string]interface{}{"error": threadEr.Error()})
	}

	seen := make(map[string]bool)
	var lines []string

	// Thread ancestry first (already oldest first), then channel history
	// (newest first, reversed).
	for _, m := range thread {
		if m.MessageRef == msg.MessageRef || seen[m.MessageRef] {
			continue
		}
		seen[m.MessageRef] = true
		lines = append(lines, renderContextLine(m))
	}
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.MessageRef == msg.MessageRef || seen[m.MessageRef] {
			continue
		}
		seen[m.MessageRef] = true
		lines = append(lines, renderContextLine(m))
	}

	obs.ContextMessages = lines
}

func renderContextLine(m *entity.ChatMessage) string {
	user := m.UserRef
	if user == "" {
		user = "unknown"
	}
	return fmt.Sprintf("[%s] %s: %s", m.Ts, user, m.Text)
}

func renderActivity(state *store.ConversationState) []string {
	n := len(state.RecentActivity)
	if n == 0 {
		return nil
	}
	// Last five entries, newest last.
	from := 0
	if n > 5 {
		from = n - 5
	}
	lines := make([]string, 0, n-from)
	for _, e := range state.RecentActivity[from:] {
		lines = append(lines, fmt.Sprintf("%q -> topic %s", e.Text, e.TopicID))
	}
	return lines
}

// searchTopics runs one retrieval round and scores the fused candidates
// against the live taxonomy.
func (c *categorizerService) searchTopics(ctx context.Context, uow unitofwork.UnitOfWork, query string) (*searchRound, error) {
	res, err := c.executor.Execute(ctx, uow, query)
	if err != nil {
		return nil, err
	}

	topics, err := c.catalog.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("load taxonomy: %w", err)
	}
	byId := make(map[uuid.UUID]*entity.Topic, len(topics))
	for _, t := range topics {
		byId[t.Id] = t
	}

	names := make(map[string]string)
	matches := make([]scoring.ScoredMatch, 0, len(res.Candidates))
	for _, cand := range res.Candidates {
		topic, ok := byId[cand.TopicID]
		if !ok {
			continue // deleted between retrieval and scoring
		}
		match := c.scorer.Score(cand, res.Query.Text, res.Query.Keywords, scoring.TopicContext{
			Name:         topic.Name,
			Keywords:     topic.Keywords,
			MessageCount: topic.MessageCount,
		}, res.StrategiesRun)
		matches = append(matches, match)
		names[topic.Id.String()] = topic.Name
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})

	return &searchRound{
		matches:        matches,
		names:          names,
		recommendation: c.recommender.Recommend(matches, names),
	}, nil
}

func summarize(r *searchRound) []planner.TopicSummary {
	out := make([]planner.TopicSummary, 0, len(r.matches))
	for _, m := range r.matches {
		out = append(out, planner.TopicSummary{
			Id:         m.TopicID,
			Name:       r.names[m.TopicID.String()],
			Confidence: m.Confidence,
			Reasons:    m.Reasons,
		})
	}
	return out
}

// fallbackDecision never fails: short messages ride the channel's active
// topic, everything else becomes a catch-all topic.
func (c *categorizerService) fallbackDecision(msg *dto.IncomingMessage, state *store.ConversationState) *dto.FinalizeDecision {
	text := strings.TrimSpace(msg.Text)
	if utf8.RuneCountInString(text) < c.cfg.ShortMessageRunes && state.CurrentTopic != nil {
		return &dto.FinalizeDecision{
			Decision: dto.DecisionAssign,
			TopicId:  state.CurrentTopic.ID.String(),
		}
	}
	return &dto.FinalizeDecision{
		Decision: dto.DecisionCreate,
		NewTopic: planner.ProposalFromMessage(msg.Text),
	}
}

// apply commits the decision in one transaction. Topic creation passes the
// duplicate validator first; a use_existing verdict reroutes to assignment.
func (c *categorizerService) apply(
	ctx context.Context,
	msg *dto.IncomingMessage,
	final *dto.FinalizeDecision,
	round *searchRound,
	fellBack bool,
) (*appliedDecision, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = uow.Rollback()
		}
	}()

	applied := &appliedDecision{}

	var topic *entity.Topic
	switch final.Decision {
	case dto.DecisionAssign:
		id, err := uuid.Parse(final.TopicId)
		if err != nil {
			return nil, fmt.Errorf("invalid topic id %q: %w", final.TopicId, err)
		}
		topic, err = uow.TopicRepository().FindOne(ctx, specification.ByID{ID: id})
		if err != nil {
			return nil, fmt.Errorf("load topic: %w", err)
		}
		if topic == nil {
			return nil, fmt.Errorf("%w: %s", ErrTopicNotFound, id)
		}
		// The planner may refine the topic's description while assigning.
		if final.NewTopic != nil {
			if final.NewTopic.Name != "" {
				topic.Name = final.NewTopic.Name
			}
			if final.NewTopic.Description != "" {
				topic.Description = final.NewTopic.Description
			}
		}
		applied.outcome = dto.DecisionOutcomeAssigned
		if fellBack {
			applied.outcome = dto.DecisionOutcomeFallbackAssign
			applied.reasoning = "short message assigned to the channel's active topic"
		} else {
			applied.reasoning = "assigned to best matching topic"
		}
		applied.confidence = matchConfidence(round, topic.Id)

	case dto.DecisionCreate:
		existing, err := uow.TopicRepository().FindAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("load taxonomy: %w", err)
		}
		verdict := dedup.Validate(dedup.Proposal{
			Name:        final.NewTopic.Name,
			Description: final.NewTopic.Description,
			Keywords:    final.NewTopic.Keywords,
		}, toDedupTopics(existing))

		if !verdict.ShouldCreate && len(verdict.Suggestions) > 0 {
			dup := verdict.Suggestions[0]
			topic, err = uow.TopicRepository().FindOne(ctx, specification.ByID{ID: dup.TopicID})
			if err != nil {
				return nil, fmt.Errorf("load duplicate topic: %w", err)
			}
			if topic == nil {
				return nil, fmt.Errorf("%w: %s", ErrTopicNotFound, dup.TopicID)
			}
			applied.outcome = dto.DecisionOutcomeAssigned
			applied.confidence = dup.Combined
			applied.reasoning = fmt.Sprintf("proposed topic duplicates %q, assigned instead", dup.TopicName)
		} else {
			now := time.Now()
			topic = &entity.Topic{
				Id:          uuid.New(),
				Name:        final.NewTopic.Name,
				Description: final.NewTopic.Description,
				Keywords:    final.NewTopic.Keywords,
				CreatedAt:   now,
			}
			applied.createdNew = true
			applied.outcome = dto.DecisionOutcomeCreated
			if fellBack {
				applied.outcome = dto.DecisionOutcomeFallbackCreated
			}
			applied.confidence = verdict.Confidence
			applied.reasoning = fmt.Sprintf("created new topic %q", topic.Name)
		}

	default:
		return nil, fmt.Errorf("unknown decision %q", final.Decision)
	}

	topic.MessageCount++
	topic.AddSampleUtterance(msg.Text)
	topic.AddContributor(msg.UserRef)

	if applied.createdNew {
		if err := uow.TopicRepository().Create(ctx, topic); err != nil {
			return nil, fmt.Errorf("create topic: %w", err)
		}
	} else {
		now := time.Now()
		topic.UpdatedAt = &now
		if err := uow.TopicRepository().Update(ctx, topic); err != nil {
			return nil, fmt.Errorf("update topic: %w", err)
		}
	}

	if err := uow.ChatMessageRepository().AssignTopic(ctx, msg.Channel, msg.MessageRef, topic.Id); err != nil {
		return nil, fmt.Errorf("link message: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("commit decision: %w", err)
	}
	committed = true

	c.catalog.Invalidate()

	if applied.createdNew {
		c.requestTopicEmbedding(ctx, topic.Id)
		c.publishEvent(ctx, events.New(events.TypeTopicCreated, map[string]interface{}{
			"topic_id":   topic.Id.String(),
			"topic_name": topic.Name,
			"channel":    msg.Channel,
		}))
	}

	applied.topicId = topic.Id
	applied.topicName = topic.Name
	return applied, nil
}

func matchConfidence(round *searchRound, topicId uuid.UUID) float64 {
	if round == nil {
		return 0
	}
	for _, m := range round.matches {
		if m.TopicID == topicId {
			return m.Confidence
		}
	}
	return 0
}

func toDedupTopics(topics []*entity.Topic) []dedup.ExistingTopic {
	out := make([]dedup.ExistingTopic, 0, len(topics))
	for _, t := range topics {
		out = append(out, dedup.ExistingTopic{
			ID:          t.Id,
			Name:        t.Name,
			Description: t.Description,
			Keywords:    t.Keywords,
		})
	}
	return out
}

// requestTopicEmbedding enqueues profile embedding for a topic. Best effort:
// the upkeep consumer also refreshes stale profiles.
func (c *categorizerService) requestTopicEmbedding(ctx context.Context, topicId uuid.UUID) {
	if c.publisherService == nil {
		return
	}
	payload, err := json.Marshal(dto.PublishEmbedTopicMessage{TopicId: topicId})
	if err != nil {
		return
	}
	if err := c.publisherService.Publish(ctx, payload); err != nil {
		c.log.Warn("categorizer", "failed to enqueue topic embedding", map[string]interface{}{
			"topic_id": topicId.String(), "error": err.Error(),
		})
	}
}

func (c *categorizerService) publishEvent(ctx context.Context, event events.BaseEvent) {
	if c.eventPublisher == nil {
		return
	}
	if err := c.eventPublisher.PublishEvent(ctx, event); err != nil {
		c.log.Warn("categorizer", "event publish failed", map[string]interface{}{
			"event": event.EventType(), "error": err.Error(),
		})
	}
}
