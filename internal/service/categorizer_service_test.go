package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chat-topics-be/internal/config"
	"chat-topics-be/internal/dto"
	"chat-topics-be/internal/entity"
	"chat-topics-be/internal/repository/contract"
	"chat-topics-be/internal/repository/memory"
	"chat-topics-be/internal/repository/specification"
	"chat-topics-be/internal/repository/unitofwork"
	"chat-topics-be/pkg/fusion"
	"chat-topics-be/pkg/planner"
	"chat-topics-be/pkg/scoring"
	"chat-topics-be/pkg/search"
	"chat-topics-be/pkg/textutil"

	"github.com/google/uuid"
)

// --- fakes ---------------------------------------------------------------

type noopLogger struct{}

func (noopLogger) Debug(string, string, map[string]interface{}) {}
func (noopLogger) Info(string, string, map[string]interface{})  {}
func (noopLogger) Warn(string, string, map[string]interface{})  {}
func (noopLogger) Error(string, string, map[string]interface{}) {}
func (noopLogger) Sync() error                                  { return nil }

// memStore is shared in-memory persistence behind the fake unit of work.
type memStore struct {
	topics   map[uuid.UUID]*entity.Topic
	messages map[string]*entity.ChatMessage // keyed by channel+"/"+messageRef
}

func newMemStore() *memStore {
	return &memStore{
		topics:   make(map[uuid.UUID]*entity.Topic),
		messages: make(map[string]*entity.ChatMessage),
	}
}

func (s *memStore) addTopic(t *entity.Topic) {
	s.topics[t.Id] = t
}

type memTopicRepo struct{ s *memStore }

func (r *memTopicRepo) Create(ctx context.Context, t *entity.Topic) error {
	r.s.topics[t.Id] = t
	return nil
}

func (r *memTopicRepo) Update(ctx context.Context, t *entity.Topic) error {
	if _, ok := r.s.topics[t.Id]; !ok {
		return errors.New("topic missing")
	}
	r.s.topics[t.Id] = t
	return nil
}

func (r *memTopicRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.s.topics, id)
	return nil
}

func (r *memTopicRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Topic, error) {
	for _, spec := range specs {
		if byId, ok := spec.(specification.ByID); ok {
			if t, found := r.s.topics[byId.ID]; found {
				return t, nil
			}
		}
	}
	return nil, nil
}

func (r *memTopicRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Topic, error) {
	out := make([]*entity.Topic, 0, len(r.s.topics))
	for _, t := range r.s.topics {
		out = append(out, t)
	}
	return out, nil
}

func (r *memTopicRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.s.topics)), nil
}

func (r *memTopicRepo) SearchLexical(ctx context.Context, query string, limit int) ([]*contract.ScoredTopic, error) {
	return nil, nil
}

type memMessageRepo struct{ s *memStore }

func msgKey(channel, ref string) string { return channel + "/" + ref }

func (r *memMessageRepo) Create(ctx context.Context, m *entity.ChatMessage) error {
	r.s.messages[msgKey(m.Channel, m.MessageRef)] = m
	return nil
}

func (r *memMessageRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatMessage, error) {
	var channel, ref string
	for _, spec := range specs {
		switch sp := spec.(type) {
		case specification.ByChannel:
			channel = sp.Channel
		case specification.ByMessageRef:
			ref = sp.MessageRef
		}
	}
	if m, ok := r.s.messages[msgKey(channel, ref)]; ok {
		return m, nil
	}
	return nil, nil
}

func (r *memMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	return nil, nil
}

func (r *memMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.s.messages)), nil
}

func (r *memMessageRepo) MessagesBefore(ctx context.Context, channel, ts string, count int) ([]*entity.ChatMessage, error) {
	var out []*entity.ChatMessage
	for _, m := range r.s.messages {
		if m.Channel == channel && m.Ts < ts {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *memMessageRepo) ThreadMessages(ctx context.Context, channel, threadTs string) ([]*entity.ChatMessage, error) {
	return nil, nil
}

func (r *memMessageRepo) AssignTopic(ctx context.Context, channel, ref string, topicId uuid.UUID) error {
	m, ok := r.s.messages[msgKey(channel, ref)]
	if !ok {
		return errors.New("message missing")
	}
	m.TopicId = &topicId
	return nil
}

type memEmbeddingRepo struct{}

func (memEmbeddingRepo) Upsert(ctx context.Context, e *entity.TopicEmbedding) error { return nil }
func (memEmbeddingRepo) DeleteByTopicId(ctx context.Context, id uuid.UUID) error    { return nil }
func (memEmbeddingRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.TopicEmbedding, error) {
	return nil, nil
}
func (memEmbeddingRepo) SearchSimilar(ctx context.Context, emb []float32, limit int, threshold float64) ([]*contract.ScoredTopic, error) {
	return nil, nil
}
func (memEmbeddingRepo) SearchHybrid(ctx context.Context, query string, emb []float32, limit int) ([]*contract.ScoredTopic, error) {
	return nil, nil
}

type memUow struct{ s *memStore }

func (u *memUow) Begin(ctx context.Context) error { return nil }
func (u *memUow) Commit() error                   { return nil }
func (u *memUow) Rollback() error                 { return nil }
func (u *memUow) TopicRepository() contract.TopicRepository {
	return &memTopicRepo{s: u.s}
}
func (u *memUow) TopicEmbeddingRepository() contract.TopicEmbeddingRepository {
	return memEmbeddingRepo{}
}
func (u *memUow) ChatMessageRepository() contract.ChatMessageRepository {
	return &memMessageRepo{s: u.s}
}

type memFactory struct{ s *memStore }

func (f *memFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &memUow{s: f.s}
}

// scriptedExecutor returns a canned retrieval result for every query.
type scriptedExecutor struct {
	result *search.Result
	err    error
	calls  int
}

func (e *scriptedExecutor) Execute(ctx context.Context, uow unitofwork.UnitOfWork, text string) (*search.Result, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	res := *e.result
	res.Query = search.Query{
		Text:     textutil.Normalize(text),
		Keywords: textutil.ExtractKeywords(text),
	}
	return &res, nil
}

// scriptedPlanner replays a fixed list of plans.
type scriptedPlanner struct {
	plans []*dto.ActionPlan
	calls int
}

func (p *scriptedPlanner) Decide(ctx context.Context, obs *planner.Observation) (*dto.ActionPlan, error) {
	if p.calls >= len(p.plans) {
		return p.plans[len(p.plans)-1], nil
	}
	plan := p.plans[p.calls]
	p.calls++
	return plan, nil
}

// --- harness -------------------------------------------------------------

func testConfig() config.CategorizeConfig {
	return config.CategorizeConfig{
		MaxIterations:     5,
		TopK:              10,
		RRFK:              fusion.DefaultK,
		AssignThreshold:   scoring.DefaultAssignThreshold,
		ReviewThreshold:   scoring.DefaultReviewThreshold,
		ContextWindow:     10,
		ShortMessageRunes: 10,
		StateTTL:          time.Hour,
		TopicCacheTTL:     time.Minute,
	}
}

func newService(store *memStore, decider planner.Planner, executor RetrievalExecutor) (ICategorizerService, *memory.StateRepository) {
	factory := &memFactory{s: store}
	cfg := testConfig()
	stateRepo := memory.NewStateRepository(cfg.StateTTL)
	svc := NewCategorizerService(
		factory,
		executor,
		scoring.NewScorer(scoring.DefaultWeights(), cfg.RRFK),
		scoring.NewRecommender(cfg.AssignThreshold, cfg.ReviewThreshold),
		decider,
		stateRepo,
		NewTopicCatalog(factory, cfg.TopicCacheTTL),
		nil,
		nil,
		noopLogger{},
		cfg,
	)
	return svc, stateRepo
}

func incoming(ref, channel, text string) *dto.IncomingMessage {
	return &dto.IncomingMessage{
		MessageRef: ref,
		Channel:    channel,
		UserRef:    "U42",
		Text:       text,
		Ts:         "1724200000.000100",
	}
}

// --- tests ---------------------------------------------------------------

func TestCategorizeEmptyMessage(t *testing.T) {
	svc, _ := newService(newMemStore(), planner.NewRulePlanner(), &scriptedExecutor{result: &search.Result{}})

	result, err := svc.Categorize(context.Background(), incoming("m1", "C1", "   "))
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	if result != nil {
		t.Fatalf("result = %+v, want nil for empty text", result)
	}
}

func TestCategorizeIterationBoundFallsBack(t *testing.T) {
	store := newMemStore()
	// A planner that never finalizes.
	stuck := &scriptedPlanner{plans: []*dto.ActionPlan{{Action: dto.PlannerActionFetchContext}}}
	svc, _ := newService(store, stuck, &scriptedExecutor{result: &search.Result{}})

	result, err := svc.Categorize(context.Background(), incoming("m1", "C1", "we need to sort out the testing strategy for the billing service"))
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	if result.IterationCount != 5 {
		t.Errorf("iterations = %d, want 5", result.IterationCount)
	}
	if result.Decision != dto.DecisionOutcomeFallbackCreated {
		t.Errorf("decision = %q, want fallback_created", result.Decision)
	}
	if len(store.topics) != 1 {
		t.Fatalf("topics = %d, want 1 catch-all", len(store.topics))
	}
	msg := store.messages["C1/m1"]
	if msg == nil || msg.TopicId == nil || *msg.TopicId != *result.TopicId {
		t.Fatalf("message not linked to topic: %+v", msg)
	}
}

func TestCategorizeShortMessageFallbackAssigns(t *testing.T) {
	store := newMemStore()
	topic := &entity.Topic{Id: uuid.New(), Name: "Database Migration", CreatedAt: time.Now()}
	store.addTopic(topic)

	stuck := &scriptedPlanner{plans: []*dto.ActionPlan{{Action: dto.PlannerActionFetchContext}}}
	svc, stateRepo := newService(store, stuck, &scriptedExecutor{result: &search.Result{}})

	state := stateRepo.Get("C1")
	state.SetCurrentTopic(topic.Id, topic.Name)
	stateRepo.Save(state)

	result, err := svc.Categorize(context.Background(), incoming("m2", "C1", "+1 agreed"))
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	if result.Decision != dto.DecisionOutcomeFallbackAssign {
		t.Errorf("decision = %q, want fallback_assigned", result.Decision)
	}
	if *result.TopicId != topic.Id {
		t.Errorf("topic = %s, want %s", result.TopicId, topic.Id)
	}
	if topic.MessageCount != 1 {
		t.Errorf("message count = %d, want 1", topic.MessageCount)
	}
}

func TestCategorizeEndToEndAssign(t *testing.T) {
	store := newMemStore()
	topic := &entity.Topic{
		Id:           uuid.New(),
		Name:         "Database Migration",
		Description:  "Schema and data migration work",
		Keywords:     []string{"postgres", "migration"},
		MessageCount: 60,
		CreatedAt:    time.Now(),
	}
	store.addTopic(topic)

	// Rank 1 in all three strategies.
	executor := &scriptedExecutor{result: &search.Result{
		Candidates: fusion.Fuse(map[string][]fusion.RankedHit{
			"lexical": {{TopicID: topic.Id, Rank: 1}},
			"vector":  {{TopicID: topic.Id, Rank: 1}},
			"hybrid":  {{TopicID: topic.Id, Rank: 1}},
		}, fusion.DefaultK),
		StrategiesRun: 3,
	}}

	svc, stateRepo := newService(store, planner.NewRulePlanner(), executor)

	result, err := svc.Categorize(context.Background(), incoming("m3", "C1", "let's migrate to postgres"))
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	if result.Decision != dto.DecisionOutcomeAssigned {
		t.Fatalf("decision = %q, want assigned (confidence %.3f, reasoning %q)",
			result.Decision, result.Confidence, result.Reasoning)
	}
	if *result.TopicId != topic.Id {
		t.Fatalf("topic = %s, want %s", result.TopicId, topic.Id)
	}
	if result.Confidence < 0.8 {
		t.Errorf("confidence = %.3f, want >= 0.8", result.Confidence)
	}
	if topic.MessageCount != 61 {
		t.Errorf("message count = %d, want 61", topic.MessageCount)
	}
	if len(topic.SampleUtterances) != 1 || !strings.Contains(topic.SampleUtterances[0], "migrate") {
		t.Errorf("sample utterances = %v", topic.SampleUtterances)
	}

	state := stateRepo.Get("C1")
	if state.CurrentTopic == nil || state.CurrentTopic.ID != topic.Id {
		t.Errorf("state current topic = %+v", state.CurrentTopic)
	}
	if len(state.RecentActivity) != 1 {
		t.Errorf("recent activity = %d entries", len(state.RecentActivity))
	}
}

func TestCategorizeCreateReroutedByDuplicate(t *testing.T) {
	store := newMemStore()
	existing := &entity.Topic{
		Id:          uuid.New(),
		Name:        "Database Migration",
		Description: "Schema and data migration work",
		Keywords:    []string{"postgres", "migration"},
		CreatedAt:   time.Now(),
	}
	store.addTopic(existing)

	creator := &scriptedPlanner{plans: []*dto.ActionPlan{{
		Action: dto.PlannerActionFinalize,
		Finalize: &dto.FinalizeDecision{
			Decision: dto.DecisionCreate,
			NewTopic: &dto.NewTopicProposal{
				Name:        "Database Migrations",
				Description: "Schema and data migration work",
				Keywords:    []string{"postgres", "migration"},
			},
		},
	}}}
	svc, _ := newService(store, creator, &scriptedExecutor{result: &search.Result{}})

	result, err := svc.Categorize(context.Background(), incoming("m4", "C1", "planning the flyway rollout for next sprint"))
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	if result.Decision != dto.DecisionOutcomeAssigned {
		t.Fatalf("decision = %q, want assigned (dedup reroute)", result.Decision)
	}
	if *result.TopicId != existing.Id {
		t.Fatalf("topic = %s, want existing %s", result.TopicId, existing.Id)
	}
	if len(store.topics) != 1 {
		t.Fatalf("topics = %d, want 1 (no duplicate created)", len(store.topics))
	}
}

func TestCategorizeCreateReroutedInMergeBand(t *testing.T) {
	store := newMemStore()
	existing := &entity.Topic{
		Id:        uuid.New(),
		Name:      "Database Migration",
		Keywords:  []string{"postgres", "migration"},
		CreatedAt: time.Now(),
	}
	store.addTopic(existing)

	// Similar enough to block creation but below the use_existing band.
	creator := &scriptedPlanner{plans: []*dto.ActionPlan{{
		Action: dto.PlannerActionFinalize,
		Finalize: &dto.FinalizeDecision{
			Decision: dto.DecisionCreate,
			NewTopic: &dto.NewTopicProposal{
				Name:     "Database Migration Plan",
				Keywords: []string{"postgres"},
			},
		},
	}}}
	svc, _ := newService(store, creator, &scriptedExecutor{result: &search.Result{}})

	result, err := svc.Categorize(context.Background(), incoming("m7", "C1", "drafting the postgres cutover plan"))
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	if result.Decision != dto.DecisionOutcomeAssigned {
		t.Fatalf("decision = %q, want assigned (near-duplicate blocks creation)", result.Decision)
	}
	if *result.TopicId != existing.Id {
		t.Fatalf("topic = %s, want existing %s", result.TopicId, existing.Id)
	}
	if len(store.topics) != 1 {
		t.Fatalf("topics = %d, want 1 (no near-duplicate created)", len(store.topics))
	}
}

func TestCategorizeCreateOnEmptyTaxonomy(t *testing.T) {
	store := newMemStore()
	creator := &scriptedPlanner{plans: []*dto.ActionPlan{{
		Action: dto.PlannerActionFinalize,
		Finalize: &dto.FinalizeDecision{
			Decision: dto.DecisionCreate,
			NewTopic: &dto.NewTopicProposal{
				Name:     "Kubernetes Capacity",
				Keywords: []string{"kubernetes", "capacity"},
			},
		},
	}}}
	svc, _ := newService(store, creator, &scriptedExecutor{result: &search.Result{}})

	result, err := svc.Categorize(context.Background(), incoming("m5", "C1", "the staging cluster keeps running out of pod capacity"))
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	if result.Decision != dto.DecisionOutcomeCreated {
		t.Fatalf("decision = %q, want created", result.Decision)
	}
	if result.Confidence != 1.0 {
		t.Errorf("confidence = %.2f, want 1.0 on empty taxonomy", result.Confidence)
	}
	if result.TopicName != "Kubernetes Capacity" {
		t.Errorf("topic name = %q", result.TopicName)
	}
}

func TestCategorizeReplayIsIdempotent(t *testing.T) {
	store := newMemStore()
	topic := &entity.Topic{Id: uuid.New(), Name: "Incident Response", CreatedAt: time.Now()}
	store.addTopic(topic)
	store.messages["C1/m6"] = &entity.ChatMessage{
		Id:         uuid.New(),
		MessageRef: "m6",
		Channel:    "C1",
		Text:       "paging the on-call",
		TopicId:    &topic.Id,
	}

	// Planner would create a topic, but the replay guard must win.
	creator := &scriptedPlanner{plans: []*dto.ActionPlan{{
		Action: dto.PlannerActionFinalize,
		Finalize: &dto.FinalizeDecision{
			Decision: dto.DecisionCreate,
			NewTopic: &dto.NewTopicProposal{Name: "Should Not Exist"},
		},
	}}}
	svc, _ := newService(store, creator, &scriptedExecutor{result: &search.Result{}})

	result, err := svc.Categorize(context.Background(), incoming("m6", "C1", "paging the on-call"))
	if err != nil {
		t.Fatalf("Categorize() error = %v", err)
	}
	if *result.TopicId != topic.Id {
		t.Fatalf("topic = %s, want original %s", result.TopicId, topic.Id)
	}
	if len(store.topics) != 1 {
		t.Fatalf("topics = %d, replay must not create", len(store.topics))
	}
	if creator.calls != 0 {
		t.Errorf("planner consulted %d times on replay, want 0", creator.calls)
	}
}
