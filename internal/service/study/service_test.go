package study

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"elenchus/internal/config"
	"elenchus/internal/domain"
	"elenchus/internal/domain/models"
	"elenchus/internal/service/ai"
)

// fakeStore is an in-memory Store for orchestrator tests.
type fakeStore struct {
	participants   map[string]*models.Participant
	scenarios      map[string]*models.Scenario
	turns          map[string][]models.ConversationTurn
	questionnaires map[string]*models.QuestionnaireResponse
	nextID         int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		participants:   make(map[string]*models.Participant),
		scenarios:      make(map[string]*models.Scenario),
		turns:          make(map[string][]models.ConversationTurn),
		questionnaires: make(map[string]*models.QuestionnaireResponse),
	}
}

func (f *fakeStore) CreateParticipant(_ context.Context, p *models.Participant) error {
	if _, ok := f.participants[p.ID]; ok {
		return nil
	}
	cp := *p
	f.participants[p.ID] = &cp
	return nil
}

func (f *fakeStore) GetParticipant(_ context.Context, id string) (*models.Participant, error) {
	p, ok := f.participants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ListParticipants(_ context.Context) ([]models.Participant, error) {
	out := make([]models.Participant, 0, len(f.participants))
	for _, p := range f.participants {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeStore) MarkAbandoned(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for _, p := range f.participants {
		if p.Status == models.StatusActive && p.StartTime.Before(before) {
			p.Status = models.StatusAbandoned
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) CreateScenario(_ context.Context, s *models.Scenario) error {
	if _, ok := f.scenarios[s.ParticipantID]; ok {
		return domain.ErrConflict
	}
	f.nextID++
	s.ID = f.nextID
	cp := *s
	f.scenarios[s.ParticipantID] = &cp
	return nil
}

func (f *fakeStore) GetScenario(_ context.Context, participantID string) (*models.Scenario, error) {
	s, ok := f.scenarios[participantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) AppendTurn(_ context.Context, t *models.ConversationTurn) error {
	f.nextID++
	t.ID = f.nextID
	f.turns[t.ParticipantID] = append(f.turns[t.ParticipantID], *t)
	return nil
}

func (f *fakeStore) ListTurns(_ context.Context, participantID string) ([]models.ConversationTurn, error) {
	return append([]models.ConversationTurn(nil), f.turns[participantID]...), nil
}

func (f *fakeStore) CountTurns(_ context.Context, participantID string) (int, error) {
	return len(f.turns[participantID]), nil
}

func (f *fakeStore) SubmitQuestionnaire(_ context.Context, q *models.QuestionnaireResponse) error {
	if _, ok := f.questionnaires[q.ParticipantID]; ok {
		return domain.ErrAlreadyCompleted
	}
	p, ok := f.participants[q.ParticipantID]
	if !ok {
		return domain.ErrNotFound
	}
	cp := *q
	f.questionnaires[q.ParticipantID] = &cp
	p.Status = models.StatusCompleted
	end := q.CompletedAt
	p.EndTime = &end
	return nil
}

func (f *fakeStore) GetQuestionnaire(_ context.Context, participantID string) (*models.QuestionnaireResponse, error) {
	q, ok := f.questionnaires[participantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (f *fakeStore) Close() error { return nil }

// scriptedProvider pops canned replies in order; an empty script fails
// transiently.
type scriptedProvider struct {
	replies []string
	calls   int
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Generate(_ context.Context, _ string, _ *ai.Request) (string, error) {
	p.calls++
	if len(p.replies) == 0 {
		return "", &ai.TransientError{Err: errors.New("no reply scripted")}
	}
	reply := p.replies[0]
	p.replies = p.replies[1:]
	return reply, nil
}

func newTestService(t *testing.T, store *fakeStore, provider ai.Provider) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	keys, err := ai.NewKeyring([]string{"test-key"}, time.Minute, 1, 3)
	if err != nil {
		t.Fatalf("NewKeyring: %v", err)
	}
	gateway := ai.NewGateway(provider, keys, time.Second, 1, logger)
	return NewService(store, gateway, config.DefaultStudy(), logger)
}

func validSubmission() *QuestionnaireSubmission {
	return &QuestionnaireSubmission{
		Age:                  30,
		Education:            "Bachelor's degree",
		CTExperience:         "Some prior experience",
		EasyToUse:            4,
		FeltConfident:        4,
		UseAgain:             5,
		Engaging:             4,
		NaturalFlow:          3,
		EncouragedReflection: 5,
		MultiplePerspectives: 4,
		CriticalThinkingWays: "It made me question my assumptions.",
		LearnedSomething:     "Yes, about stakeholder trade-offs.",
		Application:          "Workplace decisions",
		Valuable:             4,
		Recommend:            5,
	}
}

func TestBeginCreatesParticipantAndScenario(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{replies: []string{
		"A city council weighs a facial recognition rollout.",
		"What assumptions underlie the council's position?",
	}}
	svc := newTestService(t, store, provider)

	session, err := svc.Begin(context.Background(), "")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	if session.Participant.ID == "" {
		t.Fatal("expected a minted participant ID")
	}
	if session.State != models.StateScenarioGenerated {
		t.Fatalf("state = %q, want %q", session.State, models.StateScenarioGenerated)
	}
	if session.Scenario == nil || session.Scenario.ScenarioText == "" {
		t.Fatal("expected a generated scenario")
	}
	if session.Scenario.InitialQuestion != "What assumptions underlie the council's position?" {
		t.Fatalf("initial question = %q", session.Scenario.InitialQuestion)
	}
	if provider.calls != 2 {
		t.Fatalf("provider calls = %d, want 2", provider.calls)
	}
}

func TestBeginIsIdempotent(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{replies: []string{"Scenario.", "Question?"}}
	svc := newTestService(t, store, provider)

	first, err := svc.Begin(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	second, err := svc.Begin(context.Background(), "p1")
	if err != nil {
		t.Fatalf("second Begin: %v", err)
	}

	if provider.calls != 2 {
		t.Fatalf("provider calls = %d, want 2 (no regeneration)", provider.calls)
	}
	if first.Scenario.ID != second.Scenario.ID {
		t.Fatal("resumed session has a different scenario")
	}
}

func TestBeginGenerationFailureLeavesNoScenario(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &scriptedProvider{}) // fails transiently

	_, err := svc.Begin(context.Background(), "p1")
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("Begin error = %v, want ErrGenerationUnavailable", err)
	}

	// The participant row survives; a retried Begin picks up from there.
	if _, err := store.GetParticipant(context.Background(), "p1"); err != nil {
		t.Fatalf("participant row missing after failed Begin: %v", err)
	}
	if _, err := store.GetScenario(context.Background(), "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected no scenario row, got err=%v", err)
	}
}

func TestConverseAppendsTurn(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{replies: []string{"Scenario.", "Question?", "Why do you think that?"}}
	svc := newTestService(t, store, provider)

	if _, err := svc.Begin(context.Background(), "p1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	reply, err := svc.Converse(context.Background(), "p1", "I think privacy matters most.")
	if err != nil {
		t.Fatalf("Converse: %v", err)
	}
	if reply != "Why do you think that?" {
		t.Fatalf("reply = %q", reply)
	}

	turns, _ := store.ListTurns(context.Background(), "p1")
	if len(turns) != 1 {
		t.Fatalf("turns = %d, want 1", len(turns))
	}
	if turns[0].UserMessage != "I think privacy matters most." || turns[0].AIResponse != reply {
		t.Fatalf("turn not recorded as one complete exchange: %+v", turns[0])
	}
}

func TestConverseGenerationFailurePersistsNothing(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{replies: []string{"Scenario.", "Question?"}}
	svc := newTestService(t, store, provider)

	if _, err := svc.Begin(context.Background(), "p1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	_, err := svc.Converse(context.Background(), "p1", "Hello")
	if !errors.Is(err, domain.ErrGenerationUnavailable) {
		t.Fatalf("Converse error = %v, want ErrGenerationUnavailable", err)
	}

	turns, _ := store.ListTurns(context.Background(), "p1")
	if len(turns) != 0 {
		t.Fatalf("turns = %d after failed generation, want 0", len(turns))
	}
}

func TestConverseRejectsEmptyMessage(t *testing.T) {
	svc := newTestService(t, newFakeStore(), &scriptedProvider{})

	_, err := svc.Converse(context.Background(), "p1", "   ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Converse error = %v, want ErrValidation", err)
	}
}

func TestConverseRequiresScenario(t *testing.T) {
	store := newFakeStore()
	store.participants["p1"] = &models.Participant{ID: "p1", Status: models.StatusActive}
	svc := newTestService(t, store, &scriptedProvider{replies: []string{"reply"}})

	_, err := svc.Converse(context.Background(), "p1", "Hello")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Converse error = %v, want ErrValidation", err)
	}
}

func TestCompleteRecordsQuestionnaireOnce(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{replies: []string{
		"Scenario.", "Question?", "Why?", `{"ai_score": 3.2}`,
	}}
	svc := newTestService(t, store, provider)

	ctx := context.Background()
	if _, err := svc.Begin(ctx, "p1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := svc.Converse(ctx, "p1", "My view is..."); err != nil {
		t.Fatalf("Converse: %v", err)
	}

	response, err := svc.Complete(ctx, "p1", validSubmission())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if response.Score != 3.2 {
		t.Fatalf("score = %v, want 3.2", response.Score)
	}

	p, _ := store.GetParticipant(ctx, "p1")
	if p.Status != models.StatusCompleted {
		t.Fatalf("status = %q, want completed", p.Status)
	}
	if p.EndTime == nil {
		t.Fatal("end time not set on completion")
	}

	_, err = svc.Complete(ctx, "p1", validSubmission())
	if !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("second Complete error = %v, want ErrAlreadyCompleted", err)
	}
}

func TestCompleteScoringFailureUsesNeutralScore(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{replies: []string{"Scenario.", "Question?", "Why?"}}
	svc := newTestService(t, store, provider)

	ctx := context.Background()
	if _, err := svc.Begin(ctx, "p1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := svc.Converse(ctx, "p1", "My view is..."); err != nil {
		t.Fatalf("Converse: %v", err)
	}

	response, err := svc.Complete(ctx, "p1", validSubmission())
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if response.Score != neutralScore {
		t.Fatalf("score = %v, want neutral %v", response.Score, neutralScore)
	}
}

func TestCompleteValidation(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{replies: []string{"Scenario.", "Question?"}}
	svc := newTestService(t, store, provider)

	ctx := context.Background()
	if _, err := svc.Begin(ctx, "p1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}

	bad := validSubmission()
	bad.EasyToUse = 9 // outside the Likert range

	_, err := svc.Complete(ctx, "p1", bad)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("Complete error = %v, want ErrValidation", err)
	}
	if _, err := store.GetQuestionnaire(ctx, "p1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("questionnaire written despite validation failure: err=%v", err)
	}
}

func TestConverseAfterCompletion(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{replies: []string{
		"Scenario.", "Question?", "Why?", `{"ai_score": 2.0}`,
	}}
	svc := newTestService(t, store, provider)

	ctx := context.Background()
	if _, err := svc.Begin(ctx, "p1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := svc.Converse(ctx, "p1", "Hi"); err != nil {
		t.Fatalf("Converse: %v", err)
	}
	if _, err := svc.Complete(ctx, "p1", validSubmission()); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	_, err := svc.Converse(ctx, "p1", "One more thing")
	if !errors.Is(err, domain.ErrAlreadyCompleted) {
		t.Fatalf("Converse error = %v, want ErrAlreadyCompleted", err)
	}
}

func TestResumeReconstructsState(t *testing.T) {
	store := newFakeStore()
	provider := &scriptedProvider{replies: []string{"Scenario.", "Question?", "Why?"}}
	svc := newTestService(t, store, provider)

	ctx := context.Background()
	if _, err := svc.Begin(ctx, "p1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := svc.Converse(ctx, "p1", "Hi"); err != nil {
		t.Fatalf("Converse: %v", err)
	}

	// A fresh service over the same store stands in for a process restart.
	resumed := newTestService(t, store, &scriptedProvider{})
	session, err := resumed.Resume(ctx, "p1")
	if err != nil {
		t.Fatalf("Resume: %v", err)
	}

	if session.State != models.StateConversing {
		t.Fatalf("state = %q, want %q", session.State, models.StateConversing)
	}
	if len(session.Turns) != 1 {
		t.Fatalf("turns = %d, want 1", len(session.Turns))
	}
	if session.Scenario == nil {
		t.Fatal("scenario missing on resume")
	}
}

func TestSweepAbandoned(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(t, store, &scriptedProvider{})

	old := time.Now().Add(-48 * time.Hour)
	store.participants["stale"] = &models.Participant{ID: "stale", StartTime: old, Status: models.StatusActive}
	store.participants["fresh"] = &models.Participant{ID: "fresh", StartTime: time.Now(), Status: models.StatusActive}
	store.participants["done"] = &models.Participant{ID: "done", StartTime: old, Status: models.StatusCompleted}

	n, err := svc.SweepAbandoned(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("SweepAbandoned: %v", err)
	}
	if n != 1 {
		t.Fatalf("abandoned = %d, want 1", n)
	}
	if store.participants["stale"].Status != models.StatusAbandoned {
		t.Fatal("stale session not abandoned")
	}
	if store.participants["fresh"].Status != models.StatusActive {
		t.Fatal("fresh session wrongly abandoned")
	}
	if store.participants["done"].Status != models.StatusCompleted {
		t.Fatal("completed session wrongly abandoned")
	}
}
