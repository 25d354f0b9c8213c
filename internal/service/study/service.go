package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"elenchus/internal/config"
	"elenchus/internal/domain"
	"elenchus/internal/domain/models"
	"elenchus/internal/domain/repositories"
	"elenchus/internal/service/ai"
)

// Session is the working view of one participant's progress, reconstructed
// from persisted records on every request (state itself is never stored).
type Session struct {
	Participant *models.Participant       `json:"participant"`
	State       models.State              `json:"state"`
	Scenario    *models.Scenario          `json:"scenario,omitempty"`
	Turns       []models.ConversationTurn `json:"turns"`
}

// Service drives participants through the study flow: consent/first contact,
// scenario generation, conversation, questionnaire. It enforces the legal
// transitions and the idempotency rules that make every step safe to retry.
type Service struct {
	store   repositories.Store
	gateway *ai.Gateway
	study   *config.Study
	logger  *slog.Logger
	now     func() time.Time
}

// NewService creates a study service.
func NewService(store repositories.Store, gateway *ai.Gateway, study *config.Study, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		gateway: gateway,
		study:   study,
		logger:  logger,
		now:     time.Now,
	}
}

// Begin handles first contact for a participant. An empty id mints a fresh
// one; a known id resumes. The participant row is created if absent and the
// scenario is generated exactly once: a session resumed after a crash reuses
// the persisted scenario instead of generating again.
func (s *Service) Begin(ctx context.Context, participantID string) (*Session, error) {
	if participantID == "" {
		participantID = uuid.NewString()
	}

	if err := s.store.CreateParticipant(ctx, &models.Participant{
		ID:        participantID,
		StartTime: s.now(),
		Status:    models.StatusActive,
	}); err != nil {
		return nil, err
	}

	session, err := s.loadSession(ctx, participantID)
	if err != nil {
		return nil, err
	}

	if session.Scenario == nil && !session.State.Terminal() {
		scenario, err := s.generateScenario(ctx, participantID)
		if err != nil {
			return nil, err
		}
		session.Scenario = scenario
		session.State = models.Classify(session.Participant, true, len(session.Turns), false)
	}

	return session, nil
}

// Resume reconstructs the session purely from persisted records.
func (s *Service) Resume(ctx context.Context, participantID string) (*Session, error) {
	return s.loadSession(ctx, participantID)
}

// Converse handles one exchange: generate the Socratic reply with the full
// prior history as context, then append the turn. On a generation failure
// nothing is persisted, so a retried exchange never leaves a half row.
func (s *Service) Converse(ctx context.Context, participantID, userMessage string) (string, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return "", fmt.Errorf("%w: message must not be empty", domain.ErrValidation)
	}

	participant, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return "", err
	}
	if err := checkOpen(participant); err != nil {
		return "", err
	}

	scenario, err := s.store.GetScenario(ctx, participantID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: no scenario generated yet for participant %s", domain.ErrValidation, participantID)
		}
		return "", err
	}

	turns, err := s.store.ListTurns(ctx, participantID)
	if err != nil {
		return "", err
	}

	reply, err := s.gateway.Generate(ctx, &ai.Request{
		Prompt:  responsePrompt(scenario, turns, userMessage),
		History: conversationHistory(scenario, turns),
	})
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)

	turn := &models.ConversationTurn{
		ParticipantID: participantID,
		UserMessage:   userMessage,
		AIResponse:    reply,
		Timestamp:     s.now(),
	}
	if err := s.store.AppendTurn(ctx, turn); err != nil {
		return "", err
	}

	s.logger.Info("turn recorded",
		"participant_id", participantID,
		"turn_id", turn.ID,
	)

	return reply, nil
}

// Complete validates and persists the questionnaire, scores the conversation
// and flips the participant to completed, all exactly once. A duplicate
// submission fails with domain.ErrAlreadyCompleted and performs no write.
func (s *Service) Complete(ctx context.Context, participantID string, submission *QuestionnaireSubmission) (*models.QuestionnaireResponse, error) {
	participant, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}
	if participant.Status == models.StatusCompleted {
		return nil, fmt.Errorf("participant %s: %w", participantID, domain.ErrAlreadyCompleted)
	}
	if participant.Status == models.StatusAbandoned {
		return nil, fmt.Errorf("participant %s: %w", participantID, domain.ErrSessionClosed)
	}

	if err := submission.Validate(s.study); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// Scoring happens before the write; a scoring failure degrades to the
	// neutral score rather than blocking completion.
	scenario, err := s.store.GetScenario(ctx, participantID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	turns, err := s.store.ListTurns(ctx, participantID)
	if err != nil {
		return nil, err
	}
	score := s.scoreConversation(ctx, scenario, turns)

	response := submission.toModel(participantID, score, s.now())
	if err := s.store.SubmitQuestionnaire(ctx, response); err != nil {
		return nil, err
	}

	s.logger.Info("study completed",
		"participant_id", participantID,
		"score", score,
		"turns", len(turns),
	)

	return response, nil
}

// SweepAbandoned flips active participants older than the staleness window
// to abandoned. Driven by the admin surface or a cron job, never inline.
func (s *Service) SweepAbandoned(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := s.now().Add(-olderThan)
	n, err := s.store.MarkAbandoned(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("stale sessions abandoned", "count", n, "cutoff", cutoff)
	}
	return n, nil
}

// generateScenario synthesizes the scenario and its initial question and
// persists them once. A concurrent duplicate insert (double-click on first
// contact) loses the race and reuses the winner's row.
func (s *Service) generateScenario(ctx context.Context, participantID string) (*models.Scenario, error) {
	topic := s.study.Topics[rand.IntN(len(s.study.Topics))]

	scenarioText, err := s.gateway.Generate(ctx, &ai.Request{Prompt: scenarioPrompt(topic)})
	if err != nil {
		return nil, err
	}
	questionText, err := s.gateway.Generate(ctx, &ai.Request{Prompt: questionPrompt(topic)})
	if err != nil {
		return nil, err
	}

	scenarioText, questionText = splitScenario(
		cleanScenarioText(scenarioText)+"\n\n"+cleanQuestionText(questionText),
		s.study.FallbackQuestion,
	)

	scenario := &models.Scenario{
		ParticipantID:   participantID,
		ScenarioText:    scenarioText,
		InitialQuestion: questionText,
		GeneratedAt:     s.now(),
	}
	if err := s.store.CreateScenario(ctx, scenario); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.store.GetScenario(ctx, participantID)
		}
		return nil, err
	}

	s.logger.Info("scenario generated",
		"participant_id", participantID,
		"topic", topic,
	)

	return scenario, nil
}

// loadSession reconstructs the session state from persisted records only.
func (s *Service) loadSession(ctx context.Context, participantID string) (*Session, error) {
	participant, err := s.store.GetParticipant(ctx, participantID)
	if err != nil {
		return nil, err
	}

	scenario, err := s.store.GetScenario(ctx, participantID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	turns, err := s.store.ListTurns(ctx, participantID)
	if err != nil {
		return nil, err
	}

	// Status is flipped atomically with the questionnaire write, so it
	// stands in for the row's presence here.
	hasQuestionnaire := participant.Status == models.StatusCompleted

	return &Session{
		Participant: participant,
		State:       models.Classify(participant, scenario != nil, len(turns), hasQuestionnaire),
		Scenario:    scenario,
		Turns:       turns,
	}, nil
}

// conversationHistory converts the persisted records into provider messages,
// oldest first: the scenario opening, then each stored exchange.
func conversationHistory(scenario *models.Scenario, turns []models.ConversationTurn) []ai.Message {
	history := make([]ai.Message, 0, len(turns)*2+1)
	history = append(history, ai.Message{
		Role:    "assistant",
		Content: scenario.ScenarioText + "\n\n" + scenario.InitialQuestion,
	})
	for _, t := range turns {
		history = append(history,
			ai.Message{Role: "user", Content: t.UserMessage},
			ai.Message{Role: "assistant", Content: t.AIResponse},
		)
	}
	return history
}

func checkOpen(p *models.Participant) error {
	switch p.Status {
	case models.StatusCompleted:
		return fmt.Errorf("participant %s: %w", p.ID, domain.ErrAlreadyCompleted)
	case models.StatusAbandoned:
		return fmt.Errorf("participant %s: %w", p.ID, domain.ErrSessionClosed)
	}
	return nil
}
