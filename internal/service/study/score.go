package study

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"elenchus/internal/domain/models"
	"elenchus/internal/service/ai"
)

// neutralScore is recorded when conversation scoring fails: a scoring outage
// must never block questionnaire completion.
const neutralScore = 2.5

type scorePayload struct {
	AIScore float64 `json:"ai_score"`
}

// scoreConversation asks the model to rate the participant's critical
// thinking over the whole conversation, 1.0-4.0.
func (s *Service) scoreConversation(ctx context.Context, scenario *models.Scenario, turns []models.ConversationTurn) float64 {
	if scenario == nil || len(turns) == 0 {
		return neutralScore
	}

	temp := 0.1
	text, err := s.gateway.Generate(ctx, &ai.Request{
		System:      scoringSystemPrompt,
		Prompt:      scoringPrompt(scenario, turns),
		MaxTokens:   1024,
		Temperature: &temp,
	})
	if err != nil {
		s.logger.Warn("conversation scoring failed, using neutral score", "error", err)
		return neutralScore
	}

	score, err := parseScore(text)
	if err != nil {
		s.logger.Warn("conversation score unparseable, using neutral score", "error", err)
		return neutralScore
	}
	return score
}

// parseScore extracts the score from the model's JSON reply, tolerating
// markdown code fences, and clamps it to the 1.0-4.0 rubric range.
func parseScore(text string) (float64, error) {
	text = stripCodeFence(strings.TrimSpace(text))

	var payload scorePayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return 0, fmt.Errorf("parse score: %w", err)
	}
	if payload.AIScore == 0 {
		return 0, fmt.Errorf("parse score: missing ai_score in %q", text)
	}

	score := payload.AIScore
	if score < 1.0 {
		score = 1.0
	}
	if score > 4.0 {
		score = 4.0
	}
	return score, nil
}

func stripCodeFence(text string) string {
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	} else {
		return text
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
