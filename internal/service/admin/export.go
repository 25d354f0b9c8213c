package admin

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"elenchus/internal/domain"
	"elenchus/internal/domain/models"
)

// Export table names accepted by ExportTable.
const (
	TableParticipants   = "participants"
	TableConversations  = "conversations"
	TableQuestionnaires = "questionnaires"
)

var exportColumns = []string{
	"participant_id",
	"start_time",
	"end_time",
	"status",
	"scenario_text",
	"initial_question",
	"turn_id",
	"user_message",
	"ai_response",
	"turn_timestamp",
	"critical_thinking_score",
}

// ExportAll streams the full study dataset as one denormalized CSV: one row
// per conversation turn, and a single row with empty turn columns for any
// participant who never exchanged a message. Column order is fixed and
// participants are sorted by start time, so repeated exports of the same
// data are byte-identical.
func (a *Aggregator) ExportAll(ctx context.Context, w io.Writer) error {
	participants, err := a.store.ListParticipants(ctx)
	if err != nil {
		return err
	}
	sortParticipants(participants)

	cw := csv.NewWriter(w)
	if err := cw.Write(exportColumns); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	for i := range participants {
		p := &participants[i]

		scenario, err := a.store.GetScenario(ctx, p.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		turns, err := a.store.ListTurns(ctx, p.ID)
		if err != nil {
			return err
		}
		questionnaire, err := a.store.GetQuestionnaire(ctx, p.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		base := []string{
			p.ID,
			formatTime(p.StartTime),
			formatTimePtr(p.EndTime),
			string(p.Status),
			scenarioText(scenario),
			initialQuestion(scenario),
		}
		score := ""
		if questionnaire != nil {
			score = formatScore(questionnaire.Score)
		}

		if len(turns) == 0 {
			row := append(append([]string{}, base...), "", "", "", "", score)
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("export: %w", err)
			}
			continue
		}
		for _, t := range turns {
			row := append(append([]string{}, base...),
				strconv.FormatInt(t.ID, 10),
				t.UserMessage,
				t.AIResponse,
				formatTime(t.Timestamp),
				score,
			)
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("export: %w", err)
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportTable streams a single table as CSV. An unknown table name fails
// with domain.ErrValidation.
func (a *Aggregator) ExportTable(ctx context.Context, w io.Writer, table string) error {
	switch table {
	case TableParticipants:
		return a.exportParticipants(ctx, w)
	case TableConversations:
		return a.exportConversations(ctx, w)
	case TableQuestionnaires:
		return a.exportQuestionnaires(ctx, w)
	default:
		return fmt.Errorf("%w: unknown export table %q", domain.ErrValidation, table)
	}
}

func (a *Aggregator) exportParticipants(ctx context.Context, w io.Writer) error {
	participants, err := a.store.ListParticipants(ctx)
	if err != nil {
		return err
	}
	sortParticipants(participants)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"participant_id", "start_time", "end_time", "status"}); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	for i := range participants {
		p := &participants[i]
		row := []string{p.ID, formatTime(p.StartTime), formatTimePtr(p.EndTime), string(p.Status)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func (a *Aggregator) exportConversations(ctx context.Context, w io.Writer) error {
	participants, err := a.store.ListParticipants(ctx)
	if err != nil {
		return err
	}
	sortParticipants(participants)

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "participant_id", "user_message", "ai_response", "timestamp"}); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	for i := range participants {
		turns, err := a.store.ListTurns(ctx, participants[i].ID)
		if err != nil {
			return err
		}
		for _, t := range turns {
			row := []string{
				strconv.FormatInt(t.ID, 10),
				t.ParticipantID,
				t.UserMessage,
				t.AIResponse,
				formatTime(t.Timestamp),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("export: %w", err)
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func (a *Aggregator) exportQuestionnaires(ctx context.Context, w io.Writer) error {
	participants, err := a.store.ListParticipants(ctx)
	if err != nil {
		return err
	}
	sortParticipants(participants)

	cw := csv.NewWriter(w)
	header := []string{
		"participant_id", "age", "education", "ct_experience",
		"post_q1_easy_to_use", "post_q2_felt_confident", "post_q3_use_again",
		"post_q4_engaging", "post_q5_natural_flow", "post_q6_disengagement",
		"post_q7_encouraged_reflection", "post_q8_multiple_perspectives",
		"post_q9_critical_thinking_ways", "post_q10_learned_something",
		"post_q11_design_support", "post_q12_confusion",
		"post_q13_application", "post_q14_improvements",
		"post_q15_valuable", "post_q16_recommend", "post_q17_other_comments",
		"critical_thinking_score", "completion_time",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	for i := range participants {
		q, err := a.store.GetQuestionnaire(ctx, participants[i].ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return err
		}
		row := []string{
			q.ParticipantID,
			strconv.Itoa(q.Age), q.Education, q.CTExperience,
			strconv.Itoa(q.EasyToUse), strconv.Itoa(q.FeltConfident), strconv.Itoa(q.UseAgain),
			strconv.Itoa(q.Engaging), strconv.Itoa(q.NaturalFlow), q.Disengagement,
			strconv.Itoa(q.EncouragedReflection), strconv.Itoa(q.MultiplePerspectives),
			q.CriticalThinkingWays, q.LearnedSomething,
			q.DesignSupport, q.Confusion,
			q.Application, q.Improvements,
			strconv.Itoa(q.Valuable), strconv.Itoa(q.Recommend), q.OtherComments,
			formatScore(q.Score), formatTime(q.CompletedAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func sortParticipants(participants []models.Participant) {
	sort.Slice(participants, func(i, j int) bool {
		if !participants[i].StartTime.Equal(participants[j].StartTime) {
			return participants[i].StartTime.Before(participants[j].StartTime)
		}
		return participants[i].ID < participants[j].ID
	})
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

func scenarioText(s *models.Scenario) string {
	if s == nil {
		return ""
	}
	return s.ScenarioText
}

func initialQuestion(s *models.Scenario) string {
	if s == nil {
		return ""
	}
	return s.InitialQuestion
}
