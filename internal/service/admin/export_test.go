package admin

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"elenchus/internal/domain"
	"elenchus/internal/domain/models"
)

// fakeStore is an in-memory read-side store for aggregator tests.
type fakeStore struct {
	participants   []models.Participant
	scenarios      map[string]*models.Scenario
	turns          map[string][]models.ConversationTurn
	questionnaires map[string]*models.QuestionnaireResponse
}

func (f *fakeStore) CreateParticipant(context.Context, *models.Participant) error { return nil }

func (f *fakeStore) GetParticipant(_ context.Context, id string) (*models.Participant, error) {
	for i := range f.participants {
		if f.participants[i].ID == id {
			cp := f.participants[i]
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeStore) ListParticipants(context.Context) ([]models.Participant, error) {
	return append([]models.Participant(nil), f.participants...), nil
}

func (f *fakeStore) MarkAbandoned(context.Context, time.Time) (int64, error) { return 0, nil }

func (f *fakeStore) CreateScenario(context.Context, *models.Scenario) error { return nil }

func (f *fakeStore) GetScenario(_ context.Context, participantID string) (*models.Scenario, error) {
	s, ok := f.scenarios[participantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) AppendTurn(context.Context, *models.ConversationTurn) error { return nil }

func (f *fakeStore) ListTurns(_ context.Context, participantID string) ([]models.ConversationTurn, error) {
	return f.turns[participantID], nil
}

func (f *fakeStore) CountTurns(_ context.Context, participantID string) (int, error) {
	return len(f.turns[participantID]), nil
}

func (f *fakeStore) SubmitQuestionnaire(context.Context, *models.QuestionnaireResponse) error {
	return nil
}

func (f *fakeStore) GetQuestionnaire(_ context.Context, participantID string) (*models.QuestionnaireResponse, error) {
	q, ok := f.questionnaires[participantID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return q, nil
}

func (f *fakeStore) Close() error { return nil }

func seededStore(t *testing.T) *fakeStore {
	t.Helper()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	end := base.Add(time.Hour)

	return &fakeStore{
		participants: []models.Participant{
			// Listed out of start order on purpose; exports must sort.
			{ID: "p2", StartTime: base.Add(time.Minute), Status: models.StatusActive},
			{ID: "p1", StartTime: base, EndTime: &end, Status: models.StatusCompleted},
		},
		scenarios: map[string]*models.Scenario{
			"p1": {ID: 1, ParticipantID: "p1", ScenarioText: "A scenario.", InitialQuestion: "A question?", GeneratedAt: base},
		},
		turns: map[string][]models.ConversationTurn{
			"p1": {
				{ID: 1, ParticipantID: "p1", UserMessage: "first", AIResponse: "reply one", Timestamp: base},
				{ID: 2, ParticipantID: "p1", UserMessage: "second", AIResponse: "reply two", Timestamp: base.Add(time.Minute)},
				{ID: 3, ParticipantID: "p1", UserMessage: "third", AIResponse: "reply three", Timestamp: base.Add(2 * time.Minute)},
			},
		},
		questionnaires: map[string]*models.QuestionnaireResponse{
			"p1": {ParticipantID: "p1", Age: 30, Score: 3.2, CompletedAt: end},
		},
	}
}

func testAggregator(t *testing.T) *Aggregator {
	t.Helper()
	return NewAggregator(seededStore(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExportAllRowCounts(t *testing.T) {
	var buf bytes.Buffer
	if err := testAggregator(t).ExportAll(context.Background(), &buf); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}

	// Header + 3 turn rows for p1 + 1 empty-turn row for p2.
	if len(rows) != 5 {
		t.Fatalf("rows = %d, want 5", len(rows))
	}
	for i, row := range rows {
		if len(row) != len(exportColumns) {
			t.Fatalf("row %d has %d columns, want %d", i, len(row), len(exportColumns))
		}
	}

	// p1 starts earlier, so its rows come first despite listing order.
	if rows[1][0] != "p1" || rows[4][0] != "p2" {
		t.Fatalf("participants not sorted by start time: %q then %q", rows[1][0], rows[4][0])
	}

	// The zero-turn participant's row carries empty turn columns.
	p2 := rows[4]
	if p2[6] != "" || p2[7] != "" || p2[8] != "" || p2[9] != "" {
		t.Fatalf("zero-turn row carries turn data: %v", p2)
	}

	if rows[1][10] != "3.2" {
		t.Fatalf("score column = %q, want 3.2", rows[1][10])
	}
}

func TestExportAllDeterministic(t *testing.T) {
	agg := testAggregator(t)

	var first, second bytes.Buffer
	if err := agg.ExportAll(context.Background(), &first); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if err := agg.ExportAll(context.Background(), &second); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}

	if !bytes.Equal(first.Bytes(), second.Bytes()) {
		t.Fatal("repeated exports of the same data differ")
	}
}

func TestExportTable(t *testing.T) {
	agg := testAggregator(t)

	tests := []struct {
		table    string
		wantRows int // including header
	}{
		{TableParticipants, 3},
		{TableConversations, 4},
		{TableQuestionnaires, 2},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			var buf bytes.Buffer
			if err := agg.ExportTable(context.Background(), &buf, tt.table); err != nil {
				t.Fatalf("ExportTable(%q): %v", tt.table, err)
			}
			rows, err := csv.NewReader(&buf).ReadAll()
			if err != nil {
				t.Fatalf("parse CSV: %v", err)
			}
			if len(rows) != tt.wantRows {
				t.Fatalf("rows = %d, want %d", len(rows), tt.wantRows)
			}
		})
	}
}

func TestExportTableUnknown(t *testing.T) {
	var buf bytes.Buffer
	err := testAggregator(t).ExportTable(context.Background(), &buf, "users")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("ExportTable error = %v, want ErrValidation", err)
	}
}

func TestStats(t *testing.T) {
	stats, err := testAggregator(t).Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.TotalParticipants != 2 {
		t.Errorf("total = %d, want 2", stats.TotalParticipants)
	}
	if stats.CompletedParticipants != 1 || stats.ActiveParticipants != 1 {
		t.Errorf("completed/active = %d/%d, want 1/1", stats.CompletedParticipants, stats.ActiveParticipants)
	}
	if stats.TotalTurns != 3 {
		t.Errorf("turns = %d, want 3", stats.TotalTurns)
	}
	if stats.AverageScore != 3.2 {
		t.Errorf("average score = %v, want 3.2", stats.AverageScore)
	}
}

func TestListParticipants(t *testing.T) {
	summaries, err := testAggregator(t).ListParticipants(context.Background())
	if err != nil {
		t.Fatalf("ListParticipants: %v", err)
	}
	if len(summaries) != 2 {
		t.Fatalf("summaries = %d, want 2", len(summaries))
	}

	byID := make(map[string]ParticipantSummary, len(summaries))
	for _, s := range summaries {
		byID[s.ID] = s
	}

	if byID["p1"].State != models.StateCompleted || byID["p1"].TurnCount != 3 {
		t.Errorf("p1 summary = %+v", byID["p1"])
	}
	if byID["p2"].State != models.StateNew || byID["p2"].TurnCount != 0 {
		t.Errorf("p2 summary = %+v", byID["p2"])
	}
}
