package study

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"elenchus/internal/config"
)

func TestQuestionnaireValidate(t *testing.T) {
	study := config.DefaultStudy()

	t.Run("valid submission passes", func(t *testing.T) {
		assert.NoError(t, validSubmission().Validate(study))
	})

	t.Run("optional free text may be empty", func(t *testing.T) {
		q := validSubmission()
		q.Disengagement = ""
		q.Improvements = ""
		q.OtherComments = ""
		assert.NoError(t, q.Validate(study))
	})

	tests := []struct {
		name   string
		mutate func(*QuestionnaireSubmission)
	}{
		{"likert below minimum", func(q *QuestionnaireSubmission) { q.Engaging = 0 }},
		{"likert above maximum", func(q *QuestionnaireSubmission) { q.Recommend = 6 }},
		{"age too low", func(q *QuestionnaireSubmission) { q.Age = 12 }},
		{"age missing", func(q *QuestionnaireSubmission) { q.Age = 0 }},
		{"education missing", func(q *QuestionnaireSubmission) { q.Education = "" }},
		{"required free text missing", func(q *QuestionnaireSubmission) { q.LearnedSomething = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := validSubmission()
			tt.mutate(q)
			assert.Error(t, q.Validate(study))
		})
	}
}

func TestQuestionnaireValidateCustomBounds(t *testing.T) {
	study := &config.Study{LikertMin: 1, LikertMax: 7, FallbackQuestion: "?", Topics: []string{"x"}}

	q := validSubmission()
	q.Recommend = 6
	assert.NoError(t, q.Validate(study))

	q.Recommend = 8
	assert.Error(t, q.Validate(study))
}
