package study

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"elenchus/internal/config"
	"elenchus/internal/domain/models"
)

// QuestionnaireSubmission carries the questionnaire answers as submitted.
// Field names mirror the questionnaire as administered; the score and
// completion time are filled in by the orchestrator.
type QuestionnaireSubmission struct {
	Age          int    `json:"age"`
	Education    string `json:"education"`
	CTExperience string `json:"ct_experience"`

	EasyToUse     int    `json:"post_q1_easy_to_use"`
	FeltConfident int    `json:"post_q2_felt_confident"`
	UseAgain      int    `json:"post_q3_use_again"`
	Engaging      int    `json:"post_q4_engaging"`
	NaturalFlow   int    `json:"post_q5_natural_flow"`
	Disengagement string `json:"post_q6_disengagement"`

	EncouragedReflection int    `json:"post_q7_encouraged_reflection"`
	MultiplePerspectives int    `json:"post_q8_multiple_perspectives"`
	CriticalThinkingWays string `json:"post_q9_critical_thinking_ways"`
	LearnedSomething     string `json:"post_q10_learned_something"`

	DesignSupport string `json:"post_q11_design_support"`
	Confusion     string `json:"post_q12_confusion"`
	Application   string `json:"post_q13_application"`
	Improvements  string `json:"post_q14_improvements"`

	Valuable      int    `json:"post_q15_valuable"`
	Recommend     int    `json:"post_q16_recommend"`
	OtherComments string `json:"post_q17_other_comments"`
}

// Validate checks required numeric fields against the study's Likert bounds
// and required free-text fields for non-emptiness. Runs before any write.
func (q *QuestionnaireSubmission) Validate(study *config.Study) error {
	likert := []*validation.FieldRules{
		validation.Field(&q.EasyToUse, validation.Required, validation.Min(study.LikertMin), validation.Max(study.LikertMax)),
		validation.Field(&q.FeltConfident, validation.Required, validation.Min(study.LikertMin), validation.Max(study.LikertMax)),
		validation.Field(&q.UseAgain, validation.Required, validation.Min(study.LikertMin), validation.Max(study.LikertMax)),
		validation.Field(&q.Engaging, validation.Required, validation.Min(study.LikertMin), validation.Max(study.LikertMax)),
		validation.Field(&q.NaturalFlow, validation.Required, validation.Min(study.LikertMin), validation.Max(study.LikertMax)),
		validation.Field(&q.EncouragedReflection, validation.Required, validation.Min(study.LikertMin), validation.Max(study.LikertMax)),
		validation.Field(&q.MultiplePerspectives, validation.Required, validation.Min(study.LikertMin), validation.Max(study.LikertMax)),
		validation.Field(&q.Valuable, validation.Required, validation.Min(study.LikertMin), validation.Max(study.LikertMax)),
		validation.Field(&q.Recommend, validation.Required, validation.Min(study.LikertMin), validation.Max(study.LikertMax)),
	}

	rules := append(likert,
		validation.Field(&q.Age, validation.Required, validation.Min(16), validation.Max(100)),
		validation.Field(&q.Education, validation.Required),
		validation.Field(&q.CTExperience, validation.Required),
		validation.Field(&q.CriticalThinkingWays, validation.Required),
		validation.Field(&q.LearnedSomething, validation.Required),
		validation.Field(&q.Application, validation.Required),
	)

	return validation.ValidateStruct(q, rules...)
}

func (q *QuestionnaireSubmission) toModel(participantID string, score float64, completedAt time.Time) *models.QuestionnaireResponse {
	return &models.QuestionnaireResponse{
		ParticipantID:        participantID,
		Age:                  q.Age,
		Education:            q.Education,
		CTExperience:         q.CTExperience,
		EasyToUse:            q.EasyToUse,
		FeltConfident:        q.FeltConfident,
		UseAgain:             q.UseAgain,
		Engaging:             q.Engaging,
		NaturalFlow:          q.NaturalFlow,
		Disengagement:        q.Disengagement,
		EncouragedReflection: q.EncouragedReflection,
		MultiplePerspectives: q.MultiplePerspectives,
		CriticalThinkingWays: q.CriticalThinkingWays,
		LearnedSomething:     q.LearnedSomething,
		DesignSupport:        q.DesignSupport,
		Confusion:            q.Confusion,
		Application:          q.Application,
		Improvements:         q.Improvements,
		Valuable:             q.Valuable,
		Recommend:            q.Recommend,
		OtherComments:        q.OtherComments,
		Score:                score,
		CompletedAt:          completedAt,
	}
}
