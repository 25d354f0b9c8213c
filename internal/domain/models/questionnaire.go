package models

import (
	"time"
)

// QuestionnaireResponse holds all post-study answers for one participant,
// the demographics collected before the study, and the conversation's
// critical-thinking score. Exactly one row exists per completed participant;
// its write flips the participant to StatusCompleted.
//
// Field names follow the questionnaire as administered: q1-q5, q7, q8, q15
// and q16 are Likert items, the rest free text apart from the q13 selection.
type QuestionnaireResponse struct {
	ID            int64  `json:"id" db:"id"`
	ParticipantID string `json:"participant_id" db:"participant_id"`

	// Pre-study demographics
	Age          int    `json:"age" db:"age"`
	Education    string `json:"education" db:"education"`
	CTExperience string `json:"ct_experience" db:"ct_experience"`

	// Usability
	EasyToUse     int    `json:"post_q1_easy_to_use" db:"post_q1_easy_to_use"`
	FeltConfident int    `json:"post_q2_felt_confident" db:"post_q2_felt_confident"`
	UseAgain      int    `json:"post_q3_use_again" db:"post_q3_use_again"`

	// Engagement
	Engaging      int    `json:"post_q4_engaging" db:"post_q4_engaging"`
	NaturalFlow   int    `json:"post_q5_natural_flow" db:"post_q5_natural_flow"`
	Disengagement string `json:"post_q6_disengagement" db:"post_q6_disengagement"`

	// Learning & critical thinking
	EncouragedReflection int    `json:"post_q7_encouraged_reflection" db:"post_q7_encouraged_reflection"`
	MultiplePerspectives int    `json:"post_q8_multiple_perspectives" db:"post_q8_multiple_perspectives"`
	CriticalThinkingWays string `json:"post_q9_critical_thinking_ways" db:"post_q9_critical_thinking_ways"`
	LearnedSomething     string `json:"post_q10_learned_something" db:"post_q10_learned_something"`

	// Design & functionality
	DesignSupport string `json:"post_q11_design_support" db:"post_q11_design_support"`
	Confusion     string `json:"post_q12_confusion" db:"post_q12_confusion"`

	// Applications
	Application  string `json:"post_q13_application" db:"post_q13_application"`
	Improvements string `json:"post_q14_improvements" db:"post_q14_improvements"`

	// Overall impression
	Valuable      int    `json:"post_q15_valuable" db:"post_q15_valuable"`
	Recommend     int    `json:"post_q16_recommend" db:"post_q16_recommend"`
	OtherComments string `json:"post_q17_other_comments" db:"post_q17_other_comments"`

	// Computed from the conversation at completion, 1.0-4.0
	Score float64 `json:"critical_thinking_score" db:"critical_thinking_score"`

	CompletedAt time.Time `json:"completion_time" db:"completion_time"`
}
