package study

import "testing"

const fallback = "What are your initial thoughts?"

func TestSplitScenario(t *testing.T) {
	tests := []struct {
		name         string
		opening      string
		wantScenario string
		wantQuestion string
	}{
		{
			name:         "scenario and question separated by blank line",
			opening:      "A hospital faces a difficult choice.\n\nWhat would you prioritize?",
			wantScenario: "A hospital faces a difficult choice.",
			wantQuestion: "What would you prioritize?",
		},
		{
			name:         "no separator uses fallback question",
			opening:      "A hospital faces a difficult choice.",
			wantScenario: "A hospital faces a difficult choice.",
			wantQuestion: fallback,
		},
		{
			name:         "separator with empty question uses fallback",
			opening:      "A hospital faces a difficult choice.\n\n  ",
			wantScenario: "A hospital faces a difficult choice.",
			wantQuestion: fallback,
		},
		{
			name:         "splits on first blank line only",
			opening:      "First paragraph.\n\nSecond paragraph.\n\nThird.",
			wantScenario: "First paragraph.",
			wantQuestion: "Second paragraph.\n\nThird.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scenario, question := splitScenario(tt.opening, fallback)
			if scenario != tt.wantScenario {
				t.Errorf("scenario = %q, want %q", scenario, tt.wantScenario)
			}
			if question != tt.wantQuestion {
				t.Errorf("question = %q, want %q", question, tt.wantQuestion)
			}
		})
	}
}

func TestCleanScenarioText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "strips preamble line",
			input: "Here's a scenario about AI ethics:\nA city council debates facial recognition.",
			want:  "A city council debates facial recognition.",
		},
		{
			name:  "keeps clean text untouched",
			input: "A city council debates facial recognition.",
			want:  "A city council debates facial recognition.",
		},
		{
			name:  "preamble with nothing after stays as-is",
			input: "Here's the scenario:",
			want:  "Here's the scenario:",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanScenarioText(tt.input); got != tt.want {
				t.Errorf("cleanScenarioText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCleanQuestionText(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`Question: What do you think?`, "What do you think?"},
		{`"What do you think?"`, "What do you think?"},
		{`QUESTION: "What do you think?"`, "What do you think?"},
		{`What do you think?`, "What do you think?"},
	}

	for _, tt := range tests {
		if got := cleanQuestionText(tt.input); got != tt.want {
			t.Errorf("cleanQuestionText(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
