package study

import "testing"

func TestParseScore(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{
			name:  "plain JSON",
			input: `{"ai_score": 3.7}`,
			want:  3.7,
		},
		{
			name:  "json code fence",
			input: "```json\n{\"ai_score\": 2.8}\n```",
			want:  2.8,
		},
		{
			name:  "bare code fence",
			input: "```\n{\"ai_score\": 1.3}\n```",
			want:  1.3,
		},
		{
			name:  "surrounding whitespace",
			input: "  {\"ai_score\": 3.0}\n",
			want:  3.0,
		},
		{
			name:  "clamped above range",
			input: `{"ai_score": 4.6}`,
			want:  4.0,
		},
		{
			name:  "clamped below range",
			input: `{"ai_score": 0.2}`,
			want:  1.0,
		},
		{
			name:    "missing field",
			input:   `{"score": 3.0}`,
			wantErr: true,
		},
		{
			name:    "not JSON",
			input:   "The student scored 3.5 out of 4.",
			wantErr: true,
		},
		{
			name:    "empty",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseScore(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseScore(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseScore(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseScore(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"```json\n{}\n```", "{}"},
		{"```\n{}\n```", "{}"},
		{"{}", "{}"},
	}

	for _, tt := range tests {
		if got := stripCodeFence(tt.input); got != tt.want {
			t.Errorf("stripCodeFence(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
