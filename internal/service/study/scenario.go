package study

import (
	"strings"
)

// splitScenario separates generated scenario text from its initial question.
// The two are joined by a blank line; when the separator is missing the
// whole text becomes the scenario and the fallback question is used.
func splitScenario(opening, fallbackQuestion string) (scenario, question string) {
	if idx := strings.Index(opening, "\n\n"); idx >= 0 {
		scenario = strings.TrimSpace(opening[:idx])
		question = strings.TrimSpace(opening[idx+2:])
	} else {
		scenario = strings.TrimSpace(opening)
	}
	if question == "" {
		question = fallbackQuestion
	}
	return scenario, question
}

// cleanScenarioText strips the meta-commentary preamble some models prepend
// ("Here's a scenario about...") so only the scenario itself remains.
func cleanScenarioText(text string) string {
	text = strings.TrimSpace(text)

	lower := strings.ToLower(text)
	for _, prefix := range []string{"here's", "here is", "okay"} {
		if strings.HasPrefix(lower, prefix) {
			if idx := strings.Index(text, "\n"); idx >= 0 {
				if rest := strings.TrimSpace(text[idx+1:]); rest != "" {
					return rest
				}
			}
			break
		}
	}
	return text
}

// cleanQuestionText removes "Question:" labels and surrounding quotes from a
// generated question.
func cleanQuestionText(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "Question:")
	text = strings.TrimPrefix(text, "QUESTION:")
	text = strings.TrimSpace(text)
	if len(text) >= 2 && strings.HasPrefix(text, `"`) && strings.HasSuffix(text, `"`) {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	return text
}
