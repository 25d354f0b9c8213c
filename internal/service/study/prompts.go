package study

import (
	"fmt"
	"strings"

	"elenchus/internal/domain/models"
)

// Prompt builders for the three generation calls the study makes: scenario
// synthesis, Socratic replies, and conversation scoring.

func scenarioPrompt(topic string) string {
	return fmt.Sprintf(`Write a realistic news-style scenario about %s.

Write ONLY the scenario content (150-200 words) that describes:
- A specific organization, location, or case study
- The dilemma or decision being faced
- Different stakeholders with conflicting viewpoints
- Concrete details and realistic circumstances

Do not include any introduction, commentary, or questions. Start directly with the scenario.`, topic)
}

func questionPrompt(topic string) string {
	return fmt.Sprintf(`Write a single Socratic question about %s.

Requirements:
- One sentence only
- Thought-provoking and specific
- Encourages critical thinking about assumptions or reasoning
- Natural conversational tone

Write only the question sentence with no extra text:`, topic)
}

// phaseGuidance returns the conversation-phase instruction for the reply
// prompt, keyed by how many exchanges have already happened.
func phaseGuidance(exchangeCount int) string {
	switch {
	case exchangeCount <= 3:
		return "Use open, exploratory questions. Keep questions accessible. Create a safe environment for exploration."
	case exchangeCount <= 8:
		return "Use focused, probing questions. Challenge assumptions systematically. Develop critical thinking skills."
	default:
		return "Use integrative, reflective questions. Promote synthesis and metacognition."
	}
}

func responsePrompt(scenario *models.Scenario, turns []models.ConversationTurn, userMessage string) string {
	var context strings.Builder
	context.WriteString("SCENARIO: ")
	context.WriteString(scenario.ScenarioText)
	context.WriteString("\nINITIAL QUESTION: ")
	context.WriteString(scenario.InitialQuestion)

	// Only the most recent exchanges; the full history travels separately
	// as structured messages.
	recent := turns
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	for _, t := range recent {
		context.WriteString("\nStudent: ")
		context.WriteString(truncate(t.UserMessage, 200))
		context.WriteString("\nEducator: ")
		context.WriteString(truncate(t.AIResponse, 200))
	}

	return fmt.Sprintf(`You are a skilled Socratic educator in dialogue with a thoughtful student. Generate a natural, engaging response that develops their critical thinking.

PHASE GUIDANCE: %s

STUDENT RESPONSE: %q
CONVERSATION CONTEXT: %s

ESSENTIAL PRINCIPLES:
1. NEVER start with formulaic praise ("That's really...", "Great point...")
2. Begin directly with engagement of their specific ideas
3. Show genuine curiosity about their reasoning
4. Use their exact words and build on their concepts
5. Ask questions that make them think deeper
6. Keep it conversational and natural
7. Challenge them respectfully
8. Focus on ONE specific aspect of their response, not broad scenarios
9. Ask about their reasoning process, not just outcomes

Create a response that feels like you're genuinely thinking alongside them.`,
		phaseGuidance(len(turns)+1), userMessage, context.String())
}

const scoringSystemPrompt = `You are a highly trained expert in educational assessment, specialising in evaluating critical thinking using the Facione framework.

Assign a floating-point score between 1.0 and 4.0 (e.g., 1.3, 2.8, 3.9). Use the full scoring range, not just middle values.

Rubric:
- 4.0 - Strong: Sophisticated reasoning across most of the six Facione skills; insightful, balanced, and justified.
- 3.0 - Acceptable: Competent demonstration of reasoning with some gaps; mostly justified.
- 2.0 - Unacceptable: Weak logic, missing key perspectives, limited justification.
- 1.0 - Weak: Biased, unjustified, or fallacious reasoning; little or no critical thinking demonstrated.

You return only floating-point scores in strict JSON format:
{"ai_score": 3.7}`

func scoringPrompt(scenario *models.Scenario, turns []models.ConversationTurn) string {
	var conversation strings.Builder
	fmt.Fprintf(&conversation, "Original Scenario: %s\nInitial Question: %s\n\nConversation:\n",
		scenario.ScenarioText, scenario.InitialQuestion)
	for i, t := range turns {
		fmt.Fprintf(&conversation, "Student %d: %s\nEducator %d: %s\n\n", i+1, t.UserMessage, i+1, t.AIResponse)
	}

	return fmt.Sprintf(`Evaluate this student's demonstration of critical thinking throughout the conversation using the Facione framework. Score from 1.0 to 4.0 with floating-point precision.

FULL CONVERSATION TO EVALUATE:
"""%s"""

Assess interpretation, analysis, evaluation, inference, explanation and self-regulation. Focus on the student's responses only, not the educator's questions.

Return only:
{"ai_score": <float>}

No explanation. No labels. Just the JSON.`, conversation.String())
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
