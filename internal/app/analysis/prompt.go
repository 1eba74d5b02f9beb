package analysis

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/speech-coach/internal/domain"
)

const baseSystemPrompt = `
You are an experienced speaking coach who reviews practice sessions.

Your role:
- You receive the transcript of something the user said (or typed) plus delivery metrics.
- You judge content quality, tone, grammar and word choice.
- You give specific, encouraging and actionable feedback.

General style guidelines:
- Answer in English.
- Quote the user's own words when proposing a correction.
- Keep each feedback string short: 1 to 3 sentences.
- Propose 2 to 4 improvements, most important first.
- Do not invent content the user did not say.
`

const outputInstructions = `
Respond ONLY with a JSON object, no prose before or after, using exactly this shape:
{
  "overallScore": <integer 1-10>,
  "toneFeedback": "<one or two sentences about tone>",
  "corrections": [
    {"type": "grammar|vocabulary|clarity", "original": "<user words>", "correction": "<better words>", "explanation": "<why>"}
  ],
  "feedback": "<overall feedback>",
  "improvements": ["<improvement>", "..."],
  "strengths": ["<strength>", "..."]
}
`

const interviewInstructions = `
Scenario: job interview

Focus:
- Structured, concise answers (situation, task, action, result).
- Confidence and ownership ("I did" rather than "we kind of").
- Relevance to the question and professional vocabulary.
`

const socialInstructions = `
Scenario: social conversation

Focus:
- Warmth, natural phrasing and friendliness.
- Leaving room for the other person: questions, turn-taking.
- Avoiding overly formal or stiff wording.
`

const publicInstructions = `
Scenario: public speaking

Focus:
- Clear structure: opening, key points, closing.
- Pacing for an audience (roughly 130-160 words per minute is comfortable).
- Rhetorical devices, emphasis and memorable phrasing.
`

const generalInstructions = `
Scenario: general practice

Focus:
- Clarity, fluency and grammar.
- Reducing filler words and repetition.
`

// Prompt represents the system prompt + the content to send as "user".
type Prompt struct {
	System string
	User   string
}

// BuildPrompt builds the system prompt and the user content (prior exchanges,
// metrics and the transcript under review).
func BuildPrompt(req domain.AnalysisRequest, history []domain.ConversationEntry) Prompt {
	system := baseSystemPrompt + "\n" + scenarioInstructions(req.Scenario) + "\n" + outputInstructions

	var user strings.Builder
	if len(history) > 0 {
		user.WriteString("Previous exchanges (oldest first):\n")
		for _, e := range history {
			user.WriteString(string(e.Role))
			user.WriteString(": ")
			user.WriteString(e.Content)
			user.WriteString("\n")
		}
		user.WriteString("\n")
	}

	m := req.Metrics
	fmt.Fprintf(&user, "Delivery metrics:\n- duration: %.0f seconds\n- words: %d\n- pace: %.0f words per minute\n- filler words: %d\n- vocabulary diversity: %.2f\n\n",
		m.Duration, m.WordCount, m.WPM, m.FillerWordCount, m.VocabularyDiversity)

	user.WriteString("Transcript to analyze:\n")
	user.WriteString(strings.TrimSpace(req.Transcript))

	return Prompt{
		System: system,
		User:   user.String(),
	}
}

func scenarioInstructions(s domain.Scenario) string {
	switch s {
	case domain.ScenarioInterview:
		return interviewInstructions
	case domain.ScenarioSocial:
		return socialInstructions
	case domain.ScenarioPublic:
		return publicInstructions
	case domain.ScenarioGeneral:
		fallthrough
	default:
		return generalInstructions
	}
}
