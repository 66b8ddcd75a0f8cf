package tutor

// FeedbackOption is one of the buttons offered at a Socratic checkpoint.
type FeedbackOption struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// Profile captures the tutor attributes exposed to the frontend and used to
// build the model's system instruction.
type Profile struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Title           string           `json:"title"`
	Subjects        []string         `json:"subjects,omitempty"`
	WelcomeMessage  string           `json:"welcomeMessage"`
	InputHint       string           `json:"inputHint,omitempty"`
	FeedbackPrompt  string           `json:"feedbackPrompt"`
	FeedbackOptions []FeedbackOption `json:"feedbackOptions"`

	// SentinelPhrase is the exact closing sentence that marks a checkpoint.
	SentinelPhrase string   `json:"-"`
	Tone           string   `json:"-"`
	Rules          []string `json:"-"`
}

// FindOption looks up a feedback option by its exact label.
func (p Profile) FindOption(label string) (FeedbackOption, bool) {
	for _, opt := range p.FeedbackOptions {
		if opt.Label == label {
			return opt, true
		}
	}
	return FeedbackOption{}, false
}

// DefaultID identifies the built-in tutor.
const DefaultID = "eduai"

// DefaultFeedbackOptions are the four checkpoint buttons.
func DefaultFeedbackOptions() []FeedbackOption {
	return []FeedbackOption{
		{Label: "I get it!", Icon: "👍"},
		{Label: "A bit confusing.", Icon: "❓"},
		{Label: "I'm lost.", Icon: "👎"},
		{Label: "Explain it to me", Icon: "💬"},
	}
}

// Seed provides the built-in tutor profiles.
func Seed() []Profile {
	return []Profile{
		{
			ID:              DefaultID,
			Name:            "EduAI Tutor",
			Title:           "Socratic learning companion",
			Subjects:        []string{"Science", "Math"},
			WelcomeMessage:  "Hello! I am EduAI Tutor. Ask me a complex topic of your interest and I will guide you on how to find the answer yourself.",
			InputHint:       "Ask me about any topic of your interest and I'll guide you to understand it better...",
			FeedbackPrompt:  "What would you like to do next?",
			FeedbackOptions: DefaultFeedbackOptions(),
			SentinelPhrase:  "How are you feeling about this topic?",
			Tone:            "patient, encouraging and supportive",
			Rules:           []string{
				`**Socratic Dialogue:** Respond by asking simplified, guiding questions. Your response must *never* contain the final answer initially.`,
				`**Adaptive Simplification:** If the student's question is complex, break it into smaller, foundational components before asking your question.`,
				`**Feedback Check & Dynamic Adjustment:** Use the keywords provided by the student to adjust your response.
    * **If the student uses a keyword like "I get it" or "understood" OR gives a correct answer:** Provide positive reinforcement, summarize the learned concept concisely, and suggest a logical, curated follow-up question.
    * **If the student uses a keyword like "A bit confusing" or "not sure" OR gives a partially correct answer:** Gently rephrase the previous question, offer a hint, or provide a simple analogy.
    * **If the student explicitly uses a keyword like "I'm lost," "stuck," or "need the answer," OR if they upload an image of a problem:** ONLY THEN provide a detailed, step-by-step explanation.`,
				`**Resource Guidance & Grounding:** **ALWAYS** find 5 relevant external resources for the topic being discussed. You must use the grounding tool for this.`,
			},
		},
	}
}
