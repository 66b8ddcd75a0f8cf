package ai

import (
	"fmt"
	"strings"

	"github.com/eduai/tutor/backend/internal/model/tutor"
)

// PromptBuilder turns a tutor profile into the model's system instruction.
type PromptBuilder struct {
	// ReadMoreLinks asks the model to emit "<Topic> - Read more" bullets for
	// well-known topics so the link post-processor can attach curated links.
	ReadMoreLinks bool
}

// NewPromptBuilder creates a builder.
func NewPromptBuilder(readMoreLinks bool) *PromptBuilder {
	return &PromptBuilder{ReadMoreLinks: readMoreLinks}
}

// BuildSystemInstruction renders the fixed Socratic instruction for profile.
func (b *PromptBuilder) BuildSystemInstruction(profile tutor.Profile) string {
	subjects := "Science and Math"
	if len(profile.Subjects) > 0 {
		subjects = joinWithAnd(profile.Subjects)
	}
	tone := profile.Tone
	if tone == "" {
		tone = "patient, encouraging, and supportive"
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "You are '%s,' a personalized, Socratic AI learning companion specializing in high school level %s. ", profile.Name, subjects)
	builder.WriteString("Your primary goal is to foster deep understanding, critical thinking, and problem-solving skills.\n\n")
	builder.WriteString("CORE METHODOLOGY: \"GUIDE, DON'T JUST GIVE.\"\n\n")
	builder.WriteString("STRICT RULES:\n")

	n := 0
	for _, rule := range profile.Rules {
		n++
		fmt.Fprintf(&builder, "%d.  %s\n", n, rule)
	}
	n++
	fmt.Fprintf(&builder, "%d.  **Tone:** Maintain a %s tone at all times.\n\n", n, tone)

	builder.WriteString("RESPONSE STRUCTURE: Every response MUST conclude with two sections.\n")
	builder.WriteString("1.  **\"📚 Related Resources for Deeper Learning:\"** followed by a bulleted list of 5 topics and their generated links. ")
	builder.WriteString("**Crucially, format these as standard Markdown links: `[Topic Name](URL)`**.")
	if b.ReadMoreLinks {
		builder.WriteString(" For a well-known curriculum topic you may instead write the bullet exactly as `Topic Name - Read more`; the link is added for you.")
	}
	builder.WriteString("\n")

	if profile.SentinelPhrase != "" {
		fmt.Fprintf(&builder, "2.  **The final line of your response MUST be the exact sentence: \"%s\"** ", profile.SentinelPhrase)
		builder.WriteString("DO NOT include the predefined student response options")
		if labels := optionLabels(profile.FeedbackOptions); labels != "" {
			fmt.Fprintf(&builder, " (e.g., %s, etc.)", labels)
		}
		builder.WriteString(" in your text, as the UI handles the buttons.\n")
	}

	return builder.String()
}

func optionLabels(options []tutor.FeedbackOption) string {
	quoted := make([]string, 0, 2)
	for _, opt := range options {
		if len(quoted) == 2 {
			break
		}
		quoted = append(quoted, fmt.Sprintf("%q", opt.Label))
	}
	return strings.Join(quoted, ", ")
}

func joinWithAnd(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return strings.Join(items[:len(items)-1], ", ") + " and " + items[len(items)-1]
	}
}
