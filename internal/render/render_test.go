package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduai/tutor/backend/internal/analysis/links"
	"github.com/eduai/tutor/backend/internal/model/chat"
	"github.com/eduai/tutor/backend/internal/model/tutor"
	chatservice "github.com/eduai/tutor/backend/internal/service/chat"
	tutorservice "github.com/eduai/tutor/backend/internal/service/tutor"
)

func TestMarkdownRendersEmphasisAndLists(t *testing.T) {
	out := Markdown("**Error:** something\n\n- one\n- two")
	assert.Contains(t, out, "<strong>Error:</strong>")
	assert.Contains(t, out, "<li>one</li>")
}

func TestMarkdownKeepsLinkFragments(t *testing.T) {
	text := "- " + links.Anchor("Photosynthesis", "https://example.org/p") + links.Suffix
	out := Markdown(text)
	assert.Contains(t, out, `<a href="https://example.org/p" target="_blank" rel="noopener">Photosynthesis</a> - Read more`)
}

func TestMarkdownEmpty(t *testing.T) {
	assert.Empty(t, Markdown(""))
}

func TestStudentTurnDoesNotRenderRawHTML(t *testing.T) {
	view := Turn(chat.Turn{
		ID:      "t1",
		Role:    chat.RoleUser,
		Content: `look <img src=x onerror="alert(1)"> and [here](javascript:alert(1))`,
	})
	assert.NotContains(t, view.HTML, "<img")
	assert.NotContains(t, view.HTML, "onerror")
	assert.NotContains(t, view.HTML, "javascript:")
}

func TestAssistantTurnKeepsLinkFragments(t *testing.T) {
	view := Turn(chat.Turn{
		ID:      "t2",
		Role:    chat.RoleAssistant,
		Content: "- " + links.Anchor("Photosynthesis", "https://example.org/p") + links.Suffix,
	})
	assert.Contains(t, view.HTML, `<a href="https://example.org/p"`)
}

func TestTurnUsesDisplayText(t *testing.T) {
	turn := chat.Turn{
		ID:         "t1",
		Role:       chat.RoleAssistant,
		Content:    "Think about it.\nHow are you feeling about this topic?",
		Display:    "Think about it.",
		Checkpoint: true,
	}
	view := Turn(turn)
	assert.Equal(t, "Think about it.", view.Content)
	assert.NotContains(t, view.HTML, "How are you feeling")
}

func TestSnapshotListsOptionsOnlyWhenAwaiting(t *testing.T) {
	turns := []chat.Turn{{ID: "w", Role: chat.RoleAssistant, Content: "Hello!", Display: "Hello!"}}

	idle := Snapshot(tutorservice.Snapshot{SessionID: "s", State: chatservice.StateIdle, Turns: turns})
	assert.NotNil(t, idle.FeedbackOptions)
	assert.Empty(t, idle.FeedbackOptions)
	assert.Equal(t, "idle", idle.State)

	awaiting := Snapshot(tutorservice.Snapshot{
		SessionID:        "s",
		State:            chatservice.StateAwaitingFeedbackChoice,
		Turns:            turns,
		AwaitingFeedback: true,
		FeedbackPrompt:   "What would you like to do next?",
		FeedbackOptions:  tutor.DefaultFeedbackOptions(),
	})
	require.Len(t, awaiting.FeedbackOptions, 4)
	assert.Equal(t, "I get it!", awaiting.FeedbackOptions[0].Label)
	require.Len(t, awaiting.Turns, 1)
	assert.True(t, strings.HasPrefix(awaiting.Turns[0].HTML, "<p>Hello!"))
}
