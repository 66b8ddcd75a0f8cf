package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduai/tutor/backend/internal/model/chat"
	"github.com/eduai/tutor/backend/internal/model/tutor"
	"github.com/eduai/tutor/backend/internal/service/ai"
	chatservice "github.com/eduai/tutor/backend/internal/service/chat"
	tutorservice "github.com/eduai/tutor/backend/internal/service/tutor"
)

type queueGateway struct {
	replies []string
}

func (g *queueGateway) Generate(context.Context, ai.Request) (string, error) {
	reply := g.replies[0]
	g.replies = g.replies[1:]
	return reply, nil
}

func TestREPLTextAndFeedback(t *testing.T) {
	store := tutor.NewMemoryStore(tutor.Seed())
	profile, _ := store.FindByID("")
	gateway := &queueGateway{replies: []string{
		"What do you already know?\nHow are you feeling about this topic?",
		"Here is a step-by-step explanation.",
	}}
	controller := tutorservice.NewController(gateway, store, nil, tutorservice.Config{}, nil)
	session := chatservice.NewStandaloneSession(chat.Session{ID: "test", TutorID: profile.ID}, profile.WelcomeMessage)

	in := strings.NewReader("What is entropy?\n/3\n/quit\n")
	var out bytes.Buffer
	require.NoError(t, newREPL(controller, session, in, &out).run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "tutor: Hello! I am EduAI Tutor")
	assert.Contains(t, text, "tutor: What do you already know?")
	assert.NotContains(t, text, "How are you feeling about this topic?")
	assert.Contains(t, text, "/3 👎 I'm lost.")
	assert.Contains(t, text, "you: I'm lost.")
	assert.Contains(t, text, "tutor: Here is a step-by-step explanation.")
	assert.Len(t, session.View().Turns, 5)
}

func TestREPLRejectsOptionWithoutCheckpoint(t *testing.T) {
	store := tutor.NewMemoryStore(tutor.Seed())
	profile, _ := store.FindByID("")
	controller := tutorservice.NewController(&queueGateway{}, store, nil, tutorservice.Config{}, nil)
	session := chatservice.NewStandaloneSession(chat.Session{ID: "test", TutorID: profile.ID}, profile.WelcomeMessage)

	var out bytes.Buffer
	require.NoError(t, newREPL(controller, session, strings.NewReader("/1\n"), &out).run(context.Background()))

	assert.Contains(t, out.String(), "! "+tutorservice.ErrFeedbackNotExpected.Error())
	assert.Len(t, session.View().Turns, 1)
}

func TestIsOptionCommand(t *testing.T) {
	assert.True(t, isOptionCommand("/2"))
	assert.False(t, isOptionCommand("/image a.png"))
	assert.False(t, isOptionCommand("/"))
	assert.False(t, isOptionCommand("2"))
}
