package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/eduai/tutor/backend/internal/analysis/comprehension"
	"github.com/eduai/tutor/backend/internal/analysis/links"
	"github.com/eduai/tutor/backend/internal/model/chat"
	"github.com/eduai/tutor/backend/internal/model/tutor"
	"github.com/eduai/tutor/backend/internal/pkg/logger"
	"github.com/eduai/tutor/backend/internal/service/ai"
	chatservice "github.com/eduai/tutor/backend/internal/service/chat"
)

var (
	ErrEmptyInput            = errors.New("input is empty")
	ErrFeedbackNotExpected   = errors.New("no feedback choice is pending")
	ErrUnknownFeedbackOption = errors.New("unknown feedback option")
	ErrInvalidAttachment     = errors.New("invalid image attachment")
)

// DefaultImageCaption is sent with an image uploaded without any text.
const DefaultImageCaption = "I uploaded an image of a problem I'm working on."

// MaxImageBytes bounds a single uploaded image.
const MaxImageBytes = 7 << 20

var allowedImageTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// Config holds the generation settings applied to every model call.
type Config struct {
	Temperature     float32
	SearchGrounding bool
	Linkify         bool
}

// Controller decides what happens for each input event of a session: it
// appends the student's turn, calls the model with the whole history, and
// derives the feedback affordances from the reply.
type Controller struct {
	gateway ai.Gateway
	tutors  tutor.Store
	prompts *ai.PromptBuilder
	links   links.Table
	cfg     Config
	log     *logger.Logger
}

// NewController wires a controller. A nil link table disables link
// post-processing.
func NewController(gateway ai.Gateway, tutors tutor.Store, table links.Table, cfg Config, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.NewNop()
	}
	if !cfg.Linkify {
		table = nil
	}
	return &Controller{
		gateway: gateway,
		tutors:  tutors,
		prompts: ai.NewPromptBuilder(len(table) > 0),
		links:   table,
		cfg:     cfg,
		log:     log.With("component", "tutor"),
	}
}

// SubmitText handles typed input. Free text is always accepted, even when a
// feedback choice is pending; the pending choice is dropped.
func (c *Controller) SubmitText(ctx context.Context, session *chatservice.Session, text string) (Snapshot, error) {
	if strings.TrimSpace(text) == "" {
		return c.Snapshot(session), ErrEmptyInput
	}

	end := session.BeginEvent()
	defer end()

	return c.submit(ctx, session, chat.Turn{Role: chat.RoleUser, Content: text})
}

// SubmitImage handles an uploaded image with an optional caption.
func (c *Controller) SubmitImage(ctx context.Context, session *chatservice.Session, caption string, image chat.Attachment) (Snapshot, error) {
	if err := validateImage(image); err != nil {
		return c.Snapshot(session), err
	}
	if strings.TrimSpace(caption) == "" {
		caption = DefaultImageCaption
	}

	end := session.BeginEvent()
	defer end()

	return c.submit(ctx, session, chat.Turn{Role: chat.RoleUser, Content: caption, Image: &image})
}

// SubmitFeedback handles a click on one of the checkpoint buttons. The
// option's label becomes a synthetic user turn.
func (c *Controller) SubmitFeedback(ctx context.Context, session *chatservice.Session, label string) (Snapshot, error) {
	end := session.BeginEvent()
	defer end()

	profile, err := c.profile(session)
	if err != nil {
		return c.Snapshot(session), err
	}
	option, ok := profile.FindOption(label)
	if !ok {
		return c.Snapshot(session), fmt.Errorf("%w: %q", ErrUnknownFeedbackOption, label)
	}

	var turn chat.Turn
	expected := true
	session.Update(func(m *chatservice.Mutable) {
		if m.State() != chatservice.StateAwaitingFeedbackChoice {
			expected = false
			return
		}
		feedback := m.Feedback()
		feedback.AwaitingChoice = false
		feedback.PendingSubmission = true
		turn = m.Conversation().Append(chat.Turn{Role: chat.RoleUser, Content: option.Label, Display: option.Label, Feedback: true})
		m.SetState(chatservice.StateProcessingSubmission)
	})
	if !expected {
		return c.Snapshot(session), ErrFeedbackNotExpected
	}

	c.log.Debug("feedback selected", "session", session.ID(), "label", option.Label, "turn", turn.ID)
	return c.process(ctx, session, profile), nil
}

// submit performs transitions 1 and 3: append the student's turn, clear any
// pending feedback choice and process it.
func (c *Controller) submit(ctx context.Context, session *chatservice.Session, turn chat.Turn) (Snapshot, error) {
	profile, err := c.profile(session)
	if err != nil {
		return c.Snapshot(session), err
	}

	turn.Display = turn.Content
	session.Update(func(m *chatservice.Mutable) {
		feedback := m.Feedback()
		feedback.AwaitingChoice = false
		feedback.PendingSubmission = false
		m.Conversation().Append(turn)
		m.SetState(chatservice.StateProcessingSubmission)
	})

	return c.process(ctx, session, profile), nil
}

// process performs transition 4. It always appends exactly one assistant
// turn, whether the model call succeeds or fails.
func (c *Controller) process(ctx context.Context, session *chatservice.Session, profile tutor.Profile) Snapshot {
	var (
		history      []chat.Turn
		fromFeedback bool
	)
	session.Update(func(m *chatservice.Mutable) {
		history = Payload(m.Conversation().Turns())
		feedback := m.Feedback()
		fromFeedback = feedback.PendingSubmission
		feedback.PendingSubmission = false
	})

	req := ai.Request{
		SystemInstruction: c.prompts.BuildSystemInstruction(profile),
		Turns:             history,
		Options: ai.Options{
			EnableSearchGrounding: c.cfg.SearchGrounding,
			Temperature:           c.cfg.Temperature,
		},
	}

	// The student cannot abort a call in flight; only the transport timeout
	// applies.
	text, err := c.gateway.Generate(context.WithoutCancel(ctx), req)

	reply := chat.Turn{Role: chat.RoleAssistant}
	if err != nil {
		c.log.Error("model call failed", "session", session.ID(), "feedback", fromFeedback, "error", err)
		reply.Content = ErrorReply(err)
		reply.Error = true
	} else {
		reply.Content = links.Rewrite(text, c.links)
	}
	reply.Display, reply.Checkpoint = StripSentinel(reply.Content, profile.SentinelPhrase)

	session.Update(func(m *chatservice.Mutable) {
		m.Conversation().Append(reply)
		m.Feedback().AwaitingChoice = reply.Checkpoint
		if reply.Checkpoint {
			m.SetState(chatservice.StateAwaitingFeedbackChoice)
		} else {
			m.SetState(chatservice.StateIdle)
		}
	})

	c.log.Info("turn completed",
		"session", session.ID(),
		"turns", len(history),
		"signal", studentSignal(history),
		"checkpoint", reply.Checkpoint,
		"error", reply.Error,
		"feedback", fromFeedback,
	)
	return c.Snapshot(session)
}

func (c *Controller) profile(session *chatservice.Session) (tutor.Profile, error) {
	profile, ok := c.tutors.FindByID(session.Meta().TutorID)
	if !ok {
		return tutor.Profile{}, chatservice.ErrTutorNotFound
	}
	return profile, nil
}

// studentSignal reports how the newest student turn says they are doing.
func studentSignal(history []chat.Turn) comprehension.Signal {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == chat.RoleUser {
			return comprehension.Analyze(history[i].Content).Signal
		}
	}
	return comprehension.Unknown
}

// Payload returns the turns sent to the model: the conversation without the
// welcome turn and without empty turns, in order.
func Payload(turns []chat.Turn) []chat.Turn {
	if len(turns) <= 1 {
		return nil
	}
	payload := make([]chat.Turn, 0, len(turns)-1)
	for _, turn := range turns[1:] {
		if strings.TrimSpace(turn.Content) == "" && !turn.HasImage() {
			continue
		}
		payload = append(payload, turn)
	}
	return payload
}

// StripSentinel reports whether content contains the exact, case-sensitive
// sentinel and returns the text to display: the content with every occurrence
// removed and surrounding whitespace trimmed.
func StripSentinel(content, sentinel string) (string, bool) {
	if sentinel == "" || !strings.Contains(content, sentinel) {
		return content, false
	}
	return strings.TrimSpace(strings.ReplaceAll(content, sentinel, "")), true
}

// ErrorReply is the assistant text shown when the model call fails.
func ErrorReply(err error) string {
	return fmt.Sprintf("🚨 **Error:** Failed to communicate with the AI Tutor. Details: %v", err)
}

func validateImage(image chat.Attachment) error {
	if len(image.Data) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidAttachment)
	}
	if len(image.Data) > MaxImageBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrInvalidAttachment, len(image.Data), MaxImageBytes)
	}
	if !allowedImageTypes[strings.ToLower(image.MIMEType)] {
		return fmt.Errorf("%w: unsupported type %q", ErrInvalidAttachment, image.MIMEType)
	}
	return nil
}
