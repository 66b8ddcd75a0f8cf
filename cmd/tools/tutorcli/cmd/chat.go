package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eduai/tutor/backend/internal/analysis/links"
	"github.com/eduai/tutor/backend/internal/config"
	"github.com/eduai/tutor/backend/internal/model/chat"
	"github.com/eduai/tutor/backend/internal/model/tutor"
	"github.com/eduai/tutor/backend/internal/pkg/logger"
	"github.com/eduai/tutor/backend/internal/service/ai"
	chatservice "github.com/eduai/tutor/backend/internal/service/chat"
	tutorservice "github.com/eduai/tutor/backend/internal/service/tutor"
)

var chatFlags struct {
	tutorID string
	verbose bool
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive tutoring session",
	Long: `Starts a tutoring session. Type a question and press enter.

Commands:
  /1 ... /4              pick a feedback option when one is offered
  /image <path> [caption] send an image of a problem
  /quit                  end the session`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatFlags.tutorID, "tutor", tutor.DefaultID, "tutor profile id")
	chatCmd.Flags().BoolVar(&chatFlags.verbose, "verbose", false, "log to stderr")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewNop()
	if chatFlags.verbose {
		if log, err = logger.New("dev"); err != nil {
			return err
		}
		defer log.Sync()
	}

	gateway, err := ai.NewGateway(ctx, cfg.AI, log)
	if err != nil {
		return err
	}

	store := tutor.NewMemoryStore(tutor.Seed())
	profile, ok := store.FindByID(chatFlags.tutorID)
	if !ok {
		return fmt.Errorf("unknown tutor %q", chatFlags.tutorID)
	}

	controller := tutorservice.NewController(gateway, store, links.DefaultTable(), tutorservice.Config{
		Temperature:     cfg.Tutor.Temperature,
		SearchGrounding: cfg.Tutor.SearchGrounding,
		Linkify:         cfg.Tutor.Linkify,
	}, log)
	session := chatservice.NewStandaloneSession(chat.Session{ID: "terminal", TutorID: profile.ID}, profile.WelcomeMessage)

	return newREPL(controller, session, cmd.InOrStdin(), cmd.OutOrStdout()).run(ctx)
}

type repl struct {
	controller *tutorservice.Controller
	session    *chatservice.Session
	in         *bufio.Scanner
	out        io.Writer
	printed    int
}

func newREPL(controller *tutorservice.Controller, session *chatservice.Session, in io.Reader, out io.Writer) *repl {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 64*1024), 1<<20)
	return &repl{controller: controller, session: session, in: scanner, out: out}
}

func (r *repl) run(ctx context.Context) error {
	snap := r.controller.Snapshot(r.session)
	r.print(snap)

	for {
		fmt.Fprint(r.out, "> ")
		if !r.in.Scan() {
			fmt.Fprintln(r.out)
			return r.in.Err()
		}

		line := strings.TrimSpace(r.in.Text())
		if line == "/quit" {
			return nil
		}

		next, err := r.handle(ctx, snap, line)
		if err != nil {
			fmt.Fprintf(r.out, "! %v\n", err)
			continue
		}
		snap = next
		r.print(snap)
	}
}

func (r *repl) handle(ctx context.Context, snap tutorservice.Snapshot, line string) (tutorservice.Snapshot, error) {
	switch {
	case strings.HasPrefix(line, "/image "):
		path, caption, _ := strings.Cut(strings.TrimSpace(strings.TrimPrefix(line, "/image ")), " ")
		image, err := readImage(path)
		if err != nil {
			return snap, err
		}
		return r.controller.SubmitImage(ctx, r.session, caption, image)
	case isOptionCommand(line):
		n, _ := strconv.Atoi(line[1:])
		if !snap.AwaitingFeedback || n < 1 || n > len(snap.FeedbackOptions) {
			return snap, tutorservice.ErrFeedbackNotExpected
		}
		return r.controller.SubmitFeedback(ctx, r.session, snap.FeedbackOptions[n-1].Label)
	default:
		next, err := r.controller.SubmitText(ctx, r.session, line)
		if errors.Is(err, tutorservice.ErrEmptyInput) {
			return next, nil
		}
		return next, err
	}
}

func (r *repl) print(snap tutorservice.Snapshot) {
	for _, turn := range snap.Turns[min(r.printed, len(snap.Turns)):] {
		prefix := "tutor"
		if turn.Role == chat.RoleUser {
			prefix = "you"
		}
		if turn.Role == chat.RoleUser && !turn.Feedback && !turn.HasImage() {
			// Typed input is already on screen.
			continue
		}
		fmt.Fprintf(r.out, "%s: %s\n\n", prefix, turn.Rendered())
	}
	r.printed = len(snap.Turns)

	if snap.AwaitingFeedback {
		fmt.Fprintln(r.out, snap.FeedbackPrompt)
		for i, option := range snap.FeedbackOptions {
			fmt.Fprintf(r.out, "  /%d %s %s\n", i+1, option.Icon, option.Label)
		}
	}
}

func isOptionCommand(line string) bool {
	if len(line) < 2 || line[0] != '/' {
		return false
	}
	_, err := strconv.Atoi(line[1:])
	return err == nil
}

func readImage(path string) (chat.Attachment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return chat.Attachment{}, err
	}

	mimeType := http.DetectContentType(data)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".heic":
		mimeType = "image/heic"
	case ".heif":
		mimeType = "image/heif"
	}
	return chat.Attachment{Name: filepath.Base(path), MIMEType: mimeType, Data: data}, nil
}
