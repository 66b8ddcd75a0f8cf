package render

import (
	"bytes"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// Goldmark instances are immutable once built and safe to share; each
// Convert call keeps its own state.
var (
	assistantMarkdown goldmark.Markdown
	studentMarkdown   goldmark.Markdown
	markdownOnce      sync.Once
)

func newMarkdown(rawHTML bool) goldmark.Markdown {
	options := []renderer.Option{html.WithHardWraps()}
	if rawHTML {
		options = append(options, html.WithUnsafe())
	}
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
		),
		goldmark.WithRendererOptions(options...),
	)
}

func initMarkdown() {
	markdownOnce.Do(func() {
		// Assistant text may carry anchor fragments from the link
		// post-processor. Student text never renders raw HTML.
		assistantMarkdown = newMarkdown(true)
		studentMarkdown = newMarkdown(false)
	})
}

// Markdown converts assistant text to HTML, keeping inline HTML. Conversion
// failures fall back to the escaped source so a turn is never dropped from
// the transcript.
func Markdown(source string) string {
	initMarkdown()
	return convert(assistantMarkdown, source)
}

// StudentMarkdown converts text typed by the student. Raw HTML is omitted
// and unsafe link targets are dropped.
func StudentMarkdown(source string) string {
	initMarkdown()
	return convert(studentMarkdown, source)
}

func convert(md goldmark.Markdown, source string) string {
	if source == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "<p>" + string(util.EscapeHTML([]byte(source))) + "</p>"
	}
	return buf.String()
}
