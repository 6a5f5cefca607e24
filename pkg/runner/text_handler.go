package runner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
)

// DefaultPromptMarker is printed before each read.
const DefaultPromptMarker = "> "

// TextHandler implements the standard text-based interface.
type TextHandler struct {
	Reader   *bufio.Reader
	Writer   io.Writer
	Renderer ContentRenderer
	Marker   string

	inputChan chan inputResult
	startOnce sync.Once
}

type inputResult struct {
	text string
	err  error
}

// TextHandlerOption defines configuration for TextHandler.
type TextHandlerOption func(*TextHandler)

// WithTextHandlerRenderer configures the answer renderer.
func WithTextHandlerRenderer(renderer ContentRenderer) TextHandlerOption {
	return func(h *TextHandler) {
		h.Renderer = renderer
	}
}

// WithPromptMarker replaces DefaultPromptMarker.
func WithPromptMarker(marker string) TextHandlerOption {
	return func(h *TextHandler) {
		h.Marker = marker
	}
}

// NewTextHandler creates a handler for standard text IO.
func NewTextHandler(r io.Reader, w io.Writer, opts ...TextHandlerOption) *TextHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	h := &TextHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		Marker: DefaultPromptMarker,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// initPump starts the reader goroutine once, so Input can honour ctx even
// though the underlying read blocks.
func (h *TextHandler) initPump() {
	h.startOnce.Do(func() {
		h.inputChan = make(chan inputResult)
		go h.pump()
	})
}

func (h *TextHandler) pump() {
	defer close(h.inputChan)
	for {
		text, err := h.Reader.ReadString('\n')
		if text != "" {
			h.inputChan <- inputResult{text: text}
		}
		if err != nil {
			if err != io.EOF {
				h.inputChan <- inputResult{err: err}
			}
			return
		}
	}
}

// Output prints prompts and answers. Captured questions are not echoed.
func (h *TextHandler) Output(ctx context.Context, views []domain.StepView) (bool, error) {
	for _, v := range views {
		switch v.Kind {
		case domain.StepPrompt:
			fmt.Fprintln(h.Writer, strings.TrimSpace(v.Content))
		case domain.StepBotResponse:
			output := v.Content
			if h.Renderer != nil {
				if rendered, err := h.Renderer(v.Content); err == nil {
					output = rendered
				}
			}
			fmt.Fprintln(h.Writer, strings.TrimSpace(output))
		}
	}
	return needsInput(views), nil
}

// Input prints the prompt marker and waits for one sanitized line.
// Rejected lines are reported and re-read.
func (h *TextHandler) Input(ctx context.Context) (string, error) {
	h.initPump()

	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
			fmt.Fprint(h.Writer, h.Marker)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case res, ok := <-h.inputChan:
			if !ok {
				return "", io.EOF
			}
			if res.err != nil {
				return "", res.err
			}
			clean, err := SanitizeInput(strings.TrimSpace(res.text))
			if err != nil {
				fmt.Fprintf(h.Writer, "Error: %v. Please try again.\n", err)
				continue
			}
			return clean, nil
		}
	}
}

// Signal prints the loading message when generation starts.
func (h *TextHandler) Signal(ctx context.Context, name string, args map[string]any) error {
	if name != SignalGenerating {
		return nil
	}
	if msg, ok := args["message"].(string); ok && msg != "" {
		fmt.Fprintln(h.Writer, msg)
	}
	return nil
}

// SystemOutput prints msg with a "[System]" prefix.
func (h *TextHandler) SystemOutput(ctx context.Context, msg string) error {
	fmt.Fprintf(h.Writer, "\n[System] %s\n", msg)
	return nil
}
