package runner

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/bytedance/sonic"
)

// JSONHandler implements IOHandler over newline-delimited JSON.
//
// Each output line is one object: a step view, a {"signal": ...} event or a
// {"system": ...} message. Input lines may be a JSON string, an object with an
// "input" field, or raw text.
type JSONHandler struct {
	Reader *bufio.Reader
	Writer io.Writer

	mu  sync.Mutex
	enc sonic.Encoder
}

type signalLine struct {
	Signal string         `json:"signal"`
	Args   map[string]any `json:"args,omitempty"`
}

type systemLine struct {
	System string `json:"system"`
}

type inputLine struct {
	Input string `json:"input"`
}

// NewJSONHandler creates a handler for JSON IO.
func NewJSONHandler(r io.Reader, w io.Writer) *JSONHandler {
	if r == nil {
		r = os.Stdin
	}
	if w == nil {
		w = os.Stdout
	}
	return &JSONHandler{
		Reader: bufio.NewReader(r),
		Writer: w,
		enc:    sonic.ConfigDefault.NewEncoder(w),
	}
}

// Output emits one line per view.
func (h *JSONHandler) Output(ctx context.Context, views []domain.StepView) (bool, error) {
	for _, v := range views {
		if err := h.emit(v); err != nil {
			return false, err
		}
	}
	return needsInput(views), nil
}

// Input reads one line.
func (h *JSONHandler) Input(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := h.Reader.ReadString('\n')
	if err != nil && (err != io.EOF || strings.TrimSpace(text) == "") {
		return "", err
	}
	text = strings.TrimSpace(text)

	var val string
	var obj inputLine
	switch {
	case sonic.UnmarshalString(text, &val) == nil:
	case strings.HasPrefix(text, "{") && sonic.UnmarshalString(text, &obj) == nil:
		val = obj.Input
	default:
		val = text
	}
	return SanitizeInput(val)
}

// Signal emits a signal line.
func (h *JSONHandler) Signal(ctx context.Context, name string, args map[string]any) error {
	return h.emit(signalLine{Signal: name, Args: args})
}

// SystemOutput emits a system line.
func (h *JSONHandler) SystemOutput(ctx context.Context, msg string) error {
	return h.emit(systemLine{System: msg})
}

func (h *JSONHandler) emit(v any) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enc.Encode(v)
}
