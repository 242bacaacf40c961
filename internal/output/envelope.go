package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Response is the success envelope for JSON output.
type Response struct {
	OK      bool           `json:"ok"`
	Data    any            `json:"data,omitempty"`
	Summary string         `json:"summary,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// ErrorResponse is the error envelope for JSON output.
type ErrorResponse struct {
	OK     bool            `json:"ok"`
	Error  string          `json:"error"`
	Code   string          `json:"code"`
	Hint   string          `json:"hint,omitempty"`
	Detail json.RawMessage `json:"detail,omitempty"`
}

// Format specifies the output format.
type Format int

const (
	FormatAuto Format = iota // Auto-detect: TTY → Text, non-TTY → JSON
	FormatJSON
	FormatText
	FormatQuiet // Data only, no envelope
)

// Options controls output behavior.
type Options struct {
	Format Format
	Writer io.Writer
	JQ     string // optional gojq expression applied to data
}

// Writer handles all output formatting.
type Writer struct {
	opts Options
}

// New creates a new output writer.
func New(opts Options) *Writer {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}
	return &Writer{opts: opts}
}

// ResponseOption customizes a success response.
type ResponseOption func(*Response)

// WithSummary sets a one-line summary on the response.
func WithSummary(format string, args ...any) ResponseOption {
	return func(r *Response) {
		r.Summary = fmt.Sprintf(format, args...)
	}
}

// WithMeta attaches a metadata key to the response.
func WithMeta(key string, value any) ResponseOption {
	return func(r *Response) {
		if r.Meta == nil {
			r.Meta = make(map[string]any)
		}
		r.Meta[key] = value
	}
}

// OK outputs a success response.
func (w *Writer) OK(data any, opts ...ResponseOption) error {
	if w.opts.JQ != "" {
		filtered, err := applyJQ(w.opts.JQ, data)
		if err != nil {
			return err
		}
		data = filtered
	}

	resp := &Response{OK: true, Data: data}
	for _, opt := range opts {
		opt(resp)
	}
	return w.write(resp)
}

// Text outputs pre-rendered text in text mode, or falls back to the
// envelope in JSON mode.
func (w *Writer) Text(rendered string, data any, opts ...ResponseOption) error {
	if w.resolveFormat() == FormatText && w.opts.JQ == "" {
		_, err := fmt.Fprintln(w.opts.Writer, rendered)
		return err
	}
	return w.OK(data, opts...)
}

// Err outputs an error response.
func (w *Writer) Err(err error) error {
	e := AsError(err)
	resp := &ErrorResponse{
		OK:     false,
		Error:  e.Message,
		Code:   e.Code,
		Hint:   e.Hint,
		Detail: e.Detail,
	}
	if w.resolveFormat() == FormatText {
		if e.Hint != "" {
			_, werr := fmt.Fprintf(w.opts.Writer, "error: %s\nhint: %s\n", e.Message, e.Hint)
			return werr
		}
		_, werr := fmt.Fprintf(w.opts.Writer, "error: %s\n", e.Message)
		return werr
	}
	return w.writeJSON(resp)
}

func (w *Writer) resolveFormat() Format {
	format := w.opts.Format
	if format == FormatAuto {
		if isTTY(w.opts.Writer) {
			return FormatText
		}
		return FormatJSON
	}
	return format
}

func (w *Writer) write(resp *Response) error {
	switch w.resolveFormat() {
	case FormatQuiet:
		return w.writeJSON(resp.Data)
	case FormatText:
		if resp.Summary != "" {
			if _, err := fmt.Fprintln(w.opts.Writer, resp.Summary); err != nil {
				return err
			}
		}
		return w.writeJSON(resp.Data)
	default:
		return w.writeJSON(resp)
	}
}

func (w *Writer) writeJSON(v any) error {
	enc := json.NewEncoder(w.opts.Writer)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// isTTY reports whether the writer is a character device.
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
