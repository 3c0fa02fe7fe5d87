package autocomplete

import (
	"context"
	"strings"
	"sync"
	"time"

	"flightbook/pkg/logger"
)

// Field names one autocomplete input. Origin and destination run
// independent state machines.
type Field string

const (
	FieldOrigin      Field = "origin"
	FieldDestination Field = "destination"
)

type State string

const (
	StateIdle    State = "idle"
	StatePending State = "pending"
	StateShowing State = "showing"
)

const (
	defaultDebounce = 500 * time.Millisecond
	minKeywordLen   = 2
)

// Suggestion is one city candidate. Suggestions are transient; every new
// lookup batch supersedes the previous one.
type Suggestion struct {
	ID       string `json:"id"`
	CityName string `json:"cityName"`
	IataCode string `json:"iataCode"`
}

// Label is the committed form of a suggestion, "<cityName> (<IATA>)".
func (s Suggestion) Label() string {
	return s.CityName + " (" + s.IataCode + ")"
}

type LookupFunc func(ctx context.Context, keyword string) ([]Suggestion, error)

// Result is delivered once per Input call: the winning suggestions, a
// lookup error, or Stale when a newer input superseded this one.
type Result struct {
	Suggestions []Suggestion
	Stale       bool
	Err         error
}

// Snapshot is the render state of one field. Suggestions are only exposed
// for the currently focused field.
type Snapshot struct {
	Field       Field        `json:"field"`
	State       State        `json:"state"`
	Text        string       `json:"text"`
	Suggestions []Suggestion `json:"suggestions,omitempty"`
	Error       string       `json:"error,omitempty"`
}

type fieldState struct {
	state       State
	text        string
	generation  uint64
	timer       *time.Timer
	waiter      chan Result
	suggestions []Suggestion
	lastErr     error
}

// Controller debounces free-text input per field and guards against
// out-of-order lookup completions: every input bumps the field's
// generation, and a completion whose generation is stale is discarded.
type Controller struct {
	mu       sync.Mutex
	lookup   LookupFunc
	debounce time.Duration
	fields   map[Field]*fieldState
	focused  Field
	closed   bool
	logger   logger.Client
}

type Option func(*Controller)

// WithDebounce overrides the 500ms debounce window; used by tests.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) {
		c.debounce = d
	}
}

func NewController(lookup LookupFunc, log logger.Client, opts ...Option) *Controller {
	c := &Controller{
		lookup:   lookup,
		debounce: defaultDebounce,
		fields:   make(map[Field]*fieldState),
		logger:   log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) field(f Field) *fieldState {
	fs, ok := c.fields[f]
	if !ok {
		fs = &fieldState{state: StateIdle}
		c.fields[f] = fs
	}
	return fs
}

// supersede invalidates any outstanding lookup for the field: pending
// timers are stopped and the previous waiter is told its input lost.
// Callers must hold the mutex.
func (c *Controller) supersede(fs *fieldState) {
	fs.generation++
	if fs.timer != nil {
		fs.timer.Stop()
		fs.timer = nil
	}
	if fs.waiter != nil {
		fs.waiter <- Result{Stale: true}
		fs.waiter = nil
	}
}

// Focus marks the field as active; suggestions render only for the
// focused field.
func (c *Controller) Focus(f Field) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focused = f
}

// Blur returns the field to idle regardless of lookup state. A completion
// arriving after Blur is discarded, not applied.
func (c *Controller) Blur(f Field) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fs := c.field(f)
	c.supersede(fs)
	fs.state = StateIdle
	fs.suggestions = nil
	fs.lastErr = nil
	if c.focused == f {
		c.focused = ""
	}
}

// Input feeds one keystroke's worth of text. It restarts the field's
// debounce window; only the last input within the window dispatches a
// lookup. The returned channel delivers exactly one Result for this input.
func (c *Controller) Input(ctx context.Context, f Field, text string) <-chan Result {
	ch := make(chan Result, 1)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		ch <- Result{Stale: true}
		return ch
	}

	fs := c.field(f)
	c.supersede(fs)
	c.focused = f
	fs.text = text

	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minKeywordLen {
		fs.state = StateIdle
		fs.suggestions = nil
		fs.lastErr = nil
		ch <- Result{}
		return ch
	}

	fs.state = StatePending
	fs.waiter = ch
	gen := fs.generation
	fs.timer = time.AfterFunc(c.debounce, func() {
		c.dispatch(ctx, f, trimmed, gen)
	})
	return ch
}

func (c *Controller) dispatch(ctx context.Context, f Field, keyword string, gen uint64) {
	c.mu.Lock()
	fs := c.field(f)
	if c.closed || gen != fs.generation {
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	suggestions, err := c.lookup(ctx, keyword)

	c.mu.Lock()
	defer c.mu.Unlock()

	// The input may have changed while the lookup was in flight; a stale
	// completion must never overwrite a newer result.
	if c.closed || gen != fs.generation {
		return
	}

	ch := fs.waiter
	fs.waiter = nil
	fs.timer = nil

	if err != nil {
		c.logger.Error("city lookup failed",
			logger.Field{Key: "field", Value: string(f)},
			logger.Field{Key: "err", Value: err},
		)
		fs.state = StateIdle
		fs.suggestions = nil
		fs.lastErr = err
		if ch != nil {
			ch <- Result{Err: err}
		}
		return
	}

	fs.state = StateShowing
	fs.suggestions = suggestions
	fs.lastErr = nil
	if ch != nil {
		ch <- Result{Suggestions: suggestions}
	}
}

// Select commits a suggestion into the field and clears the list.
// Returns the committed label.
func (c *Controller) Select(f Field, s Suggestion) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	fs := c.field(f)
	c.supersede(fs)
	fs.text = s.Label()
	fs.state = StateIdle
	fs.suggestions = nil
	fs.lastErr = nil
	if c.focused == f {
		c.focused = ""
	}
	return fs.text
}

// Snapshot reports the field's render state. Suggestions for a field that
// is not focused are withheld.
func (c *Controller) Snapshot(f Field) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	fs := c.field(f)
	snap := Snapshot{
		Field: f,
		State: fs.state,
		Text:  fs.text,
	}
	if c.focused == f {
		snap.Suggestions = append([]Suggestion(nil), fs.suggestions...)
	}
	if fs.lastErr != nil {
		snap.Error = "Failed to fetch city suggestions. Try again later."
	}
	return snap
}

// Close stops all pending debounce timers and releases outstanding
// waiters. Completions after Close are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	for _, fs := range c.fields {
		c.supersede(fs)
	}
}
