package scan

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
)

// Options tune how a Controller turns keystrokes into submissions
type Options struct {
	Debounce  time.Duration // quiet period before auto-submit
	MinLength int           // auto-submit only once the text is at least this long
	Auto      bool          // auto-submit for scanners that never send Enter
	Cooldown  time.Duration // see Latch
}

// DefaultOptions matches a hardware scanner emitting 12-character barcodes
func DefaultOptions() Options {
	return Options{
		Debounce:  120 * time.Millisecond,
		MinLength: 12,
		Auto:      true,
	}
}

// Session is what a terminal renders for one scan input
type Session struct {
	Text        string   `json:"text"`
	State       State    `json:"-"`
	Message     string   `json:"message"`
	IsError     bool     `json:"is_error"`
	Severity    Severity `json:"severity,omitempty"`
	Focused     bool     `json:"focused"`
	Submissions int      `json:"submissions"`
	Last        *Outcome `json:"last,omitempty"`
}

type eventKind int

const (
	evText eventKind = iota
	evKey
	evBackspace
	evEnter
	evDismiss
	evDone
)

type event struct {
	kind    eventKind
	text    string
	r       rune
	outcome Outcome
}

// Controller owns one scan input. Keystrokes feed a debounce timer, Enter is an explicit commit,
// and both merge into a single submit path guarded by a Latch, so a scanner that types fast and
// then sends Enter still produces exactly one submission.
//
// Run must be running for the input methods to make progress.
type Controller struct {
	name    string
	opts    Options
	handler Handler
	latch   *Latch
	events  chan event

	mu      sync.Mutex
	session Session

	// OnChange, when set before Run, receives every session update
	OnChange func(Session)
}

// NewController creates a controller that submits codes to h
func NewController(name string, opts Options, h Handler) *Controller {
	return &Controller{
		name:    name,
		opts:    opts,
		handler: h,
		latch:   NewLatch(opts.Cooldown),
		events:  make(chan event, 64),
		session: Session{Focused: true},
	}
}

// Type replaces the input text, as a controlled text field does on every keystroke
func (c *Controller) Type(text string) { c.events <- event{kind: evText, text: text} }

// Key appends one character
func (c *Controller) Key(r rune) { c.events <- event{kind: evKey, r: r} }

// Backspace removes the last character
func (c *Controller) Backspace() { c.events <- event{kind: evBackspace} }

// Enter commits the current text
func (c *Controller) Enter() { c.events <- event{kind: evEnter} }

// Dismiss acknowledges an alert and hands focus back to the input
func (c *Controller) Dismiss() { c.events <- event{kind: evDismiss} }

// Snapshot returns the current session
func (c *Controller) Snapshot() Session {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()
	s.State = c.latch.State()
	return s
}

// Run processes input events until ctx is cancelled
func (c *Controller) Run(ctx context.Context) {
	var debounce *time.Timer
	var fire <-chan time.Time
	disarm := func() {
		if debounce != nil {
			debounce.Stop()
		}
		fire = nil
	}
	defer disarm()

	for {
		select {
		case <-ctx.Done():
			return

		case <-fire:
			fire = nil
			c.submit(ctx)

		case ev := <-c.events:
			switch ev.kind {
			case evText, evKey, evBackspace:
				text := c.edit(ev)
				disarm()
				if c.opts.Auto && len(strings.TrimSpace(text)) >= c.opts.MinLength {
					debounce = time.NewTimer(c.opts.Debounce)
					fire = debounce.C
				}
			case evEnter:
				disarm()
				c.submit(ctx)
			case evDismiss:
				c.update(func(s *Session) {
					s.Message = ""
					s.IsError = false
					s.Severity = ""
					s.Focused = true
				})
			case evDone:
				c.finish(ev.outcome)
			}
		}
	}
}

func (c *Controller) edit(ev event) string {
	var text string
	c.update(func(s *Session) {
		switch ev.kind {
		case evText:
			s.Text = ev.text
		case evKey:
			s.Text += string(ev.r)
		case evBackspace:
			if r := []rune(s.Text); len(r) > 0 {
				s.Text = string(r[:len(r)-1])
			}
		}
		text = s.Text
	})
	return text
}

func (c *Controller) submit(ctx context.Context) {
	c.mu.Lock()
	code := strings.TrimSpace(c.session.Text)
	c.mu.Unlock()
	if code == "" {
		return
	}
	if !c.latch.TryAcquire() {
		log.Printf("⏳ Scan[%s]: %s ignored, previous scan still %s", c.name, code, c.latch.State())
		return
	}

	c.update(func(s *Session) {
		s.Submissions++
		s.Message = ""
		s.IsError = false
		s.Severity = ""
		s.Focused = false
	})
	go c.dispatch(ctx, code)
}

func (c *Controller) dispatch(ctx context.Context, code string) {
	out := c.invoke(ctx, code)
	select {
	case c.events <- event{kind: evDone, outcome: out}:
	case <-ctx.Done():
		c.latch.Release()
	}
}

func (c *Controller) invoke(ctx context.Context, code string) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Scan[%s]: handler panic on %s: %v", c.name, code, r)
			out = failure("Scan failed, please scan again", SeverityAlert, fmt.Errorf("handler panic: %v", r))
		}
	}()
	return c.handler(ctx, code)
}

func (c *Controller) finish(out Outcome) {
	c.latch.Release()
	c.update(func(s *Session) {
		s.Message = out.Message
		s.IsError = !out.OK
		s.Severity = out.Severity
		s.Last = &out
		// an alert keeps focus until Dismiss
		s.Focused = out.OK || out.Severity != SeverityAlert
		if out.OK {
			s.Text = ""
		}
	})
}

func (c *Controller) update(fn func(s *Session)) {
	c.mu.Lock()
	fn(&c.session)
	snap := c.session
	c.mu.Unlock()

	if c.OnChange != nil {
		snap.State = c.latch.State()
		c.OnChange(snap)
	}
}
