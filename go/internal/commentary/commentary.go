// Package commentary produces the short generated texts shown next to the
// round: live commentary on the open guesses and a roast once Kira arrives.
// Every call returns usable text; failures degrade to fixed lines.
package commentary

import (
	"context"
	"time"

	"github.com/mcdev12/kiradelay/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Kinds and outcomes reported to the Recorder
const (
	KindBetting = "betting"
	KindRoast   = "roast"

	OutcomeGenerated   = "generated"
	OutcomeEmpty       = "empty"
	OutcomeFailed      = "failed"
	OutcomeUnavailable = "unavailable"
)

// DefaultTimeout bounds one generation call
const DefaultTimeout = 15 * time.Second

// Generator turns a prompt into text
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Recorder observes how each request was answered
type Recorder interface {
	CommentaryResult(kind, outcome string)
}

// Commentator wraps a Generator with prompts and fallbacks
type Commentator struct {
	gen         Generator
	recorder    Recorder
	timeout     time.Duration
	schoolStart string
}

// Option configures a Commentator
type Option func(*Commentator)

// WithRecorder sets the outcome recorder
func WithRecorder(r Recorder) Option {
	return func(c *Commentator) { c.recorder = r }
}

// WithTimeout bounds each generation call
func WithTimeout(d time.Duration) Option {
	return func(c *Commentator) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSchoolStart sets the reference time quoted in the roast prompt
func WithSchoolStart(t models.TimeOfDay) Option {
	return func(c *Commentator) { c.schoolStart = t.String() }
}

// New creates a Commentator. A nil gen means the service is not configured and
// every call answers with the fallback lines.
func New(gen Generator, opts ...Option) *Commentator {
	c := &Commentator{
		gen:         gen,
		timeout:     DefaultTimeout,
		schoolStart: "08:00",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BettingCommentary comments on the open guesses
func (c *Commentator) BettingCommentary(ctx context.Context, guesses []models.Guess) string {
	if len(guesses) == 0 {
		return QuietMarket
	}
	return c.generate(ctx, KindBetting, bettingPrompt(guesses), CommentaryEmpty, CommentaryFailed)
}

// WinnerRoast congratulates the winner; delayMinutes is measured from school start
func (c *Commentator) WinnerRoast(ctx context.Context, winnerName, arrivalTime string, delayMinutes int) string {
	prompt := roastPrompt(winnerName, arrivalTime, delayMinutes, c.schoolStart)
	return c.generate(ctx, KindRoast, prompt, RoastEmpty, RoastFailed)
}

func (c *Commentator) generate(ctx context.Context, kind, prompt, empty, failed string) string {
	if c.gen == nil {
		c.record(kind, OutcomeUnavailable)
		return failed
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	text, err := c.gen.GenerateContent(ctx, prompt)
	if err != nil {
		log.Error().Err(err).Str("kind", kind).Msg("failed to generate commentary")
		c.record(kind, OutcomeFailed)
		return failed
	}
	if text == "" {
		c.record(kind, OutcomeEmpty)
		return empty
	}

	c.record(kind, OutcomeGenerated)
	return text
}

func (c *Commentator) record(kind, outcome string) {
	if c.recorder != nil {
		c.recorder.CommentaryResult(kind, outcome)
	}
}
