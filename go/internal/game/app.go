// Package game runs the daily round: guesses are placed on the board, the
// round is settled against Kira's arrival time, and outcomes are written to
// the participants' profiles. Side effects that may fail (commentary,
// notifications, events) never undo or block a settlement.
package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/kiradelay/go/internal/commentary"
	"github.com/mcdev12/kiradelay/go/internal/events"
	"github.com/mcdev12/kiradelay/go/internal/gateway"
	"github.com/mcdev12/kiradelay/go/internal/metrics"
	"github.com/mcdev12/kiradelay/go/internal/models"
	"github.com/mcdev12/kiradelay/go/internal/profiles"
	"github.com/mcdev12/kiradelay/go/internal/round"
	"github.com/rs/zerolog/log"
)

// ProfilesApp defines what the game needs from the profile store
type ProfilesApp interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	RecordOutcome(ctx context.Context, req profiles.OutcomeRequest) (*models.UserProfile, error)
}

// Commentator produces the live commentary and the winner roast
type Commentator interface {
	BettingCommentary(ctx context.Context, guesses []models.Guess) string
	WinnerRoast(ctx context.Context, winnerName, arrivalTime string, delayMinutes int) string
}

// Broadcaster pushes messages to live feed clients
type Broadcaster interface {
	Broadcast(msg gateway.Message)
}

// App orchestrates the round lifecycle
type App struct {
	profiles    ProfilesApp
	commentator Commentator
	notifier    profiles.Notifier
	broadcaster Broadcaster
	publisher   events.Publisher
	metrics     *metrics.Metrics
	clock       clockwork.Clock

	schoolStart     models.TimeOfDay
	commentaryEvery int

	mu         sync.Mutex
	board      *round.Board
	roundID    uuid.UUID
	state      RoundState
	startedAt  time.Time
	settledAt  time.Time
	actualTime string
	results    []models.SettlementEntry
	commentary string

	wg sync.WaitGroup
}

// Option configures an App
type Option func(*App)

func WithClock(clock clockwork.Clock) Option {
	return func(a *App) { a.clock = clock }
}

func WithNotifier(n profiles.Notifier) Option {
	return func(a *App) { a.notifier = n }
}

func WithBroadcaster(b Broadcaster) Option {
	return func(a *App) { a.broadcaster = b }
}

func WithPublisher(p events.Publisher) Option {
	return func(a *App) { a.publisher = p }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithSchoolStart sets the reference time the roast delay is measured from
func WithSchoolStart(t models.TimeOfDay) Option {
	return func(a *App) { a.schoolStart = t }
}

// WithCommentaryEvery sets the guess count interval for live commentary
func WithCommentaryEvery(n int) Option {
	return func(a *App) {
		if n > 0 {
			a.commentaryEvery = n
		}
	}
}

// NewApp creates a new game App with an open, empty round
func NewApp(profilesApp ProfilesApp, commentator Commentator, opts ...Option) *App {
	a := &App{
		profiles:        profilesApp,
		commentator:     commentator,
		publisher:       events.NewLogPublisher(),
		clock:           clockwork.NewRealClock(),
		schoolStart:     models.TimeOfDay{Hour: 8},
		commentaryEvery: DefaultCommentaryEvery,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.board = round.NewBoard(a.clock)
	a.roundID = uuid.New()
	a.state = RoundStateOpen
	a.startedAt = a.clock.Now().UTC()
	return a
}

// Round returns a snapshot of the current round
func (a *App) Round() Round {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *App) snapshotLocked() Round {
	r := Round{
		ID:         a.roundID,
		State:      a.state,
		StartedAt:  a.startedAt,
		ActualTime: a.actualTime,
		Guesses:    a.board.Guesses(),
		Results:    make([]models.SettlementEntry, len(a.results)),
		Commentary: a.commentary,
	}
	copy(r.Results, a.results)
	if a.state == RoundStateSettled {
		settledAt := a.settledAt
		r.SettledAt = &settledAt
	}
	return r
}

// PlaceGuess records userID's guess on the open round, replacing any earlier
// guess by the same user. The guess carries the profile's current name.
func (a *App) PlaceGuess(ctx context.Context, userID uuid.UUID, guessedTime string) (models.Guess, error) {
	a.mu.Lock()
	if a.state == RoundStateSettled {
		a.mu.Unlock()
		return models.Guess{}, ErrRoundSettled
	}

	p, err := a.profiles.GetByID(ctx, userID)
	if err != nil {
		a.mu.Unlock()
		return models.Guess{}, fmt.Errorf("failed to resolve user: %w", err)
	}

	replaced := a.board.HasGuess(userID)
	g, err := a.board.Place(userID, p.Name, guessedTime)
	if err != nil {
		a.mu.Unlock()
		return models.Guess{}, err
	}
	roundID := a.roundID
	guesses := a.board.Guesses()
	a.mu.Unlock()

	count := len(guesses)
	a.metrics.GuessPlaced()
	log.Info().
		Str("round_id", roundID.String()).
		Str("user_id", userID.String()).
		Str("guessed_time", g.GuessedTime).
		Bool("replaced", replaced).
		Int("guess_count", count).
		Msg("guess placed")

	a.broadcast(gateway.MessageGuessPlaced, roundID, g)
	a.publish(ctx, events.EventTypeGuessPlaced, roundID, events.GuessPlacedPayload{
		GuessID:     g.ID.String(),
		UserID:      userID.String(),
		Name:        g.Name,
		GuessedTime: g.GuessedTime,
		Replaced:    replaced,
		PlacedAt:    g.CreatedAt,
		GuessCount:  count,
	})

	if count == 1 || count%a.commentaryEvery == 0 {
		a.async(func(ctx context.Context) {
			text := a.commentator.BettingCommentary(ctx, guesses)
			a.setCommentary(roundID, commentary.KindBetting, text)
		})
	}

	return g, nil
}

// Settle ranks the open round's guesses against actualTime and records every
// outcome. A round settles once; a second call fails with ErrRoundSettled.
// A round without guesses settles with no results and no winner.
func (a *App) Settle(ctx context.Context, actualTime string) (Round, error) {
	s, err := a.settle(ctx, actualTime)
	if err != nil {
		return s.round, err
	}
	a.afterSettle(ctx, s)
	return s.round, nil
}

type settlement struct {
	round   Round
	actual  models.TimeOfDay
	winner  models.SettlementEntry
	updated []*models.UserProfile

	hasWinner bool
}

func (a *App) settle(ctx context.Context, actualTime string) (settlement, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state == RoundStateSettled {
		return settlement{}, ErrRoundSettled
	}

	actual, err := models.ParseTimeOfDay(actualTime)
	if err != nil {
		return settlement{}, fmt.Errorf("actual time: %w", err)
	}

	entries, err := round.Settle(a.board.Guesses(), actual.String())
	if err != nil {
		return settlement{}, fmt.Errorf("failed to settle round: %w", err)
	}

	// Resolve every participant first so a stale id leaves all stats untouched
	for _, e := range entries {
		if _, err := a.profiles.GetByID(ctx, e.Guess.UserID); err != nil {
			return settlement{}, fmt.Errorf("failed to resolve participant %s: %w", e.Guess.Name, err)
		}
	}

	updated := make([]*models.UserProfile, 0, len(entries))
	var recordErr error
	for _, e := range entries {
		p, err := a.profiles.RecordOutcome(ctx, profiles.OutcomeRequest{
			UserID:           e.Guess.UserID,
			GuessedTime:      e.Guess.GuessedTime,
			ActualTime:       actual.String(),
			DeviationMinutes: e.DeviationMinutes,
			Won:              e.IsWinner(),
		})
		if err != nil {
			recordErr = fmt.Errorf("failed to record outcome for %s: %w", e.Guess.UserID, err)
			break
		}
		a.metrics.OutcomeRecorded(e.IsWinner())
		updated = append(updated, p)
	}

	// Outcomes already written must not be applied twice, so the round
	// settles even when a later write failed
	a.state = RoundStateSettled
	a.settledAt = a.clock.Now().UTC()
	a.actualTime = actual.String()
	a.results = entries
	s := settlement{round: a.snapshotLocked(), actual: actual, updated: updated}

	if recordErr != nil {
		log.Error().
			Err(recordErr).
			Str("round_id", a.roundID.String()).
			Int("recorded", len(updated)).
			Int("participants", len(entries)).
			Msg("settlement partially applied")
		return s, recordErr
	}

	a.metrics.RoundSettled()
	s.winner, s.hasWinner = round.Winner(entries)
	log.Info().
		Str("round_id", a.roundID.String()).
		Str("actual_time", a.actualTime).
		Str("winner", s.winner.Guess.Name).
		Int("participants", len(entries)).
		Msg("round settled")
	return s, nil
}

func (a *App) afterSettle(ctx context.Context, s settlement) {
	r, winner := s.round, s.winner
	payload := events.RoundSettledPayload{
		RoundID:    r.ID.String(),
		ActualTime: r.ActualTime,
		SettledAt:  *r.SettledAt,
		Results:    r.Results,
	}
	if s.hasWinner {
		payload.WinnerID = winner.Guess.UserID.String()
		payload.WinnerName = winner.Guess.Name
	}
	a.broadcast(gateway.MessageRoundSettled, r.ID, r)
	a.publish(ctx, events.EventTypeRoundSettled, r.ID, payload)

	body := fmt.Sprintf(arrivalBodyFormat, r.ActualTime)
	if a.notifier != nil {
		for _, p := range s.updated {
			if err := a.notifier.Notify(ctx, p.ID, p.NotificationsEnabled, ArrivalTitle, body); err != nil {
				log.Warn().Err(err).Str("user_id", p.ID.String()).Msg("failed to send arrival notification")
			}
		}
	}

	// Nobody guessed, so there is nobody to roast
	if !s.hasWinner {
		return
	}

	delay := a.schoolStart.MinutesUntil(s.actual)
	roundID := r.ID
	a.async(func(ctx context.Context) {
		text := a.commentator.WinnerRoast(ctx, winner.Guess.Name, r.ActualTime, delay)
		a.setCommentary(roundID, commentary.KindRoast, text)
	})
}

// NewRound discards the current round and opens a fresh one. An open round
// with guesses is only discarded when force is set.
func (a *App) NewRound(ctx context.Context, force bool) (Round, error) {
	a.mu.Lock()
	discarded := 0
	if a.state == RoundStateOpen {
		discarded = a.board.Len()
		if discarded > 0 && !force {
			a.mu.Unlock()
			return Round{}, ErrRoundOpen
		}
	}

	a.board.Clear()
	a.roundID = uuid.New()
	a.state = RoundStateOpen
	a.startedAt = a.clock.Now().UTC()
	a.settledAt = time.Time{}
	a.actualTime = ""
	a.results = nil
	a.commentary = ""
	snapshot := a.snapshotLocked()
	a.mu.Unlock()

	log.Info().
		Str("round_id", snapshot.ID.String()).
		Bool("forced", force).
		Int("discarded_guesses", discarded).
		Msg("round started")

	a.broadcast(gateway.MessageRoundStarted, snapshot.ID, snapshot)
	a.publish(ctx, events.EventTypeRoundStarted, snapshot.ID, events.RoundStartedPayload{
		RoundID:   snapshot.ID.String(),
		StartedAt: snapshot.StartedAt,
		Forced:    force,
		Discarded: discarded,
	})
	return snapshot, nil
}

// Wait blocks until background commentary has finished
func (a *App) Wait() {
	a.wg.Wait()
}

func (a *App) async(fn func(ctx context.Context)) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn(context.Background())
	}()
}

// setCommentary stores text unless the round has moved on. Betting
// commentary that lands after settlement is dropped so it cannot replace the roast.
func (a *App) setCommentary(roundID uuid.UUID, kind, text string) {
	a.mu.Lock()
	if a.roundID != roundID || (kind == commentary.KindBetting && a.state == RoundStateSettled) {
		a.mu.Unlock()
		log.Debug().Str("round_id", roundID.String()).Msg("discarding commentary for finished round")
		return
	}
	a.commentary = text
	a.mu.Unlock()

	a.broadcast(gateway.MessageCommentary, roundID, gateway.CommentaryData{Kind: kind, Text: text})
}

func (a *App) broadcast(t gateway.MessageType, roundID uuid.UUID, data any) {
	if a.broadcaster == nil {
		return
	}
	a.broadcaster.Broadcast(gateway.Message{
		Type:      t,
		RoundID:   roundID.String(),
		Timestamp: a.clock.Now().UTC(),
		Data:      data,
	})
}

func (a *App) publish(ctx context.Context, eventType string, roundID uuid.UUID, payload any) {
	ev, err := events.NewEvent(eventType, roundID, a.clock.Now(), payload)
	if err == nil {
		err = a.publisher.Publish(ctx, ev)
	}
	a.metrics.EventPublished(eventType, err)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Str("round_id", roundID.String()).Msg("failed to publish event")
	}
}
