package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/kiradelay/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ProfilesRepository defines what the app layer needs from the repository
type ProfilesRepository interface {
	ListUsers(ctx context.Context) ([]models.UserProfile, error)
	UpdateUsers(ctx context.Context, fn UsersMutation) error
	GetCurrentUserID(ctx context.Context) (uuid.UUID, error)
	SetCurrentUserID(ctx context.Context, id uuid.UUID) error
	ClearCurrentUserID(ctx context.Context) error
}

// App owns user identity and statistics. Mutations are serialized, and each
// one persists the full collection before returning.
type App struct {
	repo       ProfilesRepository
	clock      clockwork.Clock
	historyCap int

	mu sync.Mutex
}

// Option configures an App
type Option func(*App)

// WithClock sets the clock used for join and history timestamps
func WithClock(clock clockwork.Clock) Option {
	return func(a *App) { a.clock = clock }
}

// WithHistoryCap sets how many history entries a profile retains
func WithHistoryCap(n int) Option {
	return func(a *App) {
		if n > 0 {
			a.historyCap = n
		}
	}
}

// NewApp creates a new profiles App
func NewApp(repo ProfilesRepository, opts ...Option) *App {
	a := &App{
		repo:       repo,
		clock:      clockwork.NewRealClock(),
		historyCap: DefaultHistoryCap,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// FindOrCreate returns the profile whose name matches case-insensitively,
// creating one with zeroed stats when none exists
func (a *App) FindOrCreate(ctx context.Context, name string) (*models.UserProfile, error) {
	name, err := normalizeName(name)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	users, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if p := findByName(users, name); p != nil {
		return p, nil
	}

	var result models.UserProfile
	created := false
	err = a.repo.UpdateUsers(ctx, func(users []models.UserProfile) ([]models.UserProfile, error) {
		// the store may be shared with another process
		if p := findByName(users, name); p != nil {
			result = *p
			return users, nil
		}
		result = models.UserProfile{
			ID:       uuid.New(),
			Name:     name,
			JoinedAt: a.clock.Now().UTC(),
			Stats: models.UserStats{
				History: []models.HistoryEntry{},
			},
			NotificationsEnabled: false,
		}
		created = true
		return append(users, result), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if created {
		log.Info().Str("user_id", result.ID.String()).Str("name", result.Name).Msg("created profile")
	}
	out := result.Clone()
	return &out, nil
}

// GetByID retrieves a profile by id
func (a *App) GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error) {
	users, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	for i := range users {
		if users[i].ID == id {
			p := users[i].Clone()
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
}

// List returns every stored profile, in no particular order
func (a *App) List(ctx context.Context) ([]models.UserProfile, error) {
	users, err := a.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// RecordOutcome applies one settled guess to its owner's stats and history.
// The caller is responsible for applying each settlement only once.
func (a *App) RecordOutcome(ctx context.Context, req OutcomeRequest) (*models.UserProfile, error) {
	if err := validateOutcome(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	entry := models.HistoryEntry{
		Date:        a.clock.Now().UTC(),
		GuessedTime: req.GuessedTime,
		ActualTime:  req.ActualTime,
		Diff:        req.DeviationMinutes,
		Won:         req.Won,
	}

	updated, err := a.mutate(ctx, req.UserID, func(p *models.UserProfile) {
		p.Stats.TotalBets++
		if req.Won {
			p.Stats.TotalWins++
		}
		p.Stats.TotalDiffMinutes += req.DeviationMinutes
		p.Stats.History = prependCapped(p.Stats.History, entry, a.historyCap)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("user_id", req.UserID.String()).
		Str("guessed_time", req.GuessedTime).
		Str("actual_time", req.ActualTime).
		Int("deviation", req.DeviationMinutes).
		Bool("won", req.Won).
		Msg("recorded outcome")
	return updated, nil
}

// SetNotificationPreference updates the notification flag
func (a *App) SetNotificationPreference(ctx context.Context, id uuid.UUID, enabled bool) (*models.UserProfile, error) {
	p, _, err := a.UpdateNotificationPreference(ctx, id, enabled)
	return p, err
}

// UpdateNotificationPreference is SetNotificationPreference that also reports
// whether the stored flag changed
func (a *App) UpdateNotificationPreference(ctx context.Context, id uuid.UUID, enabled bool) (*models.UserProfile, bool, error) {
	var changed bool
	p, err := a.mutate(ctx, id, func(p *models.UserProfile) {
		changed = p.NotificationsEnabled != enabled
		p.NotificationsEnabled = enabled
	})
	if err != nil {
		return nil, false, err
	}
	return p, changed, nil
}

// Login finds or creates the named profile and makes it the current user
func (a *App) Login(ctx context.Context, name string) (*models.UserProfile, error) {
	p, err := a.FindOrCreate(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := a.repo.SetCurrentUserID(ctx, p.ID); err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}
	log.Info().Str("user_id", p.ID.String()).Msg("session started")
	return p, nil
}

// CurrentUser returns the profile named by the session pointer. A pointer to a
// profile that no longer exists reads as no session.
func (a *App) CurrentUser(ctx context.Context) (*models.UserProfile, error) {
	id, err := a.repo.GetCurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	p, err := a.GetByID(ctx, id)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrNoSession
	}
	return p, err
}

// Logout clears the session pointer; the profile itself is kept
func (a *App) Logout(ctx context.Context) error {
	return a.repo.ClearCurrentUserID(ctx)
}

// mutate applies fn to the profile with id and persists the collection.
// An unknown id aborts the write and returns ErrUserNotFound.
func (a *App) mutate(ctx context.Context, id uuid.UUID, fn func(p *models.UserProfile)) (*models.UserProfile, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var result models.UserProfile
	err := a.repo.UpdateUsers(ctx, func(users []models.UserProfile) ([]models.UserProfile, error) {
		for i := range users {
			if users[i].ID == id {
				fn(&users[i])
				result = users[i].Clone()
				return users, nil
			}
		}
		return nil, fmt.Errorf("%w: %s", ErrUserNotFound, id)
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return &result, nil
}

func findByName(users []models.UserProfile, name string) *models.UserProfile {
	for i := range users {
		if strings.EqualFold(users[i].Name, name) {
			p := users[i].Clone()
			return &p
		}
	}
	return nil
}

func prependCapped(history []models.HistoryEntry, entry models.HistoryEntry, limit int) []models.HistoryEntry {
	n := len(history) + 1
	if n > limit {
		n = limit
	}
	out := make([]models.HistoryEntry, 0, n)
	out = append(out, entry)
	for _, h := range history {
		if len(out) == n {
			break
		}
		out = append(out, h)
	}
	return out
}

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return "", fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, MaxNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return "", fmt.Errorf("%w: name contains control characters", ErrInvalidName)
		}
	}
	return name, nil
}

func validateOutcome(req OutcomeRequest) error {
	if req.UserID == uuid.Nil {
		return fmt.Errorf("%w: user_id is required", ErrInvalidOutcome)
	}
	if req.DeviationMinutes < 0 {
		return fmt.Errorf("%w: deviation must not be negative", ErrInvalidOutcome)
	}
	return nil
}
