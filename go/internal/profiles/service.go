package profiles

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mcdev12/kiradelay/go/internal/httputil"
	"github.com/mcdev12/kiradelay/go/internal/leaderboard"
	"github.com/mcdev12/kiradelay/go/internal/models"
	"github.com/rs/zerolog/log"
)

// ProfilesApp defines what the service layer needs from the profiles application
type ProfilesApp interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.UserProfile, error)
	List(ctx context.Context) ([]models.UserProfile, error)
	UpdateNotificationPreference(ctx context.Context, id uuid.UUID, enabled bool) (*models.UserProfile, bool, error)
	Login(ctx context.Context, name string) (*models.UserProfile, error)
	CurrentUser(ctx context.Context) (*models.UserProfile, error)
	Logout(ctx context.Context) error
}

// Notifier delivers a user-facing alert when enabled is true
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, enabled bool, title, body string) error
}

// ProfileResponse pairs a profile with its derived figures
type ProfileResponse struct {
	Profile models.UserProfile  `json:"profile"`
	Summary leaderboard.Summary `json:"summary"`
}

// Service exposes profiles, the session pointer and the leaderboard over HTTP
type Service struct {
	app      ProfilesApp
	notifier Notifier
}

// NewService creates a new profiles HTTP service. notifier may be nil.
func NewService(app ProfilesApp, notifier Notifier) *Service {
	return &Service{
		app:      app,
		notifier: notifier,
	}
}

// RegisterRoutes registers the profile routes on r
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/session", s.Login).Methods(http.MethodPost)
	r.HandleFunc("/api/session", s.CurrentUser).Methods(http.MethodGet)
	r.HandleFunc("/api/session", s.Logout).Methods(http.MethodDelete)
	r.HandleFunc("/api/profiles", s.ListProfiles).Methods(http.MethodGet)
	r.HandleFunc("/api/profiles/{id}", s.GetProfile).Methods(http.MethodGet)
	r.HandleFunc("/api/profiles/{id}/notifications", s.SetNotifications).Methods(http.MethodPut)
	r.HandleFunc("/api/leaderboard", s.Leaderboard).Methods(http.MethodGet)
}

// Login finds or creates a profile by name and makes it current
func (s *Service) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	p, err := s.app.Login(r.Context(), req.Name)
	if err != nil {
		httputil.WriteError(w, statusFor(err), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

// CurrentUser returns the current profile or 404 when logged out
func (s *Service) CurrentUser(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.CurrentUser(r.Context())
	if err != nil {
		httputil.WriteError(w, statusFor(err), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

// Logout clears the current profile
func (s *Service) Logout(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Logout(r.Context()); err != nil {
		httputil.WriteError(w, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListProfiles returns every profile
func (s *Service) ListProfiles(w http.ResponseWriter, r *http.Request) {
	users, err := s.app.List(r.Context())
	if err != nil {
		httputil.WriteError(w, statusFor(err), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, users)
}

// GetProfile returns one profile with its summary
func (s *Service) GetProfile(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	p, err := s.app.GetByID(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, statusFor(err), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

// SetNotifications sets the notification flag, confirming with a notification when it is switched on
func (s *Service) SetNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	var req NotificationPreferenceRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	p, changed, err := s.app.UpdateNotificationPreference(r.Context(), id, req.Enabled)
	if err != nil {
		httputil.WriteError(w, statusFor(err), err)
		return
	}

	if changed && p.NotificationsEnabled && s.notifier != nil {
		err := s.notifier.Notify(r.Context(), p.ID, true, "Benachrichtigungen aktiviert", "Du wirst informiert, wenn Kira ankommt!")
		if err != nil {
			log.Warn().Err(err).Str("user_id", p.ID.String()).Msg("failed to send confirmation notification")
		}
	}
	httputil.WriteJSON(w, http.StatusOK, toResponse(p))
}

// Leaderboard returns ranked standings
func (s *Service) Leaderboard(w http.ResponseWriter, r *http.Request) {
	users, err := s.app.List(r.Context())
	if err != nil {
		httputil.WriteError(w, statusFor(err), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, leaderboard.Rank(users))
}

func toResponse(p *models.UserProfile) ProfileResponse {
	return ProfileResponse{
		Profile: *p,
		Summary: leaderboard.Summarize(*p),
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidName), errors.Is(err, ErrInvalidOutcome):
		return http.StatusBadRequest
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrNoSession):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
