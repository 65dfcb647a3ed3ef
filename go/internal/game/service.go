package game

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/mcdev12/kiradelay/go/internal/httputil"
	"github.com/mcdev12/kiradelay/go/internal/models"
	"github.com/mcdev12/kiradelay/go/internal/profiles"
)

// RoundApp defines what the service layer needs from the game application
type RoundApp interface {
	Round() Round
	PlaceGuess(ctx context.Context, userID uuid.UUID, guessedTime string) (models.Guess, error)
	Settle(ctx context.Context, actualTime string) (Round, error)
	NewRound(ctx context.Context, force bool) (Round, error)
}

// Service exposes the round over HTTP
type Service struct {
	app RoundApp
}

// NewService creates a new game HTTP service
func NewService(app RoundApp) *Service {
	return &Service{
		app: app,
	}
}

// RegisterRoutes registers the round routes on r
func (s *Service) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/round", s.GetRound).Methods(http.MethodGet)
	r.HandleFunc("/api/round/guesses", s.PlaceGuess).Methods(http.MethodPost)
	r.HandleFunc("/api/round/settle", s.Settle).Methods(http.MethodPost)
	r.HandleFunc("/api/round/new", s.NewRound).Methods(http.MethodPost)
}

// GetRound returns the current round
func (s *Service) GetRound(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, s.app.Round())
}

// PlaceGuess places or replaces a guess
func (s *Service) PlaceGuess(w http.ResponseWriter, r *http.Request) {
	var req PlaceGuessRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	g, err := s.app.PlaceGuess(r.Context(), req.UserID, req.GuessedTime)
	if err != nil {
		httputil.WriteError(w, statusFor(err), err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, g)
}

// Settle settles the round against the actual arrival time
func (s *Service) Settle(w http.ResponseWriter, r *http.Request) {
	var req SettleRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	round, err := s.app.Settle(r.Context(), req.ActualTime)
	if err != nil {
		httputil.WriteError(w, statusFor(err), err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, round)
}

// NewRound opens a fresh round. An empty body means force=false.
func (s *Service) NewRound(w http.ResponseWriter, r *http.Request) {
	var req NewRoundRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err)
			return
		}
	}

	round, err := s.app.NewRound(r.Context(), req.Force)
	if err != nil {
		httputil.WriteError(w, statusFor(err), err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, round)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidTimeFormat), errors.Is(err, profiles.ErrInvalidOutcome):
		return http.StatusBadRequest
	case errors.Is(err, profiles.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRoundSettled), errors.Is(err, ErrRoundOpen):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
