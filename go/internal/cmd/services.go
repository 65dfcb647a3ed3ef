package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/kiradelay/go/clients/gemini_client"
	"github.com/mcdev12/kiradelay/go/internal/commentary"
	"github.com/mcdev12/kiradelay/go/internal/events"
	"github.com/mcdev12/kiradelay/go/internal/game"
	"github.com/mcdev12/kiradelay/go/internal/gateway"
	"github.com/mcdev12/kiradelay/go/internal/health"
	"github.com/mcdev12/kiradelay/go/internal/kvstore"
	"github.com/mcdev12/kiradelay/go/internal/metrics"
	"github.com/mcdev12/kiradelay/go/internal/profiles"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Profiles    *profiles.Service
	Game        *game.Service
	GameApp     *game.App
	WebSocket   *gateway.WebSocketHandler
	Connections *gateway.ConnectionManager
	Publisher   events.Publisher
	Metrics     *metrics.Metrics
	Readiness   *health.Checker
}

func setupServices(ctx context.Context, config *Config, store kvstore.Store) (*Services, error) {
	// Wire up dependency injection chain
	// Store layer → Repository layer → App layer → Service layer
	clock := clockwork.NewRealClock()
	m := metrics.New()

	// Live feed
	connections := gateway.NewConnectionManager(gateway.DefaultConnectionConfig(), m)
	dispatcher := gateway.NewDispatcher(connections, clock)
	wsHandler := gateway.NewWebSocketHandler(connections)

	// Profiles
	profilesRepo := profiles.NewRepository(store)
	profilesApp := profiles.NewApp(profilesRepo,
		profiles.WithClock(clock),
		profiles.WithHistoryCap(config.Profiles.HistoryCap),
	)
	profilesService := profiles.NewService(profilesApp, dispatcher)

	// Commentary
	var gen commentary.Generator
	if config.Commentary.APIKey != "" {
		gen = gemini_client.NewGeminiClient(config.Commentary.APIKey, config.Commentary.BaseURL, config.Commentary.Model)
	} else {
		log.Warn().Msg("GEMINI_API_KEY not set, commentary will use fallback lines")
	}
	commentator := commentary.New(gen,
		commentary.WithRecorder(m),
		commentary.WithTimeout(config.Commentary.Timeout),
		commentary.WithSchoolStart(config.SchoolStart()),
	)

	// Events
	publisher, err := setupPublisher(ctx, config)
	if err != nil {
		return nil, err
	}

	// Game
	gameApp := game.NewApp(profilesApp, commentator,
		game.WithClock(clock),
		game.WithNotifier(dispatcher),
		game.WithBroadcaster(connections),
		game.WithPublisher(publisher),
		game.WithMetrics(m),
		game.WithSchoolStart(config.SchoolStart()),
		game.WithCommentaryEvery(config.Game.CommentaryEvery),
	)
	gameService := game.NewService(gameApp)

	// Readiness
	readiness := health.NewChecker(clock, 5*time.Second)
	readiness.Register("live_feed", func(ctx context.Context) error {
		if !connections.Running() {
			return errors.New("connection manager not running")
		}
		return nil
	})
	if p, ok := store.(kvstore.Pinger); ok {
		readiness.Register("store", p.Ping)
	}
	if p, ok := publisher.(interface{ Ping(context.Context) error }); ok {
		readiness.Register("events", p.Ping)
	}

	return &Services{
		Profiles:    profilesService,
		Game:        gameService,
		GameApp:     gameApp,
		WebSocket:   wsHandler,
		Connections: connections,
		Publisher:   publisher,
		Metrics:     m,
		Readiness:   readiness,
	}, nil
}

func setupPublisher(ctx context.Context, config *Config) (events.Publisher, error) {
	switch config.Events.Backend {
	case EventsNats:
		cfg := events.DefaultJetStreamConfig()
		cfg.URL = config.Events.NatsURL
		cfg.StreamName = config.Events.Stream
		cfg.SubjectPrefix = config.Events.SubjectPrefix
		p, err := events.NewJetStreamPublisher(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create JetStream publisher: %w", err)
		}
		log.Info().Str("url", cfg.URL).Str("stream", cfg.StreamName).Msg("publishing events to JetStream")
		return p, nil

	case EventsKafka:
		p, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: config.Events.KafkaBrokers,
			Topic:   config.Events.KafkaTopic,
			Acks:    1,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
		}
		log.Info().Strs("brokers", config.Events.KafkaBrokers).Str("topic", config.Events.KafkaTopic).Msg("publishing events to kafka")
		return p, nil

	default:
		return events.NewLogPublisher(), nil
	}
}
