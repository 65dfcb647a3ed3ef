package events

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogPublisher writes events to the log instead of a broker
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	log.Info().
		Str("event_id", event.ID.String()).
		Str("event_type", event.EventType).
		Str("round_id", event.RoundID.String()).
		RawJSON("payload", event.Payload).
		Msg("event")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
