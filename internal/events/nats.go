// Package events publishes match notifications to NATS.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"movie-discovery-match-service/internal/config"
	"movie-discovery-match-service/internal/models"
)

// MatchCreatedEvent is the payload published for every new match.
type MatchCreatedEvent struct {
	MatchID        string           `json:"match_id"`
	ParticipantIDs []string         `json:"participant_ids"`
	TitleID        int              `json:"title_id"`
	TitleType      models.TitleType `json:"title_type"`
	CreatedAt      time.Time        `json:"created_at"`
}

// NewMatchCreatedEvent builds the event for m.
func NewMatchCreatedEvent(m models.MatchRecord) MatchCreatedEvent {
	return MatchCreatedEvent{
		MatchID:        m.ID,
		ParticipantIDs: []string{m.ParticipantIDs[0], m.ParticipantIDs[1]},
		TitleID:        m.TitleID,
		TitleType:      m.TitleType,
		CreatedAt:      m.CreatedAt,
	}
}

// encodeMatch builds the NATS message for m. The match id doubles as the
// message id so JetStream streams can drop redeliveries.
func encodeMatch(subject string, m models.MatchRecord) (*nats.Msg, error) {
	data, err := json.Marshal(NewMatchCreatedEvent(m))
	if err != nil {
		return nil, fmt.Errorf("encode match event: %w", err)
	}
	msg := nats.NewMsg(subject)
	msg.Data = data
	msg.Header.Set(nats.MsgIdHdr, m.ID)
	msg.Header.Set("Content-Type", "application/json")
	return msg, nil
}

// NATSPublisher publishes match events on a core NATS subject.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewNATSPublisher connects to the configured NATS server.
func NewNATSPublisher(cfg config.NATSConfig) (*NATSPublisher, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("movie-match-service"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500*time.Millisecond),
		nats.Timeout(3*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	slog.Info("connected to NATS", "url", cfg.URL, "subject", cfg.Subject)
	return &NATSPublisher{nc: nc, subject: cfg.Subject}, nil
}

// PublishMatch publishes a MatchCreatedEvent for m.
func (p *NATSPublisher) PublishMatch(ctx context.Context, m models.MatchRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := encodeMatch(p.subject, m)
	if err != nil {
		return err
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish match event: %w", err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}
