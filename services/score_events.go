package services

import (
	"context"
	"encoding/json"
	"time"

	"cfb-picks/logging"
	"cfb-picks/models"

	"github.com/segmentio/kafka-go"
)

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ScoreEvent announces that a game's picks have been applied to scores
type ScoreEvent struct {
	RunID        string       `json:"runId"`
	GameID       string       `json:"gameId"`
	Home         string       `json:"homeTeam"`
	Away         string       `json:"awayTeam"`
	HomeScore    int          `json:"homeScore"`
	AwayScore    int          `json:"awayScore"`
	WinningSide  *models.Side `json:"winningSide"`
	PicksApplied int          `json:"picksApplied"`
	ScoredAt     time.Time    `json:"scoredAt"`
}

func newScoreEvent(runID string, game *models.Game, applied int) ScoreEvent {
	return ScoreEvent{
		RunID:        runID,
		GameID:       game.ID,
		Home:         game.Home,
		Away:         game.Away,
		HomeScore:    game.HomeScore,
		AwayScore:    game.AwayScore,
		WinningSide:  game.WinningSide,
		PicksApplied: applied,
		ScoredAt:     time.Now().UTC(),
	}
}

// NewKafkaWriter builds a writer for the score events topic keyed by game id
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

// ScoreEventPublisher publishes score events. Failures are logged and never
// returned; scoring does not depend on delivery.
type ScoreEventPublisher struct {
	writer KafkaWriter
	logger *logging.Logger
}

func NewScoreEventPublisher(writer KafkaWriter) *ScoreEventPublisher {
	return &ScoreEventPublisher{
		writer: writer,
		logger: logging.WithPrefix("ScoreEvents"),
	}
}

// Publish writes one message per event
func (p *ScoreEventPublisher) Publish(ctx context.Context, events ...ScoreEvent) {
	if p == nil || p.writer == nil {
		return
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			p.logger.Errorf("Failed to marshal score event for game %s: %v", event.GameID, err)
			continue
		}
		msgs = append(msgs, kafka.Message{Key: []byte(event.GameID), Value: data})
	}
	if len(msgs) == 0 {
		return
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		p.logger.Errorf("Failed to publish %d score events: %v", len(msgs), err)
		return
	}
	p.logger.Infof("Published %d score events", len(msgs))
}

// Close flushes and closes the underlying writer
func (p *ScoreEventPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
