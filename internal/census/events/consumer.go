package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	e "github.com/gartstein/census/internal/census/errors"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type InboundType string

const (
	PlanYearStateChanged InboundType = "plan_year_state_changed"
	CoverageSelected     InboundType = "coverage_selected"
	CoverageWaived       InboundType = "coverage_waived"
	CoverageTerminated   InboundType = "coverage_terminated"
)

// InboundEvent is a plan year or coverage notification from the enrollment
// side of the exchange.
type InboundEvent struct {
	Type                     InboundType `json:"type"`
	PlanYearID               uuid.UUID   `json:"plan_year_id,omitempty"`
	EmployerProfileID        uuid.UUID   `json:"employer_profile_id,omitempty"`
	PlanYearState            string      `json:"plan_year_state,omitempty"`
	CensusEmployeeID         uuid.UUID   `json:"census_employee_id,omitempty"`
	BenefitGroupAssignmentID uuid.UUID   `json:"benefit_group_assignment_id,omitempty"`
}

type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader     KafkaReader
	logger     *zap.Logger
	handler    func(context.Context, InboundEvent) error
	newBackOff func() backoff.BackOff
}

// NewConsumer reads inbound events from topic as part of groupID.
func NewConsumer(brokers []string, groupID, topic string, logger *zap.Logger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
		Dialer:  kafka.DefaultDialer,
	}), logger)
}

func newConsumer(reader KafkaReader, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader: reader,
		logger: logger.Named("kafka_consumer"),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
}

func (c *Consumer) RegisterHandler(fn func(context.Context, InboundEvent) error) {
	c.handler = fn
}

// Start runs the consume loop in the background.
func (c *Consumer) Start(ctx context.Context) {
	go func() {
		if err := c.Run(ctx); err != nil {
			c.logger.Error("Consumer stopped", zap.Error(err))
		}
	}()
}

// Run consumes until ctx is done. Events rejected by the domain are
// committed and skipped. Other handler failures are retried in place, so a
// later commit never moves the offset past an unhandled event; if the retry
// policy gives up, Run returns the error with the message uncommitted.
func (c *Consumer) Run(ctx context.Context) error {
	if c.handler == nil {
		return errors.New("no handler registered")
	}
	fetchBackOff := c.newBackOff()
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			wait := fetchBackOff.NextBackOff()
			if wait == backoff.Stop {
				fetchBackOff.Reset()
				wait = fetchBackOff.NextBackOff()
			}
			c.logger.Error("Failed to fetch message", zap.Error(err), zap.Duration("retry_in", wait))
			if !sleep(ctx, wait) {
				return nil
			}
			continue
		}
		fetchBackOff.Reset()

		var event InboundEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Error("Failed to parse event",
				zap.Error(err),
				zap.ByteString("value", msg.Value),
			)
			c.commit(ctx, msg, "")
			continue
		}

		err = backoff.RetryNotify(func() error {
			err := c.handler(ctx, event)
			if err != nil && isRejected(err) {
				return backoff.Permanent(err)
			}
			return err
		}, backoff.WithContext(c.newBackOff(), ctx), func(err error, wait time.Duration) {
			c.logger.Warn("Retrying event",
				zap.Error(err),
				zap.String("event_type", string(event.Type)),
				zap.Duration("retry_in", wait),
			)
		})

		switch {
		case err == nil:
			c.commit(ctx, msg, event.Type)
		case isRejected(err):
			c.logger.Warn("Skipping rejected event",
				zap.Error(err),
				zap.String("event_type", string(event.Type)),
			)
			c.commit(ctx, msg, event.Type)
		case ctx.Err() != nil:
			c.logger.Info("Stopped before event was handled",
				zap.String("event_type", string(event.Type)),
				zap.Int64("offset", msg.Offset),
			)
			return nil
		default:
			c.logger.Error("Failed to handle event",
				zap.Error(err),
				zap.String("event_type", string(event.Type)),
				zap.Int64("offset", msg.Offset),
			)
			return fmt.Errorf("handle %s event at offset %d: %w", event.Type, msg.Offset, err)
		}
	}
}

// sleep waits for d, reporting false if ctx ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func isRejected(err error) bool {
	return errors.Is(err, e.ErrNotFound) ||
		errors.Is(err, e.ErrValidation) ||
		errors.Is(err, e.ErrInvalidInput) ||
		errors.Is(err, e.ErrIllegalTransition)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message, eventType InboundType) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message",
			zap.Error(err),
			zap.String("event_type", string(eventType)),
		)
	}
}

func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka reader", zap.Error(err))
	}
}
