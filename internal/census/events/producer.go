// Package events publishes roster lifecycle events to Kafka and consumes the
// plan year and coverage events that drive benefit group assignments.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gartstein/census/internal/census/models"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var jsonMarshal = json.Marshal

type EventType string

const (
	CensusEmployeeCreated              EventType = "census_employee_created"
	CensusEmployeeUpdated              EventType = "census_employee_updated"
	CensusEmployeeTerminated           EventType = "census_employee_terminated"
	CensusEmployeeTerminationScheduled EventType = "census_employee_termination_scheduled"
	CensusEmployeeRehired              EventType = "census_employee_rehired"
	CensusEmployeeLinked               EventType = "census_employee_linked"
	CensusEmployeeDelinked             EventType = "census_employee_delinked"
	CensusEmployeeCobraElected         EventType = "census_employee_cobra_elected"
	BenefitGroupAssigned               EventType = "benefit_group_assigned"
)

// EmployeeSnapshot is the roster state carried by an outbound event.
type EmployeeSnapshot struct {
	ID                     uuid.UUID  `json:"id"`
	EmployerProfileID      uuid.UUID  `json:"employer_profile_id"`
	State                  string     `json:"aasm_state"`
	EmployeeRoleID         *uuid.UUID `json:"employee_role_id,omitempty"`
	EmploymentTerminatedOn *time.Time `json:"employment_terminated_on,omitempty"`
	CoverageTerminatedOn   *time.Time `json:"coverage_terminated_on,omitempty"`
	ActiveAssignmentID     *uuid.UUID `json:"active_benefit_group_assignment_id,omitempty"`
	Version                int        `json:"version"`
}

// Snapshot copies the published fields of ce.
func Snapshot(ce *models.CensusEmployee) EmployeeSnapshot {
	s := EmployeeSnapshot{
		ID:                     ce.ID,
		EmployerProfileID:      ce.EmployerProfileID,
		State:                  string(ce.State),
		EmployeeRoleID:         ce.EmployeeRoleID,
		EmploymentTerminatedOn: ce.EmploymentTerminatedOn,
		CoverageTerminatedOn:   ce.CoverageTerminatedOn,
		Version:                ce.Version,
	}
	for _, a := range ce.BenefitGroupAssignments {
		if a.IsActive {
			id := a.ID
			s.ActiveAssignmentID = &id
			break
		}
	}
	return s
}

type Event struct {
	Type           EventType        `json:"type"`
	OccurredAt     time.Time        `json:"occurred_at"`
	CensusEmployee EmployeeSnapshot `json:"census_employee"`
}

type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer    KafkaWriter
	events    chan Event
	logger    *zap.Logger
	closeChan chan struct{}
	done      chan struct{}
}

// NewProducer ensures topic exists and starts the delivery loop.
func NewProducer(brokers []string, logger *zap.Logger, topic string) (*Producer, error) {
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	})
	if err != nil {
		logger.Warn("failed to create topic (may already exist)", zap.Error(err))
	}

	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Balancer: &kafka.Hash{},
		Topic:    topic,
	}
	return newProducer(writer, logger, 1000), nil
}

func newProducer(writer KafkaWriter, logger *zap.Logger, buffer int) *Producer {
	p := &Producer{
		writer:    writer,
		events:    make(chan Event, buffer),
		logger:    logger.Named("kafka_producer"),
		closeChan: make(chan struct{}),
		done:      make(chan struct{}),
	}
	go p.eventLoop()
	return p
}

// Produce queues an event for ce. It never blocks; a full queue drops the event.
func (p *Producer) Produce(eventType EventType, ce *models.CensusEmployee) {
	event := Event{Type: eventType, OccurredAt: time.Now().UTC(), CensusEmployee: Snapshot(ce)}
	select {
	case p.events <- event:
	default:
		p.logger.Warn("Kafka producer queue full, dropping event",
			zap.String("event_type", string(eventType)),
			zap.String("census_employee_id", ce.ID.String()),
		)
	}
}

func (p *Producer) eventLoop() {
	defer close(p.done)
	for {
		select {
		case event := <-p.events:
			p.sendEvent(context.Background(), event)
		case <-p.closeChan:
			for {
				select {
				case event := <-p.events:
					p.sendEvent(context.Background(), event)
				default:
					return
				}
			}
		}
	}
}

func (p *Producer) sendEvent(ctx context.Context, event Event) {
	id := event.CensusEmployee.ID.String()
	value, err := jsonMarshal(event)
	if err != nil {
		p.logger.Error("Failed to serialize event",
			zap.Error(err),
			zap.String("census_employee_id", id),
		)
		return
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(id),
		Value: value,
	})
	if err != nil {
		p.logger.Error("Failed to produce event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("census_employee_id", id),
		)
	}
}

// Close flushes queued events and closes the writer.
func (p *Producer) Close() {
	close(p.closeChan)
	<-p.done
	if err := p.writer.Close(); err != nil {
		p.logger.Error("Failed to close Kafka writer", zap.Error(err))
	}
}
