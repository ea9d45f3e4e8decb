// Package events emits menu lifecycle events.
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/squidly/pkg/appctx"
	"github.com/Ramsey-B/squidly/pkg/kafka"
	"github.com/Ramsey-B/squidly/pkg/metrics"
	"github.com/Ramsey-B/squidly/pkg/models"
	"github.com/Ramsey-B/squidly/pkg/tracing"
)

const (
	EventRecordCreated = "record.created"
	EventRecordUpdated = "record.updated"
	EventRecordDeleted = "record.deleted"
	EventBranchUpdated = "branch.updated"
)

// Publisher sends a menu event somewhere. *kafka.Producer is the production publisher.
type Publisher interface {
	PublishMenuEvent(ctx context.Context, event *kafka.MenuEvent) error
}

// Emitter builds menu events and hands them to a publisher. Publishing is best
// effort: failures are logged and counted, never returned to the writer.
type Emitter struct {
	publisher Publisher
	logger    ectologger.Logger
}

// NewEmitter creates an emitter. A nil publisher disables emission.
func NewEmitter(publisher Publisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		publisher: publisher,
		logger:    logger,
	}
}

// RecordCreated emits record.created with the new record as data
func (e *Emitter) RecordCreated(ctx context.Context, ref models.Ref, data any) {
	e.emit(ctx, EventRecordCreated, ref, data)
}

// RecordUpdated emits record.updated with the stored record as data
func (e *Emitter) RecordUpdated(ctx context.Context, ref models.Ref, data any) {
	e.emit(ctx, EventRecordUpdated, ref, data)
}

// RecordDeleted emits record.deleted
func (e *Emitter) RecordDeleted(ctx context.Context, ref models.Ref, force bool) {
	e.emit(ctx, EventRecordDeleted, ref, map[string]any{"force": force})
}

// BranchUpdated emits branch.updated describing one overlay change
func (e *Emitter) BranchUpdated(ctx context.Context, branchID int64, change string, data map[string]any) {
	payload := map[string]any{"change": change}
	for key, value := range data {
		payload[key] = value
	}
	e.emit(ctx, EventBranchUpdated, models.NewRef(models.RecordTypeStoreBranch, branchID), payload)
}

func (e *Emitter) emit(ctx context.Context, eventType string, ref models.Ref, data any) {
	if e == nil || e.publisher == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.emit")
	defer span.End()

	log := e.logger.WithContext(ctx).WithFields(map[string]any{
		"event_type":  eventType,
		"record_type": ref.Type,
		"record_id":   ref.ID,
	})

	event := &kafka.MenuEvent{
		EventType:  eventType,
		RecordType: string(ref.Type),
		RecordID:   ref.ID,
		Actor:      appctx.GetActor(ctx),
		RequestID:  appctx.GetRequestID(ctx),
	}

	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			log.WithError(err).Warn("Failed to encode menu event data")
		} else {
			event.Data = raw
		}
	}

	err := e.publisher.PublishMenuEvent(ctx, event)
	metrics.RecordEvent(eventType, err)
	if err != nil {
		log.WithError(err).Error("Failed to emit menu event")
	}
}
