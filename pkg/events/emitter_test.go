package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/squidly/pkg/appctx"
	"github.com/Ramsey-B/squidly/pkg/kafka"
	"github.com/Ramsey-B/squidly/pkg/models"
)

type recordingPublisher struct {
	events []*kafka.MenuEvent
	err    error
}

func (p *recordingPublisher) PublishMenuEvent(_ context.Context, event *kafka.MenuEvent) error {
	p.events = append(p.events, event)
	return p.err
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestEmitter_RecordCreated(t *testing.T) {
	publisher := &recordingPublisher{}
	emitter := NewEmitter(publisher, testLogger())

	ctx := appctx.SetActor(context.Background(), "chef")
	ctx = appctx.SetRequestID(ctx, "req-1")
	emitter.RecordCreated(ctx, models.NewRef(models.RecordTypeIngredient, 3), map[string]any{"name": "Basil"})

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, EventRecordCreated, event.EventType)
	assert.Equal(t, "ingredient", event.RecordType)
	assert.Equal(t, int64(3), event.RecordID)
	assert.Equal(t, "chef", event.Actor)
	assert.Equal(t, "req-1", event.RequestID)
	assert.JSONEq(t, `{"name":"Basil"}`, string(event.Data))
}

func TestEmitter_BranchUpdated(t *testing.T) {
	publisher := &recordingPublisher{}
	emitter := NewEmitter(publisher, testLogger())

	emitter.BranchUpdated(context.Background(), 9, "add_product", map[string]any{"product_id": 4})

	require.Len(t, publisher.events, 1)
	var data map[string]any
	require.NoError(t, json.Unmarshal(publisher.events[0].Data, &data))
	assert.Equal(t, "add_product", data["change"])
	assert.Equal(t, float64(4), data["product_id"])
	assert.Equal(t, "store_branch", publisher.events[0].RecordType)
}

func TestEmitter_FailuresAreSwallowed(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("broker down")}
	emitter := NewEmitter(publisher, testLogger())

	assert.NotPanics(t, func() {
		emitter.RecordDeleted(context.Background(), models.NewRef(models.RecordTypeProduct, 1), true)
	})
	assert.Len(t, publisher.events, 1)
}

func TestEmitter_Disabled(t *testing.T) {
	var nilEmitter *Emitter
	assert.NotPanics(t, func() {
		nilEmitter.RecordUpdated(context.Background(), models.NewRef(models.RecordTypeProduct, 1), nil)
		NewEmitter(nil, testLogger()).RecordUpdated(context.Background(), models.NewRef(models.RecordTypeProduct, 1), nil)
	})
}
