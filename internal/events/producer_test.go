package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_StampsTimeAndRecords(t *testing.T) {
	t.Parallel()

	rec := &Recorder{}
	pid := uuid.New()
	Emit(context.Background(), rec, Event{Type: ColumnCreated, ProjectID: pid})

	evs := rec.Events()
	require.Len(t, evs, 1)
	assert.Equal(t, ColumnCreated, evs[0].Type)
	assert.Equal(t, pid, evs[0].ProjectID)
	assert.False(t, evs[0].At.IsZero())
}

func TestEmit_SwallowsPublishErrors(t *testing.T) {
	t.Parallel()

	rec := &Recorder{Err: errors.New("broker down")}
	assert.NotPanics(t, func() {
		Emit(context.Background(), rec, Event{Type: TaskDeleted})
		Emit(context.Background(), nil, Event{Type: TaskDeleted})
	})
	assert.Empty(t, rec.Events())
}

func TestNoop(t *testing.T) {
	t.Parallel()

	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}

func TestNewProducer_Config(t *testing.T) {
	t.Parallel()

	p := NewProducer([]string{"k1:9092", "k2:9092"}, "board_events")
	assert.Equal(t, "board_events", p.w.Topic)
	require.NoError(t, p.Close())
}
