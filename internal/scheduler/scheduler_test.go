package scheduler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestAddJob_RejectsBadCron(t *testing.T) {
	t.Parallel()

	s := New(quietLogger(), time.Second)
	err := s.AddJob("repair", "not a cron", func(context.Context) error { return nil })
	require.Error(t, err)
	assert.Equal(t, 0, s.Jobs())
}

func TestAddJob_Registers(t *testing.T) {
	t.Parallel()

	s := New(quietLogger(), time.Second)
	require.NoError(t, s.AddJob("repair", "*/5 * * * *", func(context.Context) error { return nil }))
	assert.Equal(t, 1, s.Jobs())

	s.Start()
	s.Start()
	s.Stop()
	s.Stop()
}
