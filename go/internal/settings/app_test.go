package settings

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSettings struct {
	values map[string]string
}

func newMemSettings() *memSettings {
	return &memSettings{values: make(map[string]string)}
}

func (m *memSettings) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", ErrSettingNotFound
	}
	return v, nil
}

func (m *memSettings) Set(ctx context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

func TestRegistrationOpen(t *testing.T) {
	clock := clockwork.NewFakeClock()
	repo := newMemSettings()
	app := NewApp(repo, clock)
	ctx := context.Background()

	t.Run("closed when never configured", func(t *testing.T) {
		open, err := app.RegistrationOpen(ctx)
		require.NoError(t, err)
		assert.False(t, open)
	})

	t.Run("open before deadline", func(t *testing.T) {
		require.NoError(t, app.SetRegistrationDeadline(ctx, clock.Now().Add(time.Hour)))
		open, err := app.RegistrationOpen(ctx)
		require.NoError(t, err)
		assert.True(t, open)
	})

	t.Run("closes when deadline passes", func(t *testing.T) {
		clock.Advance(2 * time.Hour)
		open, err := app.RegistrationOpen(ctx)
		require.NoError(t, err)
		assert.False(t, open)
	})

	t.Run("malformed value surfaces an error", func(t *testing.T) {
		repo.values[KeyRegistrationOpenUntil] = "not-a-time"
		_, err := app.RegistrationOpen(ctx)
		assert.Error(t, err)
	})
}

func TestDefaultBudget(t *testing.T) {
	clock := clockwork.NewFakeClock()
	repo := newMemSettings()
	app := NewApp(repo, clock)
	ctx := context.Background()

	budget, err := app.DefaultBudget(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(DefaultTeamBudget), budget)

	require.NoError(t, app.SetDefaultBudget(ctx, 250000))
	budget, err = app.DefaultBudget(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(250000), budget)

	assert.Error(t, app.SetDefaultBudget(ctx, -1))
}
