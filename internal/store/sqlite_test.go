package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryutarou1/lucky-alarm-native/internal/alarm"
)

func openTestStore(t *testing.T) *SQLiteSessions {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "alarm.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteLoadAbsent(t *testing.T) {
	s := openTestStore(t)

	_, found, err := s.Load(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, found, "no blob was saved yet")
}

func TestSQLiteSaveLoadRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	state := sampleState(t)

	require.NoError(t, s.Save(ctx, 42, state))

	loaded, found, err := s.Load(ctx, 42)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, state, loaded)

	// Other chats stay isolated.
	_, found, err = s.Load(ctx, 43)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSQLiteSaveOverwrites(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, 42, Default()))

	updated := Default()
	updated.Settings.SpoilerFree = true
	updated.Settings.SetProfile(alarm.Weekday, alarm.Profile{
		Target: alarm.TimeOfDay{Hour: 6, Minute: 45}, MinOffset: 10, MaxOffset: 40,
	})
	require.NoError(t, s.Save(ctx, 42, updated))

	loaded, found, err := s.Load(ctx, 42)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, updated, loaded)
}
