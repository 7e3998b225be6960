package storage

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qwertysam/solar-colony/game"
	"github.com/qwertysam/solar-colony/internal/config"
)

func newTestBackend(t *testing.T) Backend {
	t.Helper()
	b, err := NewBackend(config.StorageConfig{Type: "sqlite"}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, b.Init())
	t.Cleanup(func() { b.Close() })
	return b
}

func TestNewBackend(t *testing.T) {
	b, err := NewBackend(config.StorageConfig{Type: "none"}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, b)

	_, err = NewBackend(config.StorageConfig{Type: "mongo"}, zerolog.Nop())
	assert.ErrorContains(t, err, "unknown storage type")
}

func TestGormMatchLifecycle(t *testing.T) {
	b := newTestBackend(t)
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rec := &MatchRecord{
		GameID:     "ABCDE",
		MaxPlayers: 2,
		Teams: []TeamRecord{
			{ID: 0, Colour: "red", Pixels: 100, Players: []string{"alice"}},
			{ID: 1, Colour: "orange", Pixels: 100, Players: []string{"bob"}},
		},
		Snapshot:  game.DefaultTemplate(),
		StartedAt: started,
	}
	require.NoError(t, b.StartMatch(rec))

	actions := []game.Action{
		{Time: 1, Type: game.ActionCreateShips, Planet: 1, N: 10, Cost: 90},
		{Time: 2.5, Type: game.ActionSendShips, Planet: 1, To: 0, Amount: 4},
		{Time: 3, Type: game.ActionCreateSpawn, Planet: 2},
	}
	for i, a := range actions {
		require.NoError(t, b.RecordAction(&ActionRecord{GameID: "ABCDE", Seq: i, Team: i % 2, Action: a}))
	}

	ended := started.Add(5 * time.Minute)
	require.NoError(t, b.EndMatch("ABCDE", ended, 300, "cafe"))

	got, journal, err := b.LoadMatch("ABCDE")
	require.NoError(t, err)

	assert.Equal(t, 2, got.MaxPlayers)
	assert.Equal(t, rec.Teams, got.Teams)
	assert.Equal(t, rec.Snapshot, got.Snapshot)
	assert.Equal(t, "cafe", got.Digest)
	assert.Equal(t, 300.0, got.EndTime)
	require.NotNil(t, got.EndedAt)
	assert.True(t, ended.Equal(*got.EndedAt))

	require.Len(t, journal, 3)
	for i, a := range journal {
		assert.Equal(t, i, a.Seq)
		assert.Equal(t, actions[i], a.Action)
	}
}

func TestGormRejectsActionsWithoutOpenMatch(t *testing.T) {
	b := newTestBackend(t)

	err := b.RecordAction(&ActionRecord{GameID: "ZZZZZ", Action: game.Action{Type: game.ActionCreateSpawn}})
	assert.ErrorIs(t, err, ErrMatchNotOpen)

	err = b.EndMatch("ZZZZZ", time.Now(), 0, "")
	assert.ErrorIs(t, err, ErrMatchNotOpen)
}

func TestGormLoadMissing(t *testing.T) {
	b := newTestBackend(t)

	_, _, err := b.LoadMatch("NOPE2")
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestGormLoadReturnsLatest(t *testing.T) {
	b := newTestBackend(t)

	first := &MatchRecord{GameID: "REUSE", MaxPlayers: 2, Snapshot: game.DefaultTemplate(), StartedAt: time.Now()}
	require.NoError(t, b.StartMatch(first))
	require.NoError(t, b.EndMatch("REUSE", time.Now(), 10, "first"))

	second := &MatchRecord{GameID: "REUSE", MaxPlayers: 4, Snapshot: game.DefaultTemplate(), StartedAt: time.Now()}
	require.NoError(t, b.StartMatch(second))

	got, journal, err := b.LoadMatch("REUSE")
	require.NoError(t, err)
	assert.Equal(t, 4, got.MaxPlayers)
	assert.Nil(t, got.EndedAt)
	assert.Empty(t, journal)
}
