package session

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const opener = "こんにちは"

func TestGetOrCreateSeedsSession(t *testing.T) {
	store := NewStore()

	sess, created := store.GetOrCreate("u1", opener)
	require.True(t, created)
	assert.Equal(t, "u1", sess.ID)
	assert.Equal(t, []string{opener}, sess.History())
	assert.Equal(t, 1, sess.TurnCount())
	assert.False(t, sess.Finalized())
}

func TestGetOrCreateIsIdempotent(t *testing.T) {
	store := NewStore()

	first, created := store.GetOrCreate("u1", opener)
	require.True(t, created)

	second, created := store.GetOrCreate("u1", opener)
	require.False(t, created)
	assert.Same(t, first, second)
}

func TestUnknownSession(t *testing.T) {
	store := NewStore()

	_, err := store.Get("ghost")
	assert.ErrorIs(t, err, ErrUnknownSession)

	assert.ErrorIs(t, store.Append("ghost", "hi"), ErrUnknownSession)

	_, err = store.IncrementTurn("ghost")
	assert.ErrorIs(t, err, ErrUnknownSession)

	assert.ErrorIs(t, store.Finalize("ghost", "x"), ErrUnknownSession)
}

func TestAppendAndIncrement(t *testing.T) {
	store := NewStore()
	store.GetOrCreate("u1", opener)

	require.NoError(t, store.Append("u1", "調子どう？"))
	require.NoError(t, store.Append("u1", "元気です"))

	count, err := store.IncrementTurn("u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	sess, err := store.Get("u1")
	require.NoError(t, err)
	assert.Equal(t, []string{opener, "調子どう？", "元気です"}, sess.History())
}

func TestFinalizeRetainsEntry(t *testing.T) {
	store := NewStore()
	store.GetOrCreate("u1", opener)

	require.NoError(t, store.Finalize("u1", "1700000000:u1:yubot"))

	sess, err := store.Get("u1")
	require.NoError(t, err)
	assert.True(t, sess.Finalized())
	assert.Equal(t, "1700000000:u1:yubot", sess.ExportID())
}

func TestResetReplacesSession(t *testing.T) {
	store := NewStore()

	old, _ := store.GetOrCreate("u1", opener)
	require.NoError(t, store.Append("u1", "古い発話"))

	fresh := store.Reset("u1", opener)
	assert.NotSame(t, old, fresh)
	assert.Equal(t, []string{opener}, fresh.History())
	assert.Equal(t, 1, fresh.TurnCount())
}

func TestConcurrentGetOrCreateSingleInstance(t *testing.T) {
	store := NewStore()

	const workers = 32

	sessions := make([]*Session, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sessions[i], _ = store.GetOrCreate("u1", opener)
		}(i)
	}
	wg.Wait()

	for i := 1; i < workers; i++ {
		assert.Same(t, sessions[0], sessions[i])
	}
}

func TestConcurrentDistinctSessions(t *testing.T) {
	store := NewStore()

	const users = 64
	const turns = 10

	var wg sync.WaitGroup
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			id := fmt.Sprintf("u%d", i)
			store.GetOrCreate(id, opener)

			for j := 0; j < turns; j++ {
				_ = store.Append(id, fmt.Sprintf("msg %d", j))
				_, _ = store.IncrementTurn(id)
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < users; i++ {
		sess, err := store.Get(fmt.Sprintf("u%d", i))
		require.NoError(t, err)
		assert.Len(t, sess.History(), turns+1)
		assert.Equal(t, turns+1, sess.TurnCount())
	}
}
