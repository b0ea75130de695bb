package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetOrCreate(t *testing.T) {
	st := NewStore()
	defer st.Shutdown()

	s1, err := st.GetOrCreate("abc")
	require.NoError(t, err)
	require.NotNil(t, s1)
	assert.Equal(t, "abc", s1.ID())

	s2, err := st.GetOrCreate("abc")
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	s3, err := st.GetOrCreate("def")
	require.NoError(t, err)
	assert.NotSame(t, s1, s3)
	assert.Equal(t, 2, st.Len())
}

func TestStoreGetOrCreateConcurrent(t *testing.T) {
	st := NewStore()
	defer st.Shutdown()

	const goroutines = 20
	results := make([]*Session, goroutines)

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := st.GetOrCreate("same-id")
			require.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		assert.Same(t, results[0], results[i])
	}
	assert.Equal(t, 1, st.Len())
}

func TestStoreMaxSessions(t *testing.T) {
	st := NewStore(WithMaxSessions(2))
	defer st.Shutdown()

	_, err := st.GetOrCreate("one")
	require.NoError(t, err)
	_, err = st.GetOrCreate("two")
	require.NoError(t, err)

	_, err = st.GetOrCreate("three")
	assert.ErrorIs(t, err, ErrStoreFull)

	// Existing sessions are still retrievable at the cap.
	_, err = st.GetOrCreate("one")
	assert.NoError(t, err)
}

func TestStoreGetAndRemove(t *testing.T) {
	st := NewStore()
	defer st.Shutdown()

	_, ok := st.Get("missing")
	assert.False(t, ok)

	created, err := st.GetOrCreate("abc")
	require.NoError(t, err)

	got, ok := st.Get("abc")
	assert.True(t, ok)
	assert.Same(t, created, got)

	st.Remove("abc")
	_, ok = st.Get("abc")
	assert.False(t, ok)
}

func TestStoreExpiresIdleSessions(t *testing.T) {
	st := NewStore(WithTTL(20*time.Millisecond), WithCleanupInterval(10*time.Millisecond))
	defer st.Shutdown()

	_, err := st.GetOrCreate("short-lived")
	require.NoError(t, err)

	// Poll Len rather than Get: Get refreshes the idle clock.
	assert.Eventually(t, func() bool {
		return st.Len() == 0
	}, time.Second, 5*time.Millisecond)

	_, ok := st.Get("short-lived")
	assert.False(t, ok)
}

func TestStoreShutdownClearsSessions(t *testing.T) {
	st := NewStore()
	_, err := st.GetOrCreate("abc")
	require.NoError(t, err)

	st.Shutdown()
	assert.Equal(t, 0, st.Len())
}
