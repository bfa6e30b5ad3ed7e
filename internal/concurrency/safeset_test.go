package concurrency

import (
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSafeSet_AddRemoveContains(t *testing.T) {
	s := NewSafeSet()
	require.False(t, s.Contains("a"))

	s.Add("a")
	require.True(t, s.Contains("a"))
	require.Equal(t, 1, s.Len())

	s.Remove("a")
	require.False(t, s.Contains("a"))
	require.Equal(t, 0, s.Len())
}

func TestSafeSet_RemoveMissingIsNoop(t *testing.T) {
	s := NewSafeSet()
	s.Remove("missing")
	require.Equal(t, 0, s.Len())
}

func TestSafeSet_Keys(t *testing.T) {
	s := NewSafeSet()
	s.Add("a")
	s.Add("b")

	keys := s.Keys()
	sort.Strings(keys)
	require.Equal(t, []string{"a", "b"}, keys)
}

func TestSafeSet_ConcurrentAccess(t *testing.T) {
	s := NewSafeSet()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Add(string(rune('a' + n%26)))
		}(i)
	}
	wg.Wait()
	require.LessOrEqual(t, s.Len(), 26)
}
