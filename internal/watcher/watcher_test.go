package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("/home 1.1.1.1\n"), 0o644))
}

func TestExpand(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "b.log"))
	touch(t, filepath.Join(dir, "a.log"))
	touch(t, filepath.Join(dir, "nested", "deep", "c.log"))
	touch(t, filepath.Join(dir, "notes.txt"))

	missing := filepath.Join(dir, "missing.log")
	got, err := Expand([]string{
		missing,
		filepath.Join(dir, "*.log"),
		filepath.Join(dir, "**", "*.log"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		missing,
		filepath.Join(dir, "a.log"),
		filepath.Join(dir, "b.log"),
		filepath.Join(dir, "nested", "deep", "c.log"),
	}, got)
}

func TestExpandNoMatches(t *testing.T) {
	got, err := Expand([]string{filepath.Join(t.TempDir(), "*.log")})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestExpandBadPattern(t *testing.T) {
	_, err := Expand([]string{"logs/[a-.log"})
	assert.Error(t, err)
}

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "access.log")
	other := filepath.Join(dir, "other.log")
	touch(t, path)

	w, err := New([]string{path}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	touch(t, other)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("/about 2.2.2.2\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	select {
	case ev := <-w.Events:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, ev.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestDebounce(t *testing.T) {
	events := make(chan Event)
	out := Debounce(events, 20*time.Millisecond)

	for i := 0; i < 5; i++ {
		events <- Event{Path: "a.log"}
	}

	select {
	case <-out:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for debounced signal")
	}

	select {
	case <-out:
		t.Fatal("burst produced more than one signal")
	case <-time.After(60 * time.Millisecond):
	}

	close(events)
	_, ok := <-out
	assert.False(t, ok)
}

func TestDebounceRepeatedBursts(t *testing.T) {
	events := make(chan Event)
	out := Debounce(events, 10*time.Millisecond)
	defer close(events)

	send := func() {
		t.Helper()
		select {
		case events <- Event{Path: "a.log"}:
		case <-time.After(time.Second):
			t.Fatal("debounce goroutine stopped accepting events")
		}
	}

	for burst := 0; burst < 3; burst++ {
		for i := 0; i < 3; i++ {
			send()
		}
		select {
		case <-out:
		case <-time.After(time.Second):
			t.Fatalf("burst %d produced no signal", burst)
		}
		// Let the timer fire with nothing pending before the next burst.
		time.Sleep(30 * time.Millisecond)
	}
}
