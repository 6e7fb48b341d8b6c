package scenario

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchReportsChanges(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping filesystem watch test in short mode")
	}

	path := writeFile(t, "scenario.json", `{"min_tick_duration": 1, "max_tick_duration": 1, "items": [{"type": "idle"}]}`)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func() { changed <- struct{}{} })
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`{"min_tick_duration": 2, "max_tick_duration": 2, "items": [{"type": "idle"}]}`), 0o644))

	select {
	case <-changed:
	case <-time.After(3 * time.Second):
		t.Fatal("expected change notification")
	}

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
