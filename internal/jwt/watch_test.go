package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchDirReloadsOnExternalRotation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dir := t.TempDir()

	served, err := NewFileKeyStore(dir)
	require.NoError(t, err)
	m, err := NewManager(ctx, served)
	require.NoError(t, err)
	_, err = m.Rotate(ctx, "v1")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- WatchDir(ctx, m, dir, 20*time.Millisecond) }()
	// dar tiempo a que el watcher se registre
	time.Sleep(50 * time.Millisecond)

	// otro proceso (la CLI) rota sobre el mismo directorio
	other, err := NewFileKeyStore(dir)
	require.NoError(t, err)
	cli, err := NewManager(ctx, other)
	require.NoError(t, err)
	_, err = cli.Rotate(ctx, "v2")
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return m.ActiveKID() == "v2" }, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchDirMissingDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	fs, err := NewFileKeyStore(dir)
	require.NoError(t, err)
	m, err := NewManager(ctx, fs)
	require.NoError(t, err)
	assert.Error(t, WatchDir(ctx, m, dir+"/missing", 0))
}
