package cli

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/genlist/internal/config"
)

func TestServe_LifecycleAndAPI(t *testing.T) {
	root := &RootOptions{Format: "text"}
	root.cfg = config.Config{Database: filepath.Join(t.TempDir(), "serve.db")}.WithDefaults()

	ready := make(chan string, 1)
	opts := &ServeOptions{RootOptions: root, Listen: "127.0.0.1:0", ready: ready}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runServe(ctx, opts) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-done:
		t.Fatalf("serve exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not start")
	}
	base := "http://" + addr

	resp, err := http.Get(base + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(base+"/producers", "application/json",
		strings.NewReader(`{"label":"web","priority":1,"values":[3]}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.Post(base+"/next", "application/json", nil)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"value":3`)

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "genlist_pool_produced_total 1")
	assert.Contains(t, string(body), "go_goroutines")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServe_ListenError(t *testing.T) {
	root := &RootOptions{Format: "text"}
	root.cfg = config.Config{Database: filepath.Join(t.TempDir(), "serve.db")}.WithDefaults()
	opts := &ServeOptions{RootOptions: root, Listen: "256.0.0.1:99999"}

	err := runServe(context.Background(), opts)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
