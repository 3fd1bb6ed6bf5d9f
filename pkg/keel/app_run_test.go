package keel_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/toyz/keel/pkg/keel"
	_ "github.com/toyz/keel/pkg/keel/adapters"
)

func listenConfig(t *testing.T) *keel.Config {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	cfg := keel.DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = port
	cfg.ShutdownTimeout = 5 * time.Second
	return cfg
}

func TestApp_Run(t *testing.T) {
	var events []string
	api := keel.NewRouter("/")
	api.Get("/ping", func(rc keel.RequestContext) (string, error) { return "pong", nil })
	root := keel.NewModule("app",
		keel.Routers(api),
		keel.OnStartup(func(context.Context) error {
			events = append(events, "startup")
			return nil
		}),
		keel.OnShutdown(func(context.Context) error {
			events = append(events, "shutdown")
			return nil
		}),
	)

	cfg := listenConfig(t)
	app, err := keel.New(root, keel.WithConfig(cfg), keel.WithLogger(zaptest.NewLogger(t)), keel.WithOutput(io.Discard))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}, Timeout: time.Second}
	url := "http://" + cfg.Addr() + "/ping"
	require.Eventually(t, func() bool {
		resp, err := client.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after the context was cancelled")
	}

	assert.Equal(t, []string{"startup", "shutdown"}, events)
	_, err = client.Get(url)
	assert.Error(t, err)
	assert.ErrorIs(t, app.Stop(context.Background()), keel.ErrNotStarted)
}

func TestApp_RunServeError(t *testing.T) {
	cfg := listenConfig(t)
	taken, err := net.Listen("tcp", cfg.Addr())
	require.NoError(t, err)
	defer taken.Close()

	var stopped bool
	root := keel.NewModule("app", keel.OnShutdown(func(context.Context) error {
		stopped = true
		return nil
	}))
	app, err := keel.New(root, keel.WithConfig(cfg), keel.WithLogger(zaptest.NewLogger(t)), keel.WithOutput(io.Discard))
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		var opErr *net.OpError
		assert.ErrorAs(t, err, &opErr)
	case <-time.After(10 * time.Second):
		t.Fatal("Run kept running although the port is taken")
	}
	assert.True(t, stopped, "shutdown hooks run after a serve error")
}
