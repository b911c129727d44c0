package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/ministry/internal/server/config"
	"github.com/dmitrijs2005/ministry/internal/server/storetest"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddrHTTP = "127.0.0.1:0"
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.DatabaseDSN = storetest.DSNFor(filepath.Join(t.TempDir(), "app.db"))
	c.LogLevel = "error"
	return c
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := NewApp(ctx, testConfig(t))
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}

	require.Error(t, app.db.Ping(), "db must be closed after Run")
}

func TestNewApp_Errors(t *testing.T) {
	c := testConfig(t)
	c.LogFormat = "xml"
	_, err := NewApp(context.Background(), c)
	require.Error(t, err)

	c = testConfig(t)
	c.DatabaseDriver = "nope"
	_, err = NewApp(context.Background(), c)
	require.Error(t, err)
}
