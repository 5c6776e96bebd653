package app

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/haguru/llmvault/config"
	"github.com/haguru/llmvault/internal/interfaces/mocks"
	"github.com/haguru/llmvault/pkg/zerolog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig(dsn string) *config.ServiceConfig {
	cfg := config.Default()
	cfg.Host = "127.0.0.1"
	cfg.Port = "0"
	cfg.Database.DSN = dsn
	return cfg
}

func TestNewAppWithClient(t *testing.T) {
	tests := []struct {
		name   string
		dbType string
	}{
		{name: "mongo", dbType: config.DatabaseTypeMongo},
		{name: "postgres", dbType: config.DatabaseTypePostgres},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := mocks.NewMockDBClient(t)
			db.On("EnsureSchema", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()
			db.On("Ping", mock.Anything).Return(nil).Once()

			app, err := NewAppWithClient(context.Background(), testConfig("x"), zerolog.NewLoggerWithWriter("test", io.Discard), tt.dbType, db)
			require.NoError(t, err)

			rr := httptest.NewRecorder()
			app.Server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, rr.Code)

			rr = httptest.NewRecorder()
			app.Server.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			assert.Equal(t, http.StatusOK, rr.Code)
			assert.True(t, strings.Contains(rr.Body.String(), "llmvault_user_upsert_requests_total"))
		})
	}
}

func TestNewAppWithClient_EnsureIndicesFails(t *testing.T) {
	db := mocks.NewMockDBClient(t)
	db.On("EnsureSchema", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("not authorized")).Once()

	_, err := NewAppWithClient(context.Background(), testConfig("x"), zerolog.NewLoggerWithWriter("test", io.Discard), config.DatabaseTypeMongo, db)
	assert.ErrorContains(t, err, "not authorized")
}

func TestNewApp_UnsupportedDSN(t *testing.T) {
	_, err := NewApp(context.Background(), testConfig("redis://localhost"), zerolog.NewLoggerWithWriter("test", io.Discard))
	assert.Error(t, err)
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	db := mocks.NewMockDBClient(t)
	db.On("EnsureSchema", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()
	db.On("Disconnect", mock.Anything).Return(nil).Once()

	app, err := NewAppWithClient(context.Background(), testConfig("x"), zerolog.NewLoggerWithWriter("test", io.Discard), config.DatabaseTypeMongo, db)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.NoError(t, app.Close(context.Background()))
}

func TestApp_RunReportsListenFailureOnce(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	db := mocks.NewMockDBClient(t)
	db.On("EnsureSchema", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

	cfg := testConfig("x")
	cfg.Port = strconv.Itoa(taken.Addr().(*net.TCPAddr).Port)
	app, err := NewAppWithClient(context.Background(), cfg, zerolog.NewLoggerWithWriter("test", io.Discard), config.DatabaseTypeMongo, db)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.Equal(t, 1, strings.Count(err.Error(), "failed to start server"), err.Error())
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return on listen failure")
	}
}
