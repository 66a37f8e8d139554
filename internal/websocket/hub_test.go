package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reviewledger/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, secret string) (*Hub, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(nil)
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ServeWs(hub, c, secret) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return hub, srv
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
}

func TestBroadcastEventReachesClient(t *testing.T) {
	hub, srv := startServer(t, "")

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	hub.BroadcastEvent("job.status_changed", map[string]string{"id": "j1"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, "job.status_changed", env.Event)
	assert.Equal(t, "j1", env.Data["id"])
}

func TestServeWsRequiresTokenWhenSecretSet(t *testing.T) {
	_, srv := startServer(t, "s3cret")

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	tok, err := middleware.IssueToken("s3cret", "owner", time.Minute)
	require.NoError(t, err)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token="+tok), nil)
	require.NoError(t, err)
	_ = conn.Close()
}

func TestBroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	hub := NewHub(nil)
	for i := 0; i < 100; i++ {
		hub.BroadcastEvent("tick", i)
	}
	assert.Len(t, hub.Broadcast, cap(hub.Broadcast))
}

func TestHubShutdownReleasesClients(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil)
	go hub.Run(ctx)

	served := make(chan struct{}, 4)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		ServeWs(hub, c, "")
		served <- struct{}{}
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	<-served

	cancel()
	select {
	case <-hub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop")
	}

	// The open client is closed and its read loop exits without a running hub.
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	// A late connection is turned away instead of blocking on register.
	late, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	if err == nil {
		defer late.Close()
	}
	select {
	case <-served:
	case <-time.After(2 * time.Second):
		t.Fatal("ServeWs blocked after hub stopped")
	}
	assert.Equal(t, 0, hub.ClientCount())
}
