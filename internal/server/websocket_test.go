package server_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/tartan/internal/assert/helpers"
	"github.com/kode4food/tartan/pkg/api"
)

const (
	wsReadTimeout = 2 * time.Second
	wsSettle      = 50 * time.Millisecond
)

func dialWebSocket(t *testing.T, env *testServerEnv) (*websocket.Conn, string) {
	t.Helper()
	srv := httptest.NewServer(env.Router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/engine/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })
	return conn, srv.URL
}

func TestSocketSilentUntilSubscribed(t *testing.T) {
	env := testServer(t)
	env.SeedProject(t, "p1", helpers.NewLinearFlow(t, "f1", "a"))
	conn, base := dialWebSocket(t, env)

	resp, err := http.Post(base+"/engine/project/p1/execute",
		"application/json", nil,
	)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	_ = conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestSocketStreamsSubscribedEvents(t *testing.T) {
	env := testServer(t)
	env.SeedProject(t, "p1", helpers.NewLinearFlow(t, "f1", "a", "b"))
	env.SeedProject(t, "p2", helpers.NewLinearFlow(t, "f2", "c"))
	conn, base := dialWebSocket(t, env)

	require.NoError(t, conn.WriteJSON(api.SubscribeRequest{
		Type: "subscribe",
		Data: api.ClientSubscription{
			ProjectID:  "p1",
			EventTypes: []api.EventType{api.EventTypeFlowCompleted},
		},
	}))

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	var ack api.SubscribedResponse
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, "subscribed", ack.Type)
	assert.Equal(t, api.ProjectID("p1"), ack.Data.ProjectID)

	for _, p := range []string{"p2", "p1"} {
		resp, err := http.Post(base+"/engine/project/"+p+"/execute",
			"application/json", nil,
		)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	var ev api.Event
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, api.EventTypeFlowCompleted, ev.Type)
	assert.Equal(t, api.ProjectID("p1"), ev.ProjectID)
	assert.Equal(t, api.FlowID("f1"), ev.FlowID)
}

func TestCloseWebSockets(t *testing.T) {
	env := testServer(t)
	conn, _ := dialWebSocket(t, env)
	time.Sleep(wsSettle)

	env.Server.CloseWebSockets()

	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
