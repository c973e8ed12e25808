package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketDialer_URL(t *testing.T) {
	d, err := NewWebSocketDialer("https://localhost:8443/", "/cgi/state", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "wss://localhost:8443/cgi/state?sessionKey=a+b", d.URL("a b"))
	assert.Equal(t, "https://localhost:8443", d.origin)

	d, err = NewWebSocketDialer("http://localhost:8080", "/cgi/state", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/cgi/state?sessionKey=k", d.URL("k"))

	_, err = NewWebSocketDialer("ftp://localhost", "/cgi/state", time.Second)
	assert.Error(t, err)
}

func TestWebSocketDialer_DialExchangesFrames(t *testing.T) {
	upgrader := websocket.Upgrader{}
	gotKey := make(chan string, 1)
	gotOrigin := make(chan string, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey <- r.URL.Query().Get("sessionKey")
		gotOrigin <- r.Header.Get("Origin")
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		var in map[string]string
		if err := c.ReadJSON(&in); err != nil {
			return
		}
		c.WriteMessage(websocket.BinaryMessage, []byte("skipped"))
		c.WriteJSON(map[string]string{"messageType": "checkSessionKey", "currentSessionKey": "k1", "echo": in["messageType"]})
	}))
	defer srv.Close()

	d, err := NewWebSocketDialer(srv.URL, "/cgi/state", time.Second)
	require.NoError(t, err)

	conn, err := d.Dial(context.Background(), "k1")
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "k1", <-gotKey)
	assert.Equal(t, srv.URL, <-gotOrigin)

	require.NoError(t, conn.WriteJSON(map[string]string{"messageType": "checkSessionKey"}))
	data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"messageType":"checkSessionKey","currentSessionKey":"k1","echo":"checkSessionKey"}`, string(data))

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	_, err = conn.ReadMessage()
	assert.Error(t, err)
}

func TestWebSocketDialer_RejectedUpgrade(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	d, err := NewWebSocketDialer(srv.URL, "/cgi/state", time.Second)
	require.NoError(t, err)
	_, err = d.Dial(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "403")
}
