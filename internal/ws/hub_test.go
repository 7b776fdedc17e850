package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"loyalty/config"
	"loyalty/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestHub_BroadcastToMember(t *testing.T) {
	t.Parallel()

	h := NewHub()
	a1, a2, b := NewClient(1), NewClient(1), NewClient(2)
	h.Register(a1)
	h.Register(a2)
	h.Register(b)
	require.Equal(t, 3, h.ClientCount())

	require.Equal(t, 2, h.BroadcastToMember(1, map[string]string{"type": "CP_EARNED"}))
	require.JSONEq(t, `{"type":"CP_EARNED"}`, string(<-a1.Send))
	require.JSONEq(t, `{"type":"CP_EARNED"}`, string(<-a2.Send))
	require.Empty(t, b.Send)

	a1.Close()
	a1.Close()
	require.Equal(t, 2, h.ClientCount())
	h.BroadcastAll(map[string]string{"type": "LEVELS_UPDATED"})
	require.Len(t, a2.Send, 1)
	require.Len(t, b.Send, 1)
}

func TestUpgradeNotificationsWS(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cfg := &config.JWTConfig{AccessSecret: "s3cret", AccessExpiry: time.Minute}
	hub := NewHub()
	r := gin.New()
	r.GET("/ws/notifications", UpgradeNotificationsWS(cfg, hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	tok, err := auth.GenerateAccessToken(cfg, 9, "m@example.com", "MEMBER")
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications?token=" + tok
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"connected","member_id":9}`, string(msg))

	hub.BroadcastToMember(9, map[string]string{"type": "LEVEL_UNLOCKED"})
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err = conn.ReadMessage()
	require.NoError(t, err)
	require.JSONEq(t, `{"type":"LEVEL_UNLOCKED"}`, string(msg))
}

func TestUpgradeNotificationsWS_RejectsBeforeUpgrade(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	cfg := &config.JWTConfig{AccessSecret: "s3cret", AccessExpiry: time.Minute}
	r := gin.New()
	r.GET("/ws/notifications", UpgradeNotificationsWS(cfg, NewHub()))
	srv := httptest.NewServer(r)
	defer srv.Close()

	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/notifications"
	for _, url := range []string{base, base + "?token=garbage"} {
		_, resp, err := websocket.DefaultDialer.Dial(url, nil)
		require.ErrorIs(t, err, websocket.ErrBadHandshake)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}
