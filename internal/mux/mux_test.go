package mux

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"holdem-server/internal/jwt"
	"holdem-server/internal/util"
	"holdem-server/pkg/room"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var loadKeysOnce sync.Once

func newTestMux(t *testing.T) *Mux {
	t.Helper()

	unset := util.SetEnv("HOLDEM_CONFIG_FILE", "testdata/config.yaml")
	t.Cleanup(unset)

	loadKeysOnce.Do(jwt.LoadKeys)
	return NewMux("test")
}

func TestGetHealth(t *testing.T) {
	a := assert.New(t)
	ts := httptest.NewServer(newTestMux(t))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	a.Equal(http.StatusOK, resp.StatusCode)

	var hr healthResponse
	a.NoError(json.NewDecoder(resp.Body).Decode(&hr))
	a.Equal("OK", hr.Status)
	a.Equal("test", hr.Version)
}

func TestAuthMiddleware_missingToken(t *testing.T) {
	a := assert.New(t)
	ts := httptest.NewServer(newTestMux(t))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/account")
	require.NoError(t, err)
	defer resp.Body.Close()
	a.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_badToken(t *testing.T) {
	a := assert.New(t)
	ts := httptest.NewServer(newTestMux(t))
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/account", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer garbage")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	a.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func TestPostAccount_badContentType(t *testing.T) {
	a := assert.New(t)
	ts := httptest.NewServer(newTestMux(t))
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/account", "text/plain", strings.NewReader("{}"))
	require.NoError(t, err)
	defer resp.Body.Close()
	a.Equal(http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestWebSocket_connect(t *testing.T) {
	a := assert.New(t)
	ts := httptest.NewServer(newTestMux(t))
	defer ts.Close()

	signedJWT, err := jwt.Sign("alice")
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/table/main/ws?access_token=" + signedJWT

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	// a fresh connection immediately receives the table state
	_ = conn.SetReadDeadline(time.Now().Add(time.Second * 5))

	var res room.Response
	a.NoError(conn.ReadJSON(&res))
	a.Equal("gameState", res.Key)
}

func TestWebSocket_unauthorized(t *testing.T) {
	ts := httptest.NewServer(newTestMux(t))
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/table/main/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.Error(t, err)
	if resp != nil {
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	}
}
