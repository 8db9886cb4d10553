package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NikhilSetiya/securex/internal/scans"
	"github.com/NikhilSetiya/securex/internal/session"
	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/types"
)

func wsURL(server *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(server.URL, "http") + path
}

func TestEventsStreamsObserverUpdates(t *testing.T) {
	f := newFixture(t)
	f.signedIn(freeProfile(), false)
	done := completedScan()
	f.watcher = &fakeWatcher{
		gotSess: make(chan *session.Session, 1),
		updates: []scans.Update{
			{Scans: []types.Scan{}},
			{
				Scans:        []types.Scan{*done},
				Changed:      done,
				Notification: &scans.Notification{Tier: scans.TierWarning, Title: "Scan finished"},
			},
		},
	}
	server := httptest.NewServer(f.router())
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// browsers cannot set headers on the upgrade, so the token rides in the query
	conn, _, err := websocket.Dial(ctx, wsURL(server, "/api/v1/scans/events?access_token="+testToken), nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var first scans.Update
	require.NoError(t, wsjson.Read(ctx, conn, &first))
	assert.Empty(t, first.Scans)

	var second scans.Update
	require.NoError(t, wsjson.Read(ctx, conn, &second))
	require.NotNil(t, second.Changed)
	assert.Equal(t, done.ID, second.Changed.ID)
	require.NotNil(t, second.Notification)
	assert.Equal(t, scans.TierWarning, second.Notification.Tier)

	sess := <-f.watcher.gotSess
	assert.Equal(t, testUserID, sess.UserID())
	assert.Equal(t, testToken, sess.AccessToken)

	conn.Close(websocket.StatusNormalClosure, "")
}

func TestEventsRequireToken(t *testing.T) {
	f := newFixture(t)
	f.signedIn(freeProfile(), false)
	server := httptest.NewServer(f.router())
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, resp, err := websocket.Dial(ctx, wsURL(server, "/api/v1/scans/events"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAcceptOptions(t *testing.T) {
	open := acceptOptions(config.ServerConfig{})
	assert.True(t, open.InsecureSkipVerify)

	restricted := acceptOptions(config.ServerConfig{
		AllowedOrigins:    []string{"https://securex.example.com"},
		TrustedHostSuffix: ".lovable.app",
	})
	assert.False(t, restricted.InsecureSkipVerify)
	assert.Equal(t, []string{"securex.example.com", "*.lovable.app"}, restricted.OriginPatterns)
}
