package api

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/gin-gonic/gin"

	"github.com/NikhilSetiya/securex/internal/scans"
	"github.com/NikhilSetiya/securex/internal/session"
	"github.com/NikhilSetiya/securex/pkg/config"
	"github.com/NikhilSetiya/securex/pkg/logging"
)

const eventWriteTimeout = 10 * time.Second

// ScanWatcher streams scan list updates for a session
type ScanWatcher interface {
	Watch(ctx context.Context, sess *session.Session) (<-chan scans.Update, error)
}

// EventsHandler bridges observer updates to a browser websocket
type EventsHandler struct {
	watcher ScanWatcher
	accept  *websocket.AcceptOptions
	logger  *logging.Logger
}

// NewEventsHandler creates an events handler. Upgrades are accepted from
// the same origins CORS allows.
func NewEventsHandler(watcher ScanWatcher, cfg config.ServerConfig) *EventsHandler {
	return &EventsHandler{
		watcher: watcher,
		accept:  acceptOptions(cfg),
		logger:  logging.GetLogger(),
	}
}

func acceptOptions(cfg config.ServerConfig) *websocket.AcceptOptions {
	if len(cfg.AllowedOrigins) == 0 && cfg.TrustedHostSuffix == "" {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	var patterns []string
	for _, o := range cfg.AllowedOrigins {
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			patterns = append(patterns, u.Host)
		}
	}
	if cfg.TrustedHostSuffix != "" {
		patterns = append(patterns, "*"+strings.TrimPrefix(cfg.TrustedHostSuffix, "*"))
	}
	return &websocket.AcceptOptions{OriginPatterns: patterns}
}

// Stream handles GET /api/v1/scans/events. The first message is the current
// list; each later one is a change, with a notification when a scan
// completed.
func (h *EventsHandler) Stream(c *gin.Context) {
	sess := currentSession(c)

	conn, err := websocket.Accept(c.Writer, c.Request, h.accept)
	if err != nil {
		// Accept has already written the failure response
		h.logger.WithContext(c.Request.Context()).WithError(err).Debug("Websocket upgrade rejected")
		return
	}
	defer conn.CloseNow()

	// The browser never sends anything; CloseRead cancels ctx once it
	// goes away.
	ctx := conn.CloseRead(c.Request.Context())

	updates, err := h.watcher.Watch(ctx, sess)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Warn("Scan feed subscription failed")
		conn.Close(websocket.StatusInternalError, "subscription failed")
		return
	}

	for update := range updates {
		writeCtx, cancel := context.WithTimeout(ctx, eventWriteTimeout)
		err := wsjson.Write(writeCtx, conn, update)
		cancel()
		if err != nil {
			return
		}
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
