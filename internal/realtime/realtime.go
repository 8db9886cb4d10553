// Package realtime subscribes to row changes on the scans table through
// the backend's Phoenix-channel websocket.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/NikhilSetiya/securex/pkg/logging"
	"github.com/NikhilSetiya/securex/pkg/types"
)

// Change types
const (
	ChangeInsert = "INSERT"
	ChangeUpdate = "UPDATE"
	ChangeDelete = "DELETE"
)

// Change is one row change on a scan owned by the subscriber
type Change struct {
	Type   string     `json:"type"`
	Record types.Scan `json:"record"`
}

// Subscriber delivers scan changes for one user until ctx is done
type Subscriber interface {
	Subscribe(ctx context.Context, userID, accessToken string) (<-chan Change, error)
}

// Client is a Realtime websocket client
type Client struct {
	endpoint  string
	heartbeat time.Duration
	joinWait  time.Duration
	logger    *logging.Logger
	ref       atomic.Int64
}

// Option configures a Client
type Option func(*Client)

// WithHeartbeat overrides the 30 second heartbeat interval
func WithHeartbeat(d time.Duration) Option {
	return func(c *Client) { c.heartbeat = d }
}

// NewClient creates a client for the project at baseURL
func NewClient(baseURL, apiKey string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path += "/realtime/v1/websocket"
	u.RawQuery = url.Values{"apikey": {apiKey}, "vsn": {"1.0.0"}}.Encode()

	c := &Client{
		endpoint:  u.String(),
		heartbeat: 30 * time.Second,
		joinWait:  10 * time.Second,
		logger:    logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// message is a Phoenix channel frame
type message struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     *string         `json:"ref"`
	JoinRef *string         `json:"join_ref,omitempty"`
}

type joinPayload struct {
	Config      joinConfig `json:"config"`
	AccessToken string     `json:"access_token,omitempty"`
}

type joinConfig struct {
	Broadcast       map[string]bool   `json:"broadcast"`
	Presence        map[string]string `json:"presence"`
	PostgresChanges []changeFilter    `json:"postgres_changes"`
}

type changeFilter struct {
	Event  string `json:"event"`
	Schema string `json:"schema"`
	Table  string `json:"table"`
	Filter string `json:"filter,omitempty"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

type changePayload struct {
	Data struct {
		Type      string          `json:"type"`
		Record    json.RawMessage `json:"record"`
		OldRecord json.RawMessage `json:"old_record"`
	} `json:"data"`
}

// Subscribe joins the scans change feed filtered to userID. The returned
// channel closes when ctx is done or the connection drops.
func (c *Client) Subscribe(ctx context.Context, userID, accessToken string) (<-chan Change, error) {
	conn, _, err := websocket.Dial(ctx, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("realtime dial: %w", err)
	}
	conn.SetReadLimit(1 << 20)

	topic := "realtime:scans:" + userID
	joinRef := c.nextRef()
	join, _ := json.Marshal(joinPayload{
		Config: joinConfig{
			Broadcast: map[string]bool{"self": false},
			Presence:  map[string]string{"key": ""},
			PostgresChanges: []changeFilter{{
				Event:  "*",
				Schema: "public",
				Table:  "scans",
				Filter: "user_id=eq." + userID,
			}},
		},
		AccessToken: accessToken,
	})
	if err := c.send(ctx, conn, message{Topic: topic, Event: "phx_join", Payload: join, Ref: &joinRef, JoinRef: &joinRef}); err != nil {
		conn.CloseNow()
		return nil, err
	}

	if err := c.awaitJoin(ctx, conn, joinRef); err != nil {
		conn.CloseNow()
		return nil, err
	}

	changes := make(chan Change, 16)
	go c.run(ctx, conn, topic, changes)
	return changes, nil
}

func (c *Client) awaitJoin(ctx context.Context, conn *websocket.Conn, ref string) error {
	ctx, cancel := context.WithTimeout(ctx, c.joinWait)
	defer cancel()

	for {
		var msg message
		if err := c.read(ctx, conn, &msg); err != nil {
			return fmt.Errorf("realtime join: %w", err)
		}
		if msg.Event != "phx_reply" || msg.Ref == nil || *msg.Ref != ref {
			continue
		}
		var reply replyPayload
		if err := json.Unmarshal(msg.Payload, &reply); err != nil {
			return fmt.Errorf("realtime join reply: %w", err)
		}
		if reply.Status != "ok" {
			return fmt.Errorf("realtime join rejected: %s", string(reply.Response))
		}
		return nil
	}
}

func (c *Client) run(ctx context.Context, conn *websocket.Conn, topic string, out chan<- Change) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer close(out)
	defer conn.Close(websocket.StatusNormalClosure, "")

	go c.heartbeatLoop(ctx, conn, cancel)

	for {
		var msg message
		if err := c.read(ctx, conn, &msg); err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("Realtime connection closed", "topic", topic, "error", err.Error())
			}
			return
		}
		if msg.Topic != topic {
			continue
		}

		switch msg.Event {
		case "postgres_changes":
			change, ok := decodeChange(msg.Payload)
			if !ok {
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		case "phx_close", "phx_error":
			c.logger.Warn("Realtime channel closed by server", "topic", topic, "event", msg.Event)
			return
		}
	}
}

func (c *Client) heartbeatLoop(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	ticker := time.NewTicker(c.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ref := c.nextRef()
			if err := c.send(ctx, conn, message{Topic: "phoenix", Event: "heartbeat", Payload: json.RawMessage(`{}`), Ref: &ref}); err != nil {
				cancel()
				return
			}
		}
	}
}

func decodeChange(payload json.RawMessage) (Change, bool) {
	var p changePayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return Change{}, false
	}

	raw := p.Data.Record
	if p.Data.Type == ChangeDelete {
		raw = p.Data.OldRecord
	}
	var scan types.Scan
	if len(raw) == 0 || json.Unmarshal(raw, &scan) != nil {
		return Change{}, false
	}
	return Change{Type: p.Data.Type, Record: scan}, true
}

func (c *Client) send(ctx context.Context, conn *websocket.Conn, msg message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, data)
}

func (c *Client) read(ctx context.Context, conn *websocket.Conn, msg *message) error {
	_, data, err := conn.Read(ctx)
	if err != nil {
		return err
	}
	// Undecodable frames are skipped rather than ending the subscription.
	if json.Unmarshal(data, msg) != nil {
		*msg = message{}
	}
	return nil
}

func (c *Client) nextRef() string {
	return strconv.FormatInt(c.ref.Add(1), 10)
}
