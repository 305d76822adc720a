package lcu

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
)

// Event is one message from the client's websocket feed.
type Event struct {
	URI       string
	EventType string // "Create" | "Update" | "Delete"
	Data      json.RawMessage
}

type feedMsg interface{ isFeedMsg() }

// Subscribe registers an outbox for events whose URI starts with Prefix.
type Subscribe struct {
	ID     string
	Prefix string
	Outbox chan Event
}

type Unsubscribe struct{ ID string }

type publish struct{ ev Event }

func (Subscribe) isFeedMsg()   {}
func (Unsubscribe) isFeedMsg() {}
func (publish) isFeedMsg()     {}

type subscriber struct {
	prefix string
	outbox chan Event
}

// Feed owns the websocket connection to the client and fans events out to
// subscribers. Single goroutine owns the subscriber map; everything goes
// through the inbox. Slow subscribers lose events rather than stall the
// feed.
type Feed struct {
	inbox chan feedMsg
	mu    sync.RWMutex
	creds Credentials
	log   *zap.Logger
}

func NewFeed(creds Credentials, log *zap.Logger) *Feed {
	return &Feed{
		inbox: make(chan feedMsg, 64),
		creds: creds,
		log:   log,
	}
}

func (f *Feed) Inbox() chan<- feedMsg { return f.inbox }

// SetCredentials points the next dial at a restarted client. The current
// connection, if any, dies with the old process and the reconnect loop
// picks the fresh credentials up.
func (f *Feed) SetCredentials(creds Credentials) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = creds
}

func (f *Feed) credentials() Credentials {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.creds
}

// Run dials the feed and pumps events until ctx is canceled. Connection
// loss is retried with a fixed backoff; the subscriber set survives
// reconnects.
func (f *Feed) Run(ctx context.Context) {
	go f.dispatch(ctx)

	for ctx.Err() == nil {
		if err := f.pump(ctx); err != nil && ctx.Err() == nil {
			f.log.Warn("event feed disconnected", zap.Error(err))
		}
		select {
		case <-ctx.Done():
		case <-time.After(2 * time.Second):
		}
	}
}

func (f *Feed) dispatch(ctx context.Context) {
	subs := map[string]subscriber{}
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-f.inbox:
			switch msg := m.(type) {
			case Subscribe:
				subs[msg.ID] = subscriber{prefix: msg.Prefix, outbox: msg.Outbox}
			case Unsubscribe:
				delete(subs, msg.ID)
			case publish:
				for id, s := range subs {
					if !strings.HasPrefix(msg.ev.URI, s.prefix) {
						continue
					}
					select {
					case s.outbox <- msg.ev:
					default:
						f.log.Debug("dropping event for slow subscriber",
							zap.String("subscriber", id), zap.String("uri", msg.ev.URI))
					}
				}
			}
		}
	}
}

func (f *Feed) pump(ctx context.Context) error {
	creds := f.credentials()
	url := fmt.Sprintf("wss://127.0.0.1:%d/", creds.Port)
	auth := base64.StdEncoding.EncodeToString([]byte("riot:" + creds.Password))

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		HTTPHeader: http.Header{"Authorization": {"Basic " + auth}},
	})
	if err != nil {
		return fmt.Errorf("dial event feed: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")
	conn.SetReadLimit(1 << 20)

	// WAMP subscribe: [5, "OnJsonApiEvent"] covers every endpoint; we
	// filter per subscriber prefix on our side.
	if err := conn.Write(ctx, websocket.MessageText, []byte(`[5, "OnJsonApiEvent"]`)); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	f.log.Info("event feed connected", zap.Int("port", creds.Port))

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}
		ev, ok := parseWAMPEvent(data)
		if !ok {
			continue
		}
		select {
		case f.inbox <- publish{ev}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// parseWAMPEvent decodes [8, "OnJsonApiEvent", {uri, eventType, data}].
// The client also sends empty keepalives and subscription acks; those
// return ok=false.
func parseWAMPEvent(data []byte) (Event, bool) {
	var frame []json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil || len(frame) < 3 {
		return Event{}, false
	}
	var opcode int
	if err := json.Unmarshal(frame[0], &opcode); err != nil || opcode != 8 {
		return Event{}, false
	}
	var payload struct {
		URI       string          `json:"uri"`
		EventType string          `json:"eventType"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(frame[2], &payload); err != nil || payload.URI == "" {
		return Event{}, false
	}
	return Event{URI: payload.URI, EventType: payload.EventType, Data: payload.Data}, true
}
