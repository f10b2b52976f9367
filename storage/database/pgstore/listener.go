package pgstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// Listener relays the notifications of the `notify_change` trigger to a Hub.
type Listener struct {
	connStr string
	channel string
	hub     *store.Hub
	logger  core.Logger
}

func NewListener(connStr, channel string, hub *store.Hub, logger core.Logger) *Listener {
	return &Listener{
		connStr: connStr,
		channel: channel,
		hub:     hub,
		logger:  logger,
	}
}

// Run listens until ctx is done.
// Notifications sent while the connection is down are lost; pq reconnects on its own.
func (l *Listener) Run(ctx context.Context) error {
	pl := pq.NewListener(l.connStr, minReconnectInterval, maxReconnectInterval, l.onEvent)
	defer func() { _ = pl.Close() }()

	if err := pl.Listen(l.channel); err != nil {
		return errors.Wrapf(err, "listening on %s", l.channel)
	}
	l.logger.Info("change feed: listening on " + l.channel)

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-pl.Notify:
			l.handle(n)
		case <-time.After(pingInterval):
			go func() { _ = pl.Ping() }()
		}
	}
}

func (l *Listener) onEvent(ev pq.ListenerEventType, err error) {
	switch ev {
	case pq.ListenerEventDisconnected:
		l.logger.Warn("change feed: disconnected", err)
	case pq.ListenerEventReconnected:
		l.logger.Info("change feed: reconnected")
	case pq.ListenerEventConnectionAttemptFailed:
		l.logger.Error("change feed: connection attempt failed", err)
	}
}

func (l *Listener) handle(n *pq.Notification) {
	if n == nil {
		// sent by pq after a reconnection
		return
	}
	ch, err := decodeChange(n.Extra)
	if err != nil {
		l.logger.Error(fmt.Sprintf("change feed: %v", err), err)
		return
	}
	l.hub.Publish(ch)
}

func decodeChange(payload string) (store.Change, error) {
	var ch store.Change
	if err := json.Unmarshal([]byte(payload), &ch); err != nil {
		return store.Change{}, errors.Wrapf(err, "decoding payload %q", payload)
	}
	if !store.IsCollection(ch.Collection) {
		return store.Change{}, errors.Errorf("unknown collection %q", ch.Collection)
	}
	ch.Op = strings.ToUpper(ch.Op)
	switch ch.Op {
	case store.OpInsert, store.OpUpdate, store.OpDelete:
	default:
		return store.Change{}, errors.Errorf("unknown op %q", ch.Op)
	}
	return ch, nil
}
