package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendBufferSize = 64
)

type changesApi struct {
	feed     store.Feed
	logger   core.Logger
	upgrader websocket.Upgrader
}

// registerChangesAPI registers the websocket change feed: `GET /changes?collection=students&collection=fee_submissions&token=<jwt>`.
// Browsers cannot set headers on a websocket handshake, hence the token query param.
func registerChangesAPI(g *echo.Group, iss *jwtIssuer, feed store.Feed, logger core.Logger) {
	api := changesApi{
		feed:   feed,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(iss.conf.Server.AllowOrigins),
		},
	}
	g.GET("/changes", api.subscribe, middleware.JWTWithConfig(iss.queryConfig()))
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func (api *changesApi) subscribe(ctx echo.Context) error {
	collections := ctx.QueryParams()["collection"]
	if len(collections) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "collection is required")
	}
	for _, coll := range collections {
		if !store.IsCollection(coll) {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown collection %q", coll))
		}
	}

	c := &changesClient{
		send:   make(chan store.Change, sendBufferSize),
		done:   make(chan struct{}),
		logger: api.logger,
		person: contextIdentity(ctx).LogPerson(),
	}
	// subscribe before the handshake completes so that no change is missed once the client is connected
	subs := make([]store.Subscription, 0, len(collections))
	for _, coll := range collections {
		subs = append(subs, api.feed.Subscribe(coll, c.push))
	}
	defer func() {
		for _, sub := range subs {
			sub.Unsubscribe()
		}
	}()

	conn, err := api.upgrader.Upgrade(ctx.Response(), ctx.Request(), nil)
	if err != nil {
		// the upgrader already replied
		return nil
	}
	c.conn = conn

	go c.writePump()
	c.readPump()
	return nil
}

// changesClient relays feed changes to a websocket connection.
type changesClient struct {
	conn   *websocket.Conn
	send   chan store.Change
	done   chan struct{}
	logger core.Logger
	person core.LogPerson
}

// push queues ch without blocking the feed; a change is dropped when the client lags behind.
func (c *changesClient) push(ch store.Change) {
	select {
	case <-c.done:
	case c.send <- ch:
	default:
		c.logger.Warn(fmt.Sprintf("change on %q dropped: client is lagging", ch.Collection), c.person)
	}
}

// readPump discards client messages until the connection closes.
func (c *changesClient) readPump() {
	defer func() {
		close(c.done)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("change feed connection closed unexpectedly", err, c.person)
			}
			return
		}
	}
}

func (c *changesClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return

		case ch := <-c.send:
			data, err := json.Marshal(ch)
			if err != nil {
				c.logger.Error("encoding change", err, c.person)
				continue
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
