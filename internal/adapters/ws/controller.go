package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/securewatch/securewatch/internal/relay"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Dispatcher *relay.Dispatcher
	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
}

// Handle upgrades the request and runs the pumps. The connection id is minted
// here, per socket; a reconnecting peer always arrives as a fresh id.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	id := relay.ConnID(uuid.NewString())

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade")
		return
	}
	log.Info().Str("module", "ws").Str("conn", string(id)).Msg("new connection")

	conn := newConn(ws, ctl.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, id, conn)
}

func (ctl *Controller) writePump(ctx context.Context, c *Conn) {
	ticker := time.NewTicker(ctl.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.ws.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump set deadline")
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "ws").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, id relay.ConnID, c *Conn) {
	defer func() {
		log.Info().Str("module", "ws").Str("conn", string(id)).Msg("connection closing")
		cancel()
		ctl.Dispatcher.HandleClose(id)
		c.Close()
	}()

	if ctl.ReadLimit > 0 {
		c.ws.SetReadLimit(ctl.ReadLimit)
	}
	deadline := 2 * ctl.PingPeriod
	_ = c.ws.SetReadDeadline(time.Now().Add(deadline))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(deadline))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.ws.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "ws").Str("conn", string(id)).Msg("abnormal close")
				}
				return
			}
			_ = c.ws.SetReadDeadline(time.Now().Add(deadline))
			ctl.Dispatcher.HandleMessage(id, c, data)
		}
	}
}
