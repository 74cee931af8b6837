package game

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const watchWriteTimeout = 10 * time.Second

var watchUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WatchGameHandler upgrades to a websocket and streams the full game document
// to the client on every change, starting with the current snapshot. This is
// the push channel clients re-render from; they never poll during a game.
func (h *GameHandler) WatchGameHandler(ctx *gin.Context) {
	code := ctx.Param("code")

	snapshots, err := h.repo.Watch(ctx.Request.Context(), code)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	conn, err := watchUpgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("gameCode", code).Msg("websocket upgrade failed")
		return
	}

	// Reader goroutine: the client never sends data, but reading is what
	// notices a closed connection.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	defer conn.Close()
	for {
		select {
		case g, ok := <-snapshots:
			if !ok {
				conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(watchWriteTimeout))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(watchWriteTimeout))
			if err := conn.WriteJSON(g); err != nil {
				log.Debug().Err(err).Str("gameCode", code).Msg("watch write failed, dropping client")
				return
			}
		case <-done:
			return
		}
	}
}
