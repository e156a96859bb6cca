package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/carti0459/PubbsTestingIITK-sub000/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The bridge is authenticated by the JWT on the upgrade request; the
	// browser origin carries no additional signal for a native app webview.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// unlockBridgeHandler upgrades the rider device's socket and hands it to the
// broker, which pairs it with the unlock attempt waiting on this bike.
func (a *API) unlockBridgeHandler(c *gin.Context) {
	logger := middleware.GetLogger(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("bridge upgrade failed", "error", err)
		return
	}

	a.broker.ServeBridge(c.Param("id"), conn)
}
