package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"drainflow/internal/service"
	"drainflow/internal/ws"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TrackingHandler serves the live-tracking WebSocket.
type TrackingHandler struct {
	hub      *ws.Hub
	tracking *service.TrackingService
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(hub *ws.Hub, tracking *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{hub: hub, tracking: tracking}
}

// Watch handles GET /v1/trips/:id/ws
//
// The connection immediately receives the current snapshot, then every
// subsequent state change until the trip reaches a terminal status or
// the client disconnects.
func (h *TrackingHandler) Watch(c *gin.Context) {
	tripID := c.Param("id")

	snap, err := h.tracking.Snapshot(tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws: upgrade failed for trip %s: %v", tripID, err)
		return
	}

	client := ws.NewClient(tripID, conn)
	h.hub.Add(client)
	h.hub.PublishSnapshot(tripID, snap)
	client.Run(h.hub)
}
