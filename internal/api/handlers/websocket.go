package handlers

import (
	"github.com/gin-gonic/gin"

	"interview-service/internal/gateway"
)

type WSHandler struct {
	hub *gateway.Hub
}

func NewWSHandler(hub *gateway.Hub) *WSHandler {
	return &WSHandler{hub: hub}
}

// HandleWebSocket hands the request to the hub. Handshake auth happens
// there, before the upgrade.
func (h *WSHandler) HandleWebSocket(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}
