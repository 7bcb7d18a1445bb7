package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	logrus "github.com/sirupsen/logrus"

	"handa/internal/middleware"
	"handa/internal/notify"
)

// upgrader configures the WebSocket connection.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all for development (restrict in production!)
	},
}

type WSController struct {
	Hub *notify.Hub
}

// Notifications authenticates the token query parameter, upgrades the
// connection and attaches it to the hub until the client disconnects.
func (w *WSController) Notifications(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		respondError(c, http.StatusUnauthorized, "missing authentication token")
		return
	}
	token, err := middleware.ValidateToken(tokenString)
	if err != nil || !token.Valid {
		respondError(c, http.StatusUnauthorized, "invalid or expired token")
		return
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		respondError(c, http.StatusUnauthorized, "invalid token claims")
		return
	}
	userIDFloat, ok := claims["user_id"].(float64)
	if !ok {
		respondError(c, http.StatusUnauthorized, "invalid token claims")
		return
	}
	role, _ := claims["role"].(string)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := w.Hub.Register(conn, uint(userIDFloat), role)
	defer w.Hub.Unregister(client)

	// Hold the connection open; the hub writes, the client only pings.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
