package realtime

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/epost-hub/backend/internal/auth"
	"github.com/epost-hub/backend/internal/models"
	"github.com/epost-hub/backend/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // access is gated by the token
	},
}

var (
	errUnknownTopic = errors.New("unknown topic")
	errForbidden    = errors.New("topic requires admin role")
)

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Client represents a single WebSocket subscription to one topic.
type Client struct {
	ID     string
	Topic  string
	UserID uuid.UUID
	Role   models.Role
	hub    *Hub
	conn   *websocket.Conn
	send   chan WSMessage
	logger *zap.Logger
}

// TokenValidator verifies the token passed in the query string.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// EventTopic returns the topic for an event's comment stream.
func EventTopic(id uuid.UUID) string { return TopicEventPrefix + id.String() }

// QuestionTopic returns the topic for a question's comment stream.
func QuestionTopic(id uuid.UUID) string { return TopicQuestionPrefix + id.String() }

// authorizeTopic checks that the verified claims may subscribe to topic.
func authorizeTopic(topic string, claims *auth.Claims) error {
	switch {
	case topic == TopicModeration:
		if !claims.HasRole(models.RoleAdmin) {
			return errForbidden
		}
		return nil
	case strings.HasPrefix(topic, TopicEventPrefix):
		_, err := uuid.Parse(strings.TrimPrefix(topic, TopicEventPrefix))
		if err != nil {
			return errUnknownTopic
		}
		return nil
	case strings.HasPrefix(topic, TopicQuestionPrefix):
		_, err := uuid.Parse(strings.TrimPrefix(topic, TopicQuestionPrefix))
		if err != nil {
			return errUnknownTopic
		}
		return nil
	default:
		return errUnknownTopic
	}
}

// ServeWs handles the WebSocket upgrade and runs the client loop.
func ServeWs(hub *Hub, validator TokenValidator, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		topic := c.Query("topic")
		token := c.Query("token")
		if topic == "" || token == "" {
			response.BadRequest(c, "topic and token required")
			return
		}
		claims, err := validator.Validate(token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token")
			return
		}
		if err := authorizeTopic(topic, claims); err != nil {
			if errors.Is(err, errForbidden) {
				response.Forbidden(c, err.Error())
				return
			}
			response.BadRequest(c, err.Error())
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:     uuid.New().String(),
			Topic:  topic,
			UserID: claims.UserID,
			Role:   claims.Role,
			hub:    hub,
			conn:   conn,
			send:   make(chan WSMessage, 64),
			logger: logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

// readPump only drains control frames; the feed is server-to-client.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
