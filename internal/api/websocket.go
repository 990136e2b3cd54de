package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/kolam-koders/backend/internal/models"
	"github.com/kolam-koders/backend/internal/service"
)

// WebSocket message types for the generation protocol
const (
	// Client -> Server messages
	MsgTypeGenerate = "kolam:generate"
	MsgTypeGeometry = "kolam:geometry"
	MsgTypePing     = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypeAck       = "ack"
	MsgTypeComplete  = "complete"
	MsgTypeError     = "error"
	MsgTypePong      = "pong"
)

// WebSocket message structure
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WebSocket error response
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// WebSocketHandler runs generation requests over a WebSocket connection.
// Requests on one connection are handled in order.
type WebSocketHandler struct {
	svc          *service.KolamService
	upgrader     websocket.Upgrader
	maxMsgSize   int64
	writeTimeout time.Duration
	log          *logrus.Entry
}

// NewWebSocketHandler creates a new WebSocket generation handler
func NewWebSocketHandler(svc *service.KolamService, maxMsgSize int64) *WebSocketHandler {
	return &WebSocketHandler{
		svc: svc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
		},
		maxMsgSize:   maxMsgSize,
		writeTimeout: 10 * time.Second,
		log:          logrus.WithField("component", "websocket"),
	}
}

// HandleWebSocket upgrades the HTTP connection and serves the protocol
func (wsh *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	ws, err := wsh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	if wsh.maxMsgSize > 0 {
		ws.SetReadLimit(wsh.maxMsgSize)
	}
	log := wsh.log.WithField("remote", c.RealIP())
	log.Debug("client connected")

	ctx := c.Request().Context()
	wsh.sendMessage(ws, WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Warn("connection error")
			}
			break
		}

		switch msg.Type {
		case MsgTypePing:
			wsh.sendMessage(ws, WSMessage{Type: MsgTypePong, ID: msg.ID, Timestamp: time.Now().UnixMilli()})
		case MsgTypeGenerate:
			wsh.handleGenerate(ctx, ws, msg)
		case MsgTypeGeometry:
			wsh.handleGeometry(ws, msg)
		default:
			wsh.sendError(ws, msg.ID, "Unknown message type: "+msg.Type, "INVALID_TYPE")
		}
	}

	log.Debug("client disconnected")
	return nil
}

// handleGenerate acknowledges the request, then renders and stores it.
func (wsh *WebSocketHandler) handleGenerate(ctx context.Context, ws *websocket.Conn, msg WSMessage) {
	req, ok := wsh.decodeRequest(ws, msg)
	if !ok {
		return
	}
	wsh.sendMessage(ws, WSMessage{Type: MsgTypeAck, ID: msg.ID, Timestamp: time.Now().UnixMilli()})

	res, err := wsh.svc.Generate(ctx, req)
	if err != nil {
		apiErr := toAPIError(err, "kolam", "")
		wsh.sendError(ws, msg.ID, apiErr.Message+": "+apiErr.Details, apiErr.Code)
		return
	}

	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeComplete,
		ID:        msg.ID,
		Payload:   mustJSON(newGenerateResponse(res)),
		Timestamp: time.Now().UnixMilli(),
	})
}

// handleGeometry replies with the pattern only; nothing is stored.
func (wsh *WebSocketHandler) handleGeometry(ws *websocket.Conn, msg WSMessage) {
	req, ok := wsh.decodeRequest(ws, msg)
	if !ok {
		return
	}

	pattern, _, err := wsh.svc.Compose(req)
	if err != nil {
		apiErr := toAPIError(err, "pattern", "")
		wsh.sendError(ws, msg.ID, apiErr.Message+": "+apiErr.Details, apiErr.Code)
		return
	}

	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeComplete,
		ID:        msg.ID,
		Payload:   mustJSON(models.NewPatternResponse(pattern)),
		Timestamp: time.Now().UnixMilli(),
	})
}

func (wsh *WebSocketHandler) decodeRequest(ws *websocket.Conn, msg WSMessage) (models.GenerateRequest, bool) {
	var req models.GenerateRequest
	if len(msg.Payload) == 0 {
		return req, true
	}
	if err := json.Unmarshal(msg.Payload, &req); err != nil {
		wsh.sendError(ws, msg.ID, "Invalid generate payload: "+err.Error(), "INVALID_PAYLOAD")
		return req, false
	}
	return req, true
}

func (wsh *WebSocketHandler) sendMessage(ws *websocket.Conn, msg WSMessage) {
	ws.SetWriteDeadline(time.Now().Add(wsh.writeTimeout))
	if err := ws.WriteJSON(msg); err != nil {
		wsh.log.WithError(err).WithField("type", msg.Type).Warn("failed to send message")
	}
}

func (wsh *WebSocketHandler) sendError(ws *websocket.Conn, id, message, code string) {
	wsh.sendMessage(ws, WSMessage{
		Type:      MsgTypeError,
		ID:        id,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSErrorResponse{
			Type:    MsgTypeError,
			Message: message,
			Code:    code,
		}),
	})
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
