package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/bizmatters/graphide-orchestrator/internal/models"
	"github.com/bizmatters/graphide-orchestrator/internal/orchestration"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	requestReadTimeout = 30 * time.Second
	writeTimeout       = 10 * time.Second
)

// ChatStream serves chat stages over a websocket. The client sends one
// ChatRequest frame; each role output is pushed as soon as it and every
// output before it are ready, followed by an end event.
type ChatStream struct {
	orchestrator *orchestration.Orchestrator
	logger       *zap.Logger
	tracer       trace.Tracer
	upgrader     websocket.Upgrader
}

// NewChatStream creates the /ws/chat handler
func NewChatStream(orchestrator *orchestration.Orchestrator, logger *zap.Logger) *ChatStream {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatStream{
		orchestrator: orchestrator,
		logger:       logger,
		tracer:       otel.Tracer("chat-stream"),
		upgrader: websocket.Upgrader{
			// Same permissive policy as the HTTP CORS middleware
			CheckOrigin:      func(r *http.Request) bool { return true },
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

// Serve handles WebSocket /ws/chat
// @Summary Stream a chat stage
// @Description WebSocket endpoint. Send one ChatRequest frame; receive agent_output events in role order, then end.
// @Tags chat
// @Success 101 "Switching Protocols"
// @Router /ws/chat [get]
func (s *ChatStream) Serve(c *gin.Context) {
	ctx, span := s.tracer.Start(c.Request.Context(), "chat_stream.serve")
	defer span.End()

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("failed to upgrade connection", zap.Error(err))
		return
	}
	defer conn.Close()

	var req models.ChatRequest
	conn.SetReadDeadline(time.Now().Add(requestReadTimeout))
	if err := conn.ReadJSON(&req); err != nil {
		span.RecordError(err)
		s.logger.Warn("invalid chat request frame", zap.Error(err))
		s.writeEvent(conn, models.StreamEvent{
			EventType: models.EventTypeError,
			Data: map[string]interface{}{
				"error": "Invalid request: " + err.Error(),
				"code":  models.ErrCodeInvalidRequest,
			},
		})
		return
	}
	conn.SetReadDeadline(time.Time{})
	span.SetAttributes(attribute.String("stage", req.Stage))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The client sends nothing after the request; a read error means it left
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	count := 0
	err = s.orchestrator.RouteStream(ctx, req, func(i int, out models.AgentOutput) error {
		count++
		return s.writeEvent(conn, models.StreamEvent{
			EventType: models.EventTypeAgentOutput,
			Data: map[string]interface{}{
				"index":          i,
				"agentName":      out.AgentName,
				"markdownOutput": out.MarkdownOutput,
				"metadata":       out.Metadata,
			},
		})
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Info("chat stream ended early", zap.String("stage", req.Stage), zap.Error(err))
		return
	}

	if err := s.writeEvent(conn, models.StreamEvent{
		EventType: models.EventTypeEnd,
		Data: map[string]interface{}{
			"status": models.StatusSuccess,
			"count":  count,
		},
	}); err != nil {
		return
	}

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

func (s *ChatStream) writeEvent(conn *websocket.Conn, event models.StreamEvent) error {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(event); err != nil {
		s.logger.Warn("failed to write stream event", zap.String("event_type", event.EventType), zap.Error(err))
		return err
	}
	return nil
}
