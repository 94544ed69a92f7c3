package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	models "BubbleWatch/internal/domain/models"
	"BubbleWatch/internal/usecase"
	xlogger "BubbleWatch/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsSendBuffer   = 32
)

// RiskStreamHandler pushes scored results to websocket subscribers.
// It implements usecase.ResultSink so the processor can notify it directly.
type RiskStreamHandler struct {
	logger   *xlogger.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*streamClient]struct{}
}

type streamClient struct {
	conn   *websocket.Conn
	ticker string // empty = all tickers
	send   chan []byte
}

func NewRiskStreamHandler(logger *xlogger.Logger) *RiskStreamHandler {
	return &RiskStreamHandler{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*streamClient]struct{}),
	}
}

func (h *RiskStreamHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws/risk", h.Stream)
}

// Stream upgrades the connection and streams results until the client leaves.
func (h *RiskStreamHandler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Error("ws upgrade error", xlogger.Error(err))
		return err
	}

	cl := &streamClient{
		conn:   conn,
		ticker: c.QueryParam("ticker"),
		send:   make(chan []byte, wsSendBuffer),
	}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()

	go h.writeLoop(cl)
	h.readLoop(cl) // blocks until disconnect
	return nil
}

func (h *RiskStreamHandler) writeLoop(cl *streamClient) {
	for b := range cl.send {
		_ = cl.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := cl.conn.WriteMessage(websocket.TextMessage, b); err != nil {
			h.drop(cl)
			return
		}
	}
}

// readLoop discards client frames; its only job is detecting disconnects.
func (h *RiskStreamHandler) readLoop(cl *streamClient) {
	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			h.drop(cl)
			return
		}
	}
}

// Notify broadcasts one scored result to matching subscribers.
// Slow clients are dropped rather than blocking the processor.
func (h *RiskStreamHandler) Notify(res *models.CompositeRiskResult) {
	b, err := json.Marshal(res)
	if err != nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for cl := range h.clients {
		if cl.ticker != "" && cl.ticker != res.Ticker {
			continue
		}
		select {
		case cl.send <- b:
		default:
			go h.drop(cl)
		}
	}
}

func (h *RiskStreamHandler) drop(cl *streamClient) {
	h.mu.Lock()
	if _, ok := h.clients[cl]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, cl)
	h.mu.Unlock()
	close(cl.send)
	_ = cl.conn.Close()
}

// Close disconnects all subscribers.
func (h *RiskStreamHandler) Close() {
	h.mu.Lock()
	clients := make([]*streamClient, 0, len(h.clients))
	for cl := range h.clients {
		clients = append(clients, cl)
	}
	h.mu.Unlock()
	for _, cl := range clients {
		h.drop(cl)
	}
}

var _ usecase.ResultSink = (*RiskStreamHandler)(nil)
