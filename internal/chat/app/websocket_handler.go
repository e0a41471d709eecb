package app

import (
	"context"
	"sync"
	"time"

	"chat_service/internal/chat/domain"
	"chat_service/internal/chat/presence"
	errprocess "chat_service/pkg/err"
	"chat_service/pkg/logger"
	"chat_service/pkg/middlewares"

	"github.com/goccy/go-json"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionKeeper websocket 連線時延長登入 session
type SessionKeeper interface {
	ReconnectSession(ctx context.Context, memberID string) error
}

// ChatWebsocketHandler 即時推播與線上名單
type ChatWebsocketHandler struct {
	messageUC    *MessageUseCase
	registry     *presence.Registry
	sessions     SessionKeeper
	pingInterval time.Duration
}

// NewChatWebsocketHandler create ChatWebsocketHandler, sessions 可為 nil
func NewChatWebsocketHandler(
	messageUC *MessageUseCase,
	registry *presence.Registry,
	sessions SessionKeeper,
	pingInterval time.Duration,
) *ChatWebsocketHandler {
	if pingInterval <= 0 {
		pingInterval = 10 * time.Minute
	}
	return &ChatWebsocketHandler{
		messageUC:    messageUC,
		registry:     registry,
		sessions:     sessions,
		pingInterval: pingInterval,
	}
}

// wsConnection presence.Connection over a fiber websocket
// fiber websocket 不支援併發寫入, 所有寫入都要拿 writeMu
type wsConnection struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newWSConnection(conn *websocket.Conn) *wsConnection {
	return &wsConnection{id: uuid.New().String(), conn: conn}
}

func (w *wsConnection) ID() string { return w.id }

func (w *wsConnection) Push(event domain.Event, payload interface{}) error {
	return w.writeJSON(domain.WSEvent{Event: event, Payload: payload})
}

func (w *wsConnection) Close() error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	_ = w.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutdown"),
		time.Now().Add(time.Second))
	return w.conn.Close()
}

func (w *wsConnection) writeJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConnection) ping() error {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	return w.conn.WriteControl(websocket.PingMessage, []byte("ping message"), time.Now().Add(5*time.Second))
}

// HandleConnection 是 WebSocket 連線的進入點
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	memberID, ok := conn.Locals(middlewares.TokenMemberID).(string)
	if !ok || memberID == "" {
		logger.Log.Warn("websocket without member id", zap.String("remote", conn.RemoteAddr().String()))
		_ = conn.Close()
		return
	}

	wc := newWSConnection(conn)
	logger.Log.Info("websocket open", zap.String("userID", memberID), zap.String("connID", wc.ID()))

	if err := h.registry.Register(memberID, wc); err != nil {
		logger.Log.Warn("websocket register rejected", zap.String("userID", memberID), zap.Error(err))
		_ = conn.Close()
		return
	}

	if h.sessions != nil {
		if err := h.sessions.ReconnectSession(ctx, memberID); err != nil {
			logger.Log.Warn("extend session failed", zap.String("userID", memberID), zap.Error(err))
		}
	}

	ticker := time.NewTicker(h.pingInterval)
	ctxClose, cancel := context.WithCancel(context.Background())

	defer func() {
		ticker.Stop()
		cancel()
		// 只有仍是目前連線時才會移除
		h.registry.Unregister(memberID, wc)
		logger.Log.Info("websocket close", zap.String("userID", memberID), zap.String("connID", wc.ID()))
		_ = conn.Close()
	}()

	//server發出ping之後client連線正常會回pong
	//fiber會自動處理回傳pong,故需要SetPongHandler另外接出
	conn.SetPongHandler(func(appData string) error {
		logger.Log.Debug("Received PONG", zap.String("userID", memberID))
		return nil
	})

	// 定期發送 Ping
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := wc.ping(); err != nil {
					logger.Log.Warn("Ping error", zap.String("userID", memberID), zap.Error(err))
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			// 檢查是否為 Close 正常結束
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Debug("Connection closed", zap.String("userID", memberID))
			} else {
				//直接斷線 1006
				logger.Log.Warn("websocket read error", zap.String("userID", memberID), zap.Error(err))
			}
			return
		}
		if mt != websocket.TextMessage {
			h.sendError(wc, "unsupported message type")
			continue
		}
		h.textMessageAction(ctx, wc, memberID, message)
	}
}

func (h *ChatWebsocketHandler) textMessageAction(ctx context.Context, wc *wsConnection, memberID string, msg []byte) {
	var req domain.WSRequest
	if err := json.Unmarshal(msg, &req); err != nil {
		h.sendError(wc, "invalid json")
		return
	}

	resp := domain.WSResponse{Action: req.Action, Success: false, Payload: map[string]interface{}{}}
	switch domain.Action(req.Action) {
	//讀取訊息 將單筆訊息改為已讀
	case domain.MarkSeen:
		if err := h.messageUC.MarkAsSeen(ctx, req.MessageID); err != nil {
			resp.Error = errprocess.Message(err)
		} else {
			resp.Success = true
			resp.Payload["message_id"] = req.MessageID
		}

	//目前線上名單
	case domain.GetOnlineUsers:
		resp.Success = true
		resp.Payload["online_users"] = h.registry.OnlineUsers()

	default:
		resp.Error = "unknown action"
	}

	if resp.Error != "" {
		logger.Log.Debug("websocket action failed", zap.String("MemberID", memberID), zap.String("Action", req.Action), zap.String("err", resp.Error))
	}
	h.sendResponse(wc, resp)
}

// sendResponse 發送 JSON 給前端
func (h *ChatWebsocketHandler) sendResponse(wc *wsConnection, resp domain.WSResponse) {
	if err := wc.writeJSON(resp); err != nil {
		logger.Log.Warn("write message error", zap.String("connID", wc.ID()), zap.Error(err))
	}
}

func (h *ChatWebsocketHandler) sendError(wc *wsConnection, errorMsg string) {
	h.sendResponse(wc, domain.WSResponse{
		Action:  "error",
		Success: false,
		Error:   errorMsg,
	})
}
