package handlers

import (
	"context"

	"chat_service/internal/chat/domain"
	memberdomain "chat_service/internal/member/domain"
	errprocess "chat_service/pkg/err"
	"chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// MessageService delivery operations used by the REST surface
type MessageService interface {
	SendMessage(ctx context.Context, senderID, receiverID string, content domain.MessageContent) (*domain.Message, error)
	GetMessages(ctx context.Context, viewerID, peerID string) ([]domain.Message, error)
	MarkAsSeen(ctx context.Context, messageID string) error
	GetUsersForSidebar(ctx context.Context, userID string) ([]memberdomain.Member, map[string]int, error)
}

// MessageHandler 处理訊息相关的 HTTP 请求
type MessageHandler struct {
	service MessageService
}

// NewMessageHandler create MessageHandler
func NewMessageHandler(service MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// GetUsersForSidebar 側欄使用者與未讀數
// @Summary 側欄使用者與未讀數
// @Tags Messages
// @Produce json
// @Param token header string true "jwt"
// @Success 200 {object} map[string]interface{} "users + unseenMessages"
// @Router /api/messages/users [get]
func (h *MessageHandler) GetUsersForSidebar(c *fiber.Ctx) error {
	userID, ok := middlewares.MemberID(c)
	if !ok {
		return RespondError(c, errprocess.Unauthorized("missing member"))
	}

	users, unseen, err := h.service.GetUsersForSidebar(c.UserContext(), userID)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "users": users, "unseenMessages": unseen})
}

// GetMessages 兩人對話, 同時把對方訊息標為已讀
// @Summary 取得對話
// @Tags Messages
// @Produce json
// @Param token header string true "jwt"
// @Param id path string true "peer user id"
// @Success 200 {object} map[string]interface{} "messages"
// @Failure 502 {object} map[string]interface{}
// @Router /api/messages/{id} [get]
func (h *MessageHandler) GetMessages(c *fiber.Ctx) error {
	viewerID, ok := middlewares.MemberID(c)
	if !ok {
		return RespondError(c, errprocess.Unauthorized("missing member"))
	}

	msgs, err := h.service.GetMessages(c.UserContext(), viewerID, c.Params("id"))
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "messages": msgs})
}

// MarkAsSeen 單筆已讀
// @Summary 單筆已讀
// @Tags Messages
// @Produce json
// @Param token header string true "jwt"
// @Param id path string true "message id"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/messages/mark/{id} [put]
func (h *MessageHandler) MarkAsSeen(c *fiber.Ctx) error {
	if err := h.service.MarkAsSeen(c.UserContext(), c.Params("id")); err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

// SendMessage 傳送訊息
// @Summary 傳送訊息
// @Tags Messages
// @Accept json
// @Produce json
// @Param token header string true "jwt"
// @Param id path string true "receiver user id"
// @Param request body domain.MessageContent true "text / image data uri"
// @Success 200 {object} map[string]interface{} "newMessage"
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/messages/send/{id} [post]
func (h *MessageHandler) SendMessage(c *fiber.Ctx) error {
	senderID, ok := middlewares.MemberID(c)
	if !ok {
		return RespondError(c, errprocess.Unauthorized("missing member"))
	}

	var content domain.MessageContent
	if err := c.BodyParser(&content); err != nil {
		return RespondError(c, badBody())
	}

	msg, err := h.service.SendMessage(c.UserContext(), senderID, c.Params("id"), content)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "newMessage": msg})
}
