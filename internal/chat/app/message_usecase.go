package app

import (
	"context"
	"errors"
	"time"

	"chat_service/internal/chat/domain"
	"chat_service/internal/chat/presence"
	"chat_service/internal/chat/repository"
	memberdomain "chat_service/internal/member/domain"
	memberrepo "chat_service/internal/member/repository"
	"chat_service/pkg/database"
	errprocess "chat_service/pkg/err"
	"chat_service/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MemberDirectory 聊天需要的使用者查詢
type MemberDirectory interface {
	FindByID(ctx context.Context, memberID string) (*memberdomain.Member, error)
	ListExcept(ctx context.Context, memberID string) ([]memberdomain.Member, error)
}

// MessageUseCase 負責訊息寫入、即時推播與已讀
type MessageUseCase struct {
	msgRepo   repository.MessageRepository
	members   MemberDirectory
	assets    database.AssetStore
	registry  *presence.Registry
	publisher repository.EventPublisher
	now       func() time.Time
}

// NewMessageUseCase init message use case, publisher 可為 nil
func NewMessageUseCase(
	msgRepo repository.MessageRepository,
	members MemberDirectory,
	assets database.AssetStore,
	registry *presence.Registry,
	publisher repository.EventPublisher,
) *MessageUseCase {
	if publisher == nil {
		publisher = repository.NopEventPublisher{}
	}
	return &MessageUseCase{
		msgRepo:   msgRepo,
		members:   members,
		assets:    assets,
		registry:  registry,
		publisher: publisher,
		now:       time.Now,
	}
}

// SendMessage 寫入訊息, 收件者在線時推播 newMessage
func (uc *MessageUseCase) SendMessage(ctx context.Context, senderID, receiverID string, content domain.MessageContent) (*domain.Message, error) {
	// 進入時就決定 id 與時間, 同一對話的寫入順序與呼叫順序一致
	createdAt := uc.now().UTC().Truncate(time.Millisecond)
	msgID := primitive.NewObjectIDFromTimestamp(createdAt).Hex()

	if err := content.Validate(); err != nil {
		return nil, err
	}
	if senderID == receiverID {
		return nil, errprocess.Validation("cannot send a message to yourself")
	}
	if _, err := uc.members.FindByID(ctx, receiverID); err != nil {
		if errors.Is(err, memberrepo.ErrMemberNotFound) {
			return nil, errprocess.NotFound("receiver not found")
		}
		return nil, errprocess.Upstream("find receiver", err)
	}

	msg := &domain.Message{
		ID:         msgID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       content.Text,
		Seen:       false,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}

	if content.Image != "" {
		url, err := uc.assets.UploadImage(ctx, content.Image)
		if err != nil {
			if errprocess.IsValidation(err) {
				return nil, err
			}
			return nil, errprocess.Upstream("upload image", err)
		}
		msg.Image = url
	}

	if err := uc.msgRepo.Insert(ctx, msg); err != nil {
		return nil, errprocess.Upstream("persist message", err)
	}

	// 推播失敗只記錄, 訊息已寫入
	if conn, ok := uc.registry.Lookup(receiverID); ok {
		if err := conn.Push(domain.EventNewMessage, *msg); err != nil {
			logger.Log.Warn("push newMessage failed",
				zap.String("messageID", msg.ID),
				zap.String("receiverID", receiverID),
				zap.Error(err))
		}
	}

	uc.publish(ctx, domain.MessageEvent{
		Type:       domain.EventMessageSent,
		MessageID:  msg.ID,
		SenderID:   senderID,
		ReceiverID: receiverID,
		HasImage:   msg.Image != "",
		OccurredAt: createdAt,
	})

	logger.Log.Debug("message sent", zap.String("messageID", msg.ID), zap.String("senderID", senderID), zap.String("receiverID", receiverID))
	return msg, nil
}

// GetMessages 取得兩人對話, 之後把對方寄來的訊息全部標為已讀
// 回傳內容是標記前讀到的狀態
func (uc *MessageUseCase) GetMessages(ctx context.Context, viewerID, peerID string) ([]domain.Message, error) {
	msgs, err := uc.msgRepo.FindConversation(ctx, viewerID, peerID)
	if err != nil {
		return nil, errprocess.Upstream("load conversation", err)
	}

	n, err := uc.msgRepo.MarkConversationSeen(ctx, peerID, viewerID)
	if err != nil {
		return nil, errprocess.Upstream("mark conversation seen", err)
	}

	if n > 0 {
		uc.publish(ctx, domain.MessageEvent{
			Type:       domain.EventConversationSeen,
			SenderID:   peerID,
			ReceiverID: viewerID,
			Count:      n,
			OccurredAt: uc.now().UTC(),
		})
	}
	return msgs, nil
}

// MarkAsSeen 單筆已讀, 重複呼叫不報錯
func (uc *MessageUseCase) MarkAsSeen(ctx context.Context, messageID string) error {
	if _, err := primitive.ObjectIDFromHex(messageID); err != nil {
		return errprocess.NotFound("message not found")
	}

	found, err := uc.msgRepo.MarkSeen(ctx, messageID)
	if err != nil {
		return errprocess.Upstream("mark message seen", err)
	}
	if !found {
		return errprocess.NotFound("message not found")
	}

	uc.publish(ctx, domain.MessageEvent{
		Type:       domain.EventMessageSeen,
		MessageID:  messageID,
		OccurredAt: uc.now().UTC(),
	})
	return nil
}

// GetUsersForSidebar 其他所有使用者, 加上每位對我未讀的數量 (只含非零)
func (uc *MessageUseCase) GetUsersForSidebar(ctx context.Context, userID string) ([]memberdomain.Member, map[string]int, error) {
	users, err := uc.members.ListExcept(ctx, userID)
	if err != nil {
		return nil, nil, errprocess.Upstream("list users", err)
	}

	counts, err := uc.msgRepo.CountUnseenBySender(ctx, userID)
	if err != nil {
		return nil, nil, errprocess.Upstream("count unseen messages", err)
	}

	// 只留側欄上看得到的使用者
	known := make(map[string]struct{}, len(users))
	for _, u := range users {
		known[u.ID] = struct{}{}
	}
	unseen := make(map[string]int, len(counts))
	for senderID, n := range counts {
		if _, ok := known[senderID]; ok && n > 0 {
			unseen[senderID] = n
		}
	}
	return users, unseen, nil
}

// OnlineUsers 目前在線名單
func (uc *MessageUseCase) OnlineUsers() []string {
	return uc.registry.OnlineUsers()
}

func (uc *MessageUseCase) publish(ctx context.Context, event domain.MessageEvent) {
	if err := uc.publisher.Publish(ctx, event); err != nil {
		logger.Log.Warn("publish delivery event failed", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
