package repository

import (
	"context"
	"fmt"
	"time"

	"chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository definition one-to-one message store
type MessageRepository interface {
	// Insert 寫入一筆訊息, ID / CreatedAt 由呼叫端給定
	Insert(ctx context.Context, msg *domain.Message) error
	// FindConversation 兩人之間所有訊息, 依 (created_at, _id) 升冪
	FindConversation(ctx context.Context, userA, userB string) ([]domain.Message, error)
	// MarkConversationSeen senderID -> receiverID 的未讀訊息全部改為已讀
	MarkConversationSeen(ctx context.Context, senderID, receiverID string) (int64, error)
	// MarkSeen 單筆已讀, found=false 表示訊息不存在
	MarkSeen(ctx context.Context, messageID string) (found bool, err error)
	// CountUnseenBySender receiverID 每位寄件者的未讀數, 只回傳非零
	CountUnseenBySender(ctx context.Context, receiverID string) (map[string]int, error)
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection(domain.MessageCollection),
	}
}

// EnsureMessageIndexes conversation / unseen 查詢用索引
func EnsureMessageIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(domain.MessageCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "receiver_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "seen", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create message indexes: %w", err)
	}
	return nil
}

func (r *messageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	if _, err := r.coll.InsertOne(ctx, msg); err != nil {
		return fmt.Errorf("insert message %s: %w", msg.ID, err)
	}
	return nil
}

func (r *messageRepository) FindConversation(ctx context.Context, userA, userB string) ([]domain.Message, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"sender_id": userA, "receiver_id": userB},
		bson.M{"sender_id": userB, "receiver_id": userA},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find conversation: %w", err)
	}

	messages := []domain.Message{}
	if err := cur.All(ctx, &messages); err != nil {
		return nil, fmt.Errorf("cursor All error: %w", err)
	}
	return messages, nil
}

func (r *messageRepository) MarkConversationSeen(ctx context.Context, senderID, receiverID string) (int64, error) {
	filter := bson.M{"sender_id": senderID, "receiver_id": receiverID, "seen": false}
	update := bson.M{"$set": bson.M{"seen": true, "updated_at": time.Now().UTC()}}

	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("mark conversation seen: %w", err)
	}
	return res.ModifiedCount, nil
}

func (r *messageRepository) MarkSeen(ctx context.Context, messageID string) (bool, error) {
	// 已讀再設一次已讀不更新 updated_at
	filter := bson.M{"_id": messageID}
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "updated_at", Value: bson.D{{Key: "$cond", Value: bson.A{"$seen", "$updated_at", "$$NOW"}}}},
			{Key: "seen", Value: true},
		}}},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("mark seen %s: %w", messageID, err)
	}
	return res.MatchedCount > 0, nil
}

func (r *messageRepository) CountUnseenBySender(ctx context.Context, receiverID string) (map[string]int, error) {
	pipeline := mongo.Pipeline{
		// 1. 寄給 receiverID 且未讀
		bson.D{{Key: "$match", Value: bson.D{
			{Key: "receiver_id", Value: receiverID},
			{Key: "seen", Value: false},
		}}},
		// 2. 依寄件者分組計數
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$sender_id"},
			{Key: "unseen_count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate error: %w", err)
	}

	type result struct {
		SenderID    string `bson:"_id"`
		UnseenCount int    `bson:"unseen_count"`
	}

	var results []result
	if err := cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("cursor All error: %w", err)
	}

	counts := make(map[string]int, len(results))
	for _, row := range results {
		if row.UnseenCount > 0 {
			counts[row.SenderID] = row.UnseenCount
		}
	}
	return counts, nil
}
