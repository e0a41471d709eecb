package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chat_service/internal/member/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrMemberNotFound no member found with given criteria
	ErrMemberNotFound = errors.New("no member found with given criteria")
	// ErrEmailExists email unique index conflict
	ErrEmailExists = errors.New("email already exists")
)

// MemberRepository definition get Member info
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	FindByEmail(ctx context.Context, email string) (*domain.Member, error)
	FindByID(ctx context.Context, memberID string) (*domain.Member, error)
	ListExcept(ctx context.Context, memberID string) ([]domain.Member, error)
	UpdateProfile(ctx context.Context, memberID string, update domain.ProfileUpdate) (*domain.Member, error)
}

type memberRepository struct {
	coll *mongo.Collection
}

// NewMemberRepository create a MemberRepository
func NewMemberRepository(db *mongo.Database) MemberRepository {
	return &memberRepository{coll: db.Collection(domain.MemberCollection)}
}

// EnsureMemberIndexes email unique
func EnsureMemberIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(domain.MemberCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create member indexes: %w", err)
	}
	return nil
}

func (r *memberRepository) Create(ctx context.Context, member *domain.Member) error {
	_, err := r.coll.InsertOne(ctx, member)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailExists
	}
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (r *memberRepository) FindByEmail(ctx context.Context, email string) (*domain.Member, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *memberRepository) FindByID(ctx context.Context, memberID string) (*domain.Member, error) {
	return r.findOne(ctx, bson.M{"_id": memberID})
}

func (r *memberRepository) findOne(ctx context.Context, filter bson.M) (*domain.Member, error) {
	var member domain.Member
	err := r.coll.FindOne(ctx, filter).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find member: %w", err)
	}
	return &member, nil
}

func (r *memberRepository) ListExcept(ctx context.Context, memberID string) ([]domain.Member, error) {
	opts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.D{{Key: "full_name", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$ne": memberID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}

	members := []domain.Member{}
	if err := cur.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("cursor All error: %w", err)
	}
	return members, nil
}

func (r *memberRepository) UpdateProfile(ctx context.Context, memberID string, update domain.ProfileUpdate) (*domain.Member, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if update.FullName != nil {
		set["full_name"] = *update.FullName
	}
	if update.Bio != nil {
		set["bio"] = *update.Bio
	}
	if update.ProfilePic != nil {
		set["profile_pic"] = *update.ProfilePic
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var member domain.Member
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": memberID}, bson.M{"$set": set}, opts).Decode(&member)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update member profile: %w", err)
	}
	return &member, nil
}
