package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"chat_service/internal/member/domain"
	"chat_service/internal/member/repository"
	"chat_service/pkg"
	"chat_service/pkg/database"
	"chat_service/pkg/encrypt"
	errprocess "chat_service/pkg/err"
	"chat_service/pkg/logger"
	token "chat_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MemberUseCase 這裡封裝了對外提供的應用服務
type MemberUseCase interface {
	Signup(ctx context.Context, req domain.SignupRequest) (*domain.Member, string, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.Member, string, error)
	FindMember(ctx context.Context, memberID string) (*domain.Member, error)
	UpdateProfile(ctx context.Context, memberID string, req domain.UpdateProfileRequest) (*domain.Member, error)
	Logout(ctx context.Context, memberID string) error
	CheckSession(ctx context.Context, memberID string) error
	ReconnectSession(ctx context.Context, memberID string) error
}

type memberUseCase struct {
	memberRepo repository.MemberRepository
	sessionTTL time.Duration
	issuer     string
	redisRepo  database.RedisRepository[domain.MemberSession]
	assets     database.AssetStore
}

// NewMemberUseCase 建立一個新的 MemberUseCase
func NewMemberUseCase(memberRepo repository.MemberRepository,
	sessionTTL time.Duration,
	issuer string,
	redisRepo database.RedisRepository[domain.MemberSession],
	assets database.AssetStore,
) MemberUseCase {
	return &memberUseCase{
		memberRepo: memberRepo,
		sessionTTL: sessionTTL,
		issuer:     issuer,
		redisRepo:  redisRepo,
		assets:     assets,
	}
}

func sessionKey(memberID string) string {
	return "session:" + memberID
}

// Signup 建立帳號並直接登入
func (m *memberUseCase) Signup(ctx context.Context, req domain.SignupRequest) (*domain.Member, string, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := pkg.ValidateStruct(req); err != nil {
		return nil, "", err
	}

	// 檢查 email 是否已存在
	if _, err := m.memberRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, "", errprocess.AlreadyExists("user already exists")
	} else if !errors.Is(err, repository.ErrMemberNotFound) {
		return nil, "", errprocess.Upstream("find member", err)
	}

	pw, err := encrypt.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, encrypt.ErrWeakPassword) {
			return nil, "", errprocess.Validation(err.Error())
		}
		return nil, "", errprocess.Wrap(errprocess.CodeInternal, "hash password", err)
	}

	now := time.Now().UTC()
	member := &domain.Member{
		ID:        uuid.New().String(),
		Email:     req.Email,
		FullName:  strings.TrimSpace(req.FullName),
		Password:  pw,
		Bio:       req.Bio,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.memberRepo.Create(ctx, member); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, "", errprocess.AlreadyExists("user already exists")
		}
		return nil, "", errprocess.Upstream("create member", err)
	}
	logger.Log.Info("member signup", zap.String("memberID", member.ID))

	t, err := m.startSession(ctx, member.ID)
	if err != nil {
		return nil, "", err
	}
	return member, t, nil
}

// Login email + password
func (m *memberUseCase) Login(ctx context.Context, req domain.LoginRequest) (*domain.Member, string, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := pkg.ValidateStruct(req); err != nil {
		return nil, "", err
	}

	member, err := m.memberRepo.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrMemberNotFound) {
		return nil, "", errprocess.Unauthorized("email or password is wrong")
	}
	if err != nil {
		return nil, "", errprocess.Upstream("find member", err)
	}

	if err = member.IsPasswordMatch(req.Password); err != nil {
		logger.Log.Debug("password can't match", zap.String("memberID", member.ID))
		return nil, "", errprocess.Unauthorized("email or password is wrong")
	}

	t, err := m.startSession(ctx, member.ID)
	if err != nil {
		return nil, "", err
	}
	return member, t, nil
}

func (m *memberUseCase) startSession(ctx context.Context, memberID string) (string, error) {
	t, err := token.GenerateJWT(memberID, string(token.RoleMember), m.issuer)
	if err != nil {
		return "", errprocess.Wrap(errprocess.CodeInternal, "generate token", err)
	}

	now := time.Now()
	session := domain.MemberSession{
		Token:        t,
		MemberID:     memberID,
		CreatedAt:    now,
		LastActivity: now,
		ExpiredAt:    now.Add(m.sessionTTL),
	}
	if err := m.redisRepo.Set(ctx, sessionKey(memberID), session, m.sessionTTL); err != nil {
		return "", errprocess.Upstream("store session", err)
	}
	return t, nil
}

// FindMember 用 id 找使用者
func (m *memberUseCase) FindMember(ctx context.Context, memberID string) (*domain.Member, error) {
	member, err := m.memberRepo.FindByID(ctx, memberID)
	if errors.Is(err, repository.ErrMemberNotFound) {
		return nil, errprocess.NotFound("user not found")
	}
	if err != nil {
		return nil, errprocess.Upstream("find member", err)
	}
	return member, nil
}

// UpdateProfile bio / fullName, 有 profilePic 時先上傳
func (m *memberUseCase) UpdateProfile(ctx context.Context, memberID string, req domain.UpdateProfileRequest) (*domain.Member, error) {
	if err := pkg.ValidateStruct(req); err != nil {
		return nil, err
	}

	update := domain.ProfileUpdate{Bio: req.Bio}
	if name := strings.TrimSpace(req.FullName); name != "" {
		update.FullName = &name
	}
	if req.ProfilePic != "" {
		url, err := m.assets.UploadImage(ctx, req.ProfilePic)
		if err != nil {
			return nil, err
		}
		update.ProfilePic = &url
	}

	member, err := m.memberRepo.UpdateProfile(ctx, memberID, update)
	if errors.Is(err, repository.ErrMemberNotFound) {
		return nil, errprocess.NotFound("user not found")
	}
	if err != nil {
		return nil, errprocess.Upstream("update profile", err)
	}
	return member, nil
}

// Logout 刪除 session, token 之後即失效
func (m *memberUseCase) Logout(ctx context.Context, memberID string) error {
	if err := m.redisRepo.Del(ctx, sessionKey(memberID)); err != nil {
		return errprocess.Upstream("delete session", err)
	}
	logger.Log.Info("member logout", zap.String("memberID", memberID))
	return nil
}

// CheckSession session 仍存在且未過期
func (m *memberUseCase) CheckSession(ctx context.Context, memberID string) error {
	session, err := m.redisRepo.Get(ctx, sessionKey(memberID))
	if errors.Is(err, database.ErrRedisNil) {
		return errprocess.Unauthorized("session not found")
	}
	if err != nil {
		return errprocess.Upstream("get session", err)
	}
	if session.IsExpired() {
		return errprocess.Unauthorized("session expired")
	}
	return nil
}

// ReconnectSession websocket 重連時延長 session, session 已不存在時不重建
func (m *memberUseCase) ReconnectSession(ctx context.Context, memberID string) error {
	ttl, err := m.redisRepo.GetTTL(ctx, sessionKey(memberID))
	if err != nil {
		return errprocess.Upstream("get session ttl", err)
	}
	if ttl <= 0 {
		return errprocess.Unauthorized("session not found")
	}
	if err := m.redisRepo.ExtendTTL(ctx, sessionKey(memberID), m.sessionTTL); err != nil {
		return errprocess.Upstream("extend session", err)
	}
	return nil
}
