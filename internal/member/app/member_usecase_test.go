package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"chat_service/internal/member/domain"
	"chat_service/internal/member/repository"
	"chat_service/pkg/database"
	"chat_service/pkg/encrypt"
	errprocess "chat_service/pkg/err"
	"chat_service/pkg/logger"
	token "chat_service/pkg/token"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockMemberRepo Mock MemberRepo
type MockMemberRepo struct {
	mock.Mock
}

func (m *MockMemberRepo) Create(ctx context.Context, member *domain.Member) error {
	args := m.Called(ctx, member)
	return args.Error(0)
}

func (m *MockMemberRepo) FindByEmail(ctx context.Context, email string) (*domain.Member, error) {
	args := m.Called(ctx, email)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepo) FindByID(ctx context.Context, memberID string) (*domain.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepo) ListExcept(ctx context.Context, memberID string) ([]domain.Member, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMemberRepo) UpdateProfile(ctx context.Context, memberID string, update domain.ProfileUpdate) (*domain.Member, error) {
	args := m.Called(ctx, memberID, update)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Member), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRedisRepo 針對 MemberSession 的 Mock
type MockRedisRepo struct {
	mock.Mock
}

// Set 模擬 Redis Set 操作
func (m *MockRedisRepo) Set(ctx context.Context, key string, value domain.MemberSession, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

// Get 模擬 Redis Get 操作
func (m *MockRedisRepo) Get(ctx context.Context, key string) (domain.MemberSession, error) {
	args := m.Called(ctx, key)
	if args.Get(0) != nil {
		return args.Get(0).(domain.MemberSession), args.Error(1)
	}
	return domain.MemberSession{}, args.Error(1)
}

// Del 模擬 Redis Del 操作
func (m *MockRedisRepo) Del(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

// ExtendTTL 模擬 Redis ExtendTTL 操作
func (m *MockRedisRepo) ExtendTTL(ctx context.Context, key string, ttl time.Duration) error {
	args := m.Called(ctx, key, ttl)
	return args.Error(0)
}

// GetTTL 模擬 Redis GetTTL 操作
func (m *MockRedisRepo) GetTTL(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

// MockAssetStore 模擬圖片上傳
type MockAssetStore struct {
	mock.Mock
}

func (m *MockAssetStore) UploadImage(ctx context.Context, dataURI string) (string, error) {
	args := m.Called(ctx, dataURI)
	return args.String(0), args.Error(1)
}

var _ database.AssetStore = (*MockAssetStore)(nil)

func newTestUseCase(repo *MockMemberRepo, redis *MockRedisRepo, assets *MockAssetStore) MemberUseCase {
	return NewMemberUseCase(repo, time.Hour, "test", redis, assets)
}

func TestMemberUseCase_Signup(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()
	req := domain.SignupRequest{FullName: "Alice", Email: "Alice@Example.com ", Password: "secret123", Bio: "hi"}

	// **情境 1: 註冊成功**
	t.Run("成功註冊", func(t *testing.T) {
		mockRepo, mockRedis := new(MockMemberRepo), new(MockRedisRepo)
		mockRepo.On("FindByEmail", ctx, "alice@example.com").Return(nil, repository.ErrMemberNotFound).Once()
		mockRepo.On("Create", ctx, mock.MatchedBy(func(m *domain.Member) bool {
			return m.Email == "alice@example.com" && m.ID != "" && m.Password != "secret123"
		})).Return(nil).Once()
		mockRedis.On("Set", ctx, mock.AnythingOfType("string"), mock.Anything, time.Hour).Return(nil).Once()

		member, tok, err := newTestUseCase(mockRepo, mockRedis, nil).Signup(ctx, req)

		require.NoError(t, err)
		assert.NotEmpty(t, tok)
		assert.Equal(t, "Alice", member.FullName)
		require.NoError(t, encrypt.CheckPassword(member.Password, "secret123"))

		claims, err := token.ParseJWT(tok)
		require.NoError(t, err)
		assert.Equal(t, member.ID, claims.MemberID)
		mockRepo.AssertExpectations(t)
		mockRedis.AssertExpectations(t)
	})

	// **情境 2: Email 已存在**
	t.Run("Email 已存在", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByEmail", ctx, "alice@example.com").Return(&domain.Member{ID: "AAA"}, nil).Once()

		_, _, err := newTestUseCase(mockRepo, new(MockRedisRepo), nil).Signup(ctx, req)

		assert.Equal(t, errprocess.CodeAlreadyExists, errprocess.CodeOf(err))
		mockRepo.AssertExpectations(t)
	})

	// **情境 3: 欄位缺漏**
	t.Run("欄位缺漏", func(t *testing.T) {
		_, _, err := newTestUseCase(new(MockMemberRepo), new(MockRedisRepo), nil).Signup(ctx, domain.SignupRequest{Email: "a@b.co", Password: "secret123"})
		assert.True(t, errprocess.IsValidation(err))
	})

	t.Run("缺少 bio", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		_, _, err := newTestUseCase(mockRepo, new(MockRedisRepo), nil).Signup(ctx, domain.SignupRequest{FullName: "Alice", Email: "a@b.co", Password: "secret123"})
		assert.True(t, errprocess.IsValidation(err))
		assert.Contains(t, err.Error(), "Bio")
		mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	// **情境 4: 建立用戶失敗**
	t.Run("建立用戶失敗", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByEmail", ctx, "alice@example.com").Return(nil, repository.ErrMemberNotFound).Once()
		mockRepo.On("Create", ctx, mock.Anything).Return(errors.New("db error")).Once()

		_, _, err := newTestUseCase(mockRepo, new(MockRedisRepo), nil).Signup(ctx, req)

		assert.True(t, errprocess.IsUpstream(err))
		mockRepo.AssertExpectations(t)
	})
}

func TestMemberUseCase_Login(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()
	hashedPassword, err := encrypt.HashPassword("secret123")
	require.NoError(t, err)
	existing := &domain.Member{ID: "AAA", Email: "alice@example.com", Password: hashedPassword}

	// **情境 1: 成功登入**
	t.Run("成功登入", func(t *testing.T) {
		mockRepo, mockRedis := new(MockMemberRepo), new(MockRedisRepo)
		mockRepo.On("FindByEmail", ctx, "alice@example.com").Return(existing, nil).Once()
		mockRedis.On("Set", ctx, "session:AAA", mock.MatchedBy(func(s domain.MemberSession) bool {
			return s.MemberID == "AAA" && s.Token != ""
		}), time.Hour).Return(nil).Once()

		member, tok, err := newTestUseCase(mockRepo, mockRedis, nil).Login(ctx, domain.LoginRequest{Email: "alice@example.com", Password: "secret123"})

		require.NoError(t, err)
		assert.NotEmpty(t, tok)
		assert.Equal(t, "AAA", member.ID)
		mockRedis.AssertExpectations(t)
	})

	// **情境 2: 使用者不存在**
	t.Run("使用者不存在", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("FindByEmail", ctx, "nobody@example.com").Return(nil, repository.ErrMemberNotFound).Once()

		_, tok, err := newTestUseCase(mockRepo, new(MockRedisRepo), nil).Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "secret123"})

		assert.Equal(t, errprocess.CodeUnauthenticated, errprocess.CodeOf(err))
		assert.Empty(t, tok)
	})

	// **情境 3: 密碼錯誤**
	t.Run("密碼錯誤", func(t *testing.T) {
		mockRepo, mockRedis := new(MockMemberRepo), new(MockRedisRepo)
		mockRepo.On("FindByEmail", ctx, "alice@example.com").Return(existing, nil).Once()

		_, tok, err := newTestUseCase(mockRepo, mockRedis, nil).Login(ctx, domain.LoginRequest{Email: "alice@example.com", Password: "wrong_password"})

		assert.Equal(t, errprocess.CodeUnauthenticated, errprocess.CodeOf(err))
		assert.Empty(t, tok)
		mockRedis.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	// **情境 4: Redis 存 session 失敗**
	t.Run("Redis 存 session 失敗", func(t *testing.T) {
		mockRepo, mockRedis := new(MockMemberRepo), new(MockRedisRepo)
		mockRepo.On("FindByEmail", ctx, "alice@example.com").Return(existing, nil).Once()
		mockRedis.On("Set", ctx, "session:AAA", mock.Anything, time.Hour).Return(errors.New("redis down")).Once()

		_, tok, err := newTestUseCase(mockRepo, mockRedis, nil).Login(ctx, domain.LoginRequest{Email: "alice@example.com", Password: "secret123"})

		assert.True(t, errprocess.IsUpstream(err))
		assert.Empty(t, tok)
	})
}

func TestMemberUseCase_FindMember(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	mockRepo := new(MockMemberRepo)
	mockRepo.On("FindByID", ctx, "AAA").Return(&domain.Member{ID: "AAA"}, nil).Once()
	mockRepo.On("FindByID", ctx, "BBB").Return(nil, repository.ErrMemberNotFound).Once()
	uc := newTestUseCase(mockRepo, new(MockRedisRepo), nil)

	member, err := uc.FindMember(ctx, "AAA")
	require.NoError(t, err)
	assert.Equal(t, "AAA", member.ID)

	_, err = uc.FindMember(ctx, "BBB")
	assert.True(t, errprocess.IsNotFound(err))
}

func TestMemberUseCase_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	t.Run("只更新 bio", func(t *testing.T) {
		mockRepo, assets := new(MockMemberRepo), new(MockAssetStore)
		bio := "new bio"
		mockRepo.On("UpdateProfile", ctx, "AAA", domain.ProfileUpdate{Bio: &bio}).Return(&domain.Member{ID: "AAA", Bio: bio}, nil).Once()

		member, err := newTestUseCase(mockRepo, new(MockRedisRepo), assets).UpdateProfile(ctx, "AAA", domain.UpdateProfileRequest{Bio: &bio})

		require.NoError(t, err)
		assert.Equal(t, bio, member.Bio)
		assets.AssertNotCalled(t, "UploadImage", mock.Anything, mock.Anything)
	})

	t.Run("上傳頭像", func(t *testing.T) {
		mockRepo, assets := new(MockMemberRepo), new(MockAssetStore)
		assets.On("UploadImage", ctx, "data:image/png;base64,aGk=").Return("http://cdn/avatar.png", nil).Once()
		mockRepo.On("UpdateProfile", ctx, "AAA", mock.MatchedBy(func(u domain.ProfileUpdate) bool {
			return u.ProfilePic != nil && *u.ProfilePic == "http://cdn/avatar.png" && *u.FullName == "Al" && u.Bio == nil
		})).Return(&domain.Member{ID: "AAA", ProfilePic: "http://cdn/avatar.png"}, nil).Once()

		member, err := newTestUseCase(mockRepo, new(MockRedisRepo), assets).UpdateProfile(ctx, "AAA", domain.UpdateProfileRequest{FullName: " Al ", ProfilePic: "data:image/png;base64,aGk="})

		require.NoError(t, err)
		assert.Equal(t, "http://cdn/avatar.png", member.ProfilePic)
		assets.AssertExpectations(t)
	})

	t.Run("沒帶 bio 不覆蓋", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		mockRepo.On("UpdateProfile", ctx, "AAA", mock.Anything).Return(&domain.Member{ID: "AAA", FullName: "Al", Bio: "keep"}, nil).Once()

		_, err := newTestUseCase(mockRepo, new(MockRedisRepo), nil).UpdateProfile(ctx, "AAA", domain.UpdateProfileRequest{FullName: "Al"})

		require.NoError(t, err)
		update := mockRepo.Calls[0].Arguments.Get(2).(domain.ProfileUpdate)
		assert.Nil(t, update.Bio)
		require.NotNil(t, update.FullName)
		assert.Equal(t, "Al", *update.FullName)
	})

	t.Run("bio 空字串清空", func(t *testing.T) {
		mockRepo := new(MockMemberRepo)
		empty := ""
		mockRepo.On("UpdateProfile", ctx, "AAA", domain.ProfileUpdate{Bio: &empty}).Return(&domain.Member{ID: "AAA"}, nil).Once()

		_, err := newTestUseCase(mockRepo, new(MockRedisRepo), nil).UpdateProfile(ctx, "AAA", domain.UpdateProfileRequest{Bio: &empty})

		require.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("上傳失敗不寫入", func(t *testing.T) {
		mockRepo, assets := new(MockMemberRepo), new(MockAssetStore)
		assets.On("UploadImage", ctx, mock.Anything).Return("", errprocess.Upstream("upload image", errors.New("minio down"))).Once()

		_, err := newTestUseCase(mockRepo, new(MockRedisRepo), assets).UpdateProfile(ctx, "AAA", domain.UpdateProfileRequest{ProfilePic: "data:image/png;base64,aGk="})

		assert.True(t, errprocess.IsUpstream(err))
		mockRepo.AssertNotCalled(t, "UpdateProfile", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestMemberUseCase_Session(t *testing.T) {
	ctx := context.Background()
	logger.SetNewNop()

	t.Run("session 有效", func(t *testing.T) {
		mockRedis := new(MockRedisRepo)
		mockRedis.On("Get", ctx, "session:AAA").Return(domain.MemberSession{MemberID: "AAA", ExpiredAt: time.Now().Add(time.Hour)}, nil).Once()
		assert.NoError(t, newTestUseCase(new(MockMemberRepo), mockRedis, nil).CheckSession(ctx, "AAA"))
	})

	t.Run("session 不存在", func(t *testing.T) {
		mockRedis := new(MockRedisRepo)
		mockRedis.On("Get", ctx, "session:AAA").Return(domain.MemberSession{}, database.ErrRedisNil).Once()
		err := newTestUseCase(new(MockMemberRepo), mockRedis, nil).CheckSession(ctx, "AAA")
		assert.Equal(t, errprocess.CodeUnauthenticated, errprocess.CodeOf(err))
	})

	t.Run("session 過期", func(t *testing.T) {
		mockRedis := new(MockRedisRepo)
		mockRedis.On("Get", ctx, "session:AAA").Return(domain.MemberSession{ExpiredAt: time.Now().Add(-time.Minute)}, nil).Once()
		err := newTestUseCase(new(MockMemberRepo), mockRedis, nil).CheckSession(ctx, "AAA")
		assert.Equal(t, errprocess.CodeUnauthenticated, errprocess.CodeOf(err))
	})

	t.Run("登出", func(t *testing.T) {
		mockRedis := new(MockRedisRepo)
		mockRedis.On("Del", ctx, "session:AAA").Return(nil).Once()
		assert.NoError(t, newTestUseCase(new(MockMemberRepo), mockRedis, nil).Logout(ctx, "AAA"))
		mockRedis.AssertExpectations(t)
	})

	t.Run("重連延長", func(t *testing.T) {
		mockRedis := new(MockRedisRepo)
		mockRedis.On("GetTTL", ctx, "session:AAA").Return(120, nil).Once()
		mockRedis.On("ExtendTTL", ctx, "session:AAA", time.Hour).Return(nil).Once()
		assert.NoError(t, newTestUseCase(new(MockMemberRepo), mockRedis, nil).ReconnectSession(ctx, "AAA"))
		mockRedis.AssertExpectations(t)
	})

	t.Run("session 已過期不延長", func(t *testing.T) {
		mockRedis := new(MockRedisRepo)
		mockRedis.On("GetTTL", ctx, "session:AAA").Return(0, nil).Once()
		err := newTestUseCase(new(MockMemberRepo), mockRedis, nil).ReconnectSession(ctx, "AAA")
		assert.Equal(t, errprocess.CodeUnauthenticated, errprocess.CodeOf(err))
		mockRedis.AssertNotCalled(t, "ExtendTTL", mock.Anything, mock.Anything, mock.Anything)
	})
}
