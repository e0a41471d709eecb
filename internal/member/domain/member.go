package domain

import (
	"time"

	"chat_service/pkg/encrypt"
)

// MemberCollection mongo collection name
const MemberCollection = "users"

// Member 用來表示使用者, 密碼不會輸出到 json
type Member struct {
	ID         string    `bson:"_id" json:"_id"`
	Email      string    `bson:"email" json:"email"`
	FullName   string    `bson:"full_name" json:"fullName"`
	Password   string    `bson:"password" json:"-"`
	Bio        string    `bson:"bio" json:"bio"`
	ProfilePic string    `bson:"profile_pic" json:"profilePic"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updatedAt"`
}

// MemberSession 用來表示使用者的 Session
type MemberSession struct {
	Token        string    `json:"Token"`
	MemberID     string    `json:"MemberID"`
	CreatedAt    time.Time `json:"CreatedAt"`
	LastActivity time.Time `json:"LastActivity"`
	ExpiredAt    time.Time `json:"ExpiredAt"`
}

// IsPasswordMatch 密碼驗證
func (m *Member) IsPasswordMatch(inputPwd string) error {
	return encrypt.CheckPassword(m.Password, inputPwd)
}

// IsExpired 檢查 Session 是否已過期
func (s *MemberSession) IsExpired() bool {
	return time.Now().After(s.ExpiredAt)
}

// SignupRequest signup body
type SignupRequest struct {
	FullName string `json:"fullName" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Bio      string `json:"bio" validate:"required,max=280"`
}

// LoginRequest login body
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest update-profile body, ProfilePic 為 data uri, 空字串表示不更新頭像
// Bio 沒帶就不改, 帶空字串則清空
type UpdateProfileRequest struct {
	FullName   string  `json:"fullName" validate:"omitempty,max=64"`
	Bio        *string `json:"bio,omitempty" validate:"omitempty,max=280"`
	ProfilePic string  `json:"profilePic"`
}

// ProfileUpdate fields written by UpdateProfile, nil 表示不改
type ProfileUpdate struct {
	FullName   *string
	Bio        *string
	ProfilePic *string
}
