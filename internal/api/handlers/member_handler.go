package handlers

import (
	"chat_service/internal/member/app"
	"chat_service/internal/member/domain"
	errprocess "chat_service/pkg/err"
	"chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
)

// MemberHandler 处理用户相关的 HTTP 请求
type MemberHandler struct {
	usecase app.MemberUseCase
}

// NewMemberHandler 创建新的 MemberHandler
func NewMemberHandler(usecase app.MemberUseCase) *MemberHandler {
	return &MemberHandler{usecase: usecase}
}

// Signup 注册新用户
// @Summary 注册新用户
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.SignupRequest true "注册请求"
// @Success 200 {object} map[string]interface{} "userData + token"
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /api/auth/signup [post]
func (h *MemberHandler) Signup(c *fiber.Ctx) error {
	var req domain.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return RespondError(c, badBody())
	}

	member, token, err := h.usecase.Signup(c.UserContext(), req)
	if err != nil {
		return RespondError(c, err)
	}

	setTokenCookie(c, token)
	return c.JSON(fiber.Map{
		"success":  true,
		"userData": member,
		"token":    token,
		"message":  "Account Created Successfully",
	})
}

// Login 用户登录
// @Summary 用户登录
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "用户登录信息"
// @Success 200 {object} map[string]interface{} "userData + token"
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/login [post]
func (h *MemberHandler) Login(c *fiber.Ctx) error {
	var req domain.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return RespondError(c, badBody())
	}

	member, token, err := h.usecase.Login(c.UserContext(), req)
	if err != nil {
		return RespondError(c, err)
	}

	setTokenCookie(c, token)
	return c.JSON(fiber.Map{
		"success":  true,
		"userData": member,
		"token":    token,
		"message":  "Logged In Successfully",
	})
}

// CheckAuth 目前登入的使用者
// @Summary 检查登录状态
// @Tags Auth
// @Produce json
// @Param token header string true "jwt"
// @Success 200 {object} map[string]interface{} "user"
// @Failure 401 {object} map[string]interface{}
// @Router /api/auth/check [get]
func (h *MemberHandler) CheckAuth(c *fiber.Ctx) error {
	memberID, ok := middlewares.MemberID(c)
	if !ok {
		return RespondError(c, errprocess.Unauthorized("missing member"))
	}

	member, err := h.usecase.FindMember(c.UserContext(), memberID)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": member})
}

// UpdateProfile 更新个人资料
// @Summary 更新个人资料
// @Tags Auth
// @Accept json
// @Produce json
// @Param token header string true "jwt"
// @Param request body domain.UpdateProfileRequest true "profile"
// @Success 200 {object} map[string]interface{} "user"
// @Failure 400 {object} map[string]interface{}
// @Failure 502 {object} map[string]interface{}
// @Router /api/auth/update-profile [put]
func (h *MemberHandler) UpdateProfile(c *fiber.Ctx) error {
	memberID, ok := middlewares.MemberID(c)
	if !ok {
		return RespondError(c, errprocess.Unauthorized("missing member"))
	}

	var req domain.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return RespondError(c, badBody())
	}

	member, err := h.usecase.UpdateProfile(c.UserContext(), memberID, req)
	if err != nil {
		return RespondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "user": member})
}

// Logout 用户登出
// @Summary 用户登出
// @Tags Auth
// @Produce json
// @Param token header string true "jwt"
// @Success 200 {object} map[string]interface{}
// @Router /api/auth/logout [post]
func (h *MemberHandler) Logout(c *fiber.Ctx) error {
	memberID, ok := middlewares.MemberID(c)
	if !ok {
		return RespondError(c, errprocess.Unauthorized("missing member"))
	}

	if err := h.usecase.Logout(c.UserContext(), memberID); err != nil {
		return RespondError(c, err)
	}
	c.ClearCookie(middlewares.CookieToken)
	return c.JSON(fiber.Map{"success": true, "message": "logout success"})
}

func setTokenCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middlewares.CookieToken,
		Value:    token,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
