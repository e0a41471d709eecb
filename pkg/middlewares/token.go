package middlewares

import (
	"context"

	errprocess "chat_service/pkg/err"
	"chat_service/pkg/logger"
	t_token "chat_service/pkg/token"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	//HeaderToken token in header name
	HeaderToken = "token"

	//QueryToken token in query name, websocket 連線只能帶 query
	QueryToken = "auth"

	//CookieToken token in cookie name
	CookieToken = "auth_token"

	//TokenMemberID get member form token, set c.locals name
	TokenMemberID = "MemberID"
	//TokenRole get role form token, set c.locals name
	TokenRole = "role"
	//TokenRaw raw token string, set c.locals name
	TokenRaw = "token"
)

// SessionChecker confirm the member still has a live session
type SessionChecker interface {
	CheckSession(ctx context.Context, memberID string) error
}

// JWTMiddleware validates JWT from header / query / cookie, checker may be nil
func JWTMiddleware(checker SessionChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			return unauthorized(c, "missing token")
		}

		claims, err := t_token.ParseJWT(tokenStr)
		if err != nil {
			logger.Log.Debug("jwt rejected", zap.Error(err))
			return unauthorized(c, "invalid token")
		}

		if checker != nil {
			if err := checker.CheckSession(c.UserContext(), claims.MemberID); err != nil {
				logger.Log.Debug("session rejected", zap.String("memberID", claims.MemberID), zap.Error(err))
				return unauthorized(c, "session expired")
			}
		}

		c.Locals(TokenMemberID, claims.MemberID)
		c.Locals(TokenRole, claims.Role)
		c.Locals(TokenRaw, tokenStr)
		return c.Next()
	}
}

// MemberID read member id set by JWTMiddleware
func MemberID(c *fiber.Ctx) (string, bool) {
	id, ok := c.Locals(TokenMemberID).(string)
	return id, ok && id != ""
}

func extractToken(c *fiber.Ctx) string {
	if t := c.Get(HeaderToken); t != "" {
		return t
	}
	if t := c.Get(fiber.HeaderAuthorization); t != "" {
		return t
	}
	if t := c.Query(QueryToken); t != "" {
		return t
	}
	return c.Cookies(CookieToken)
}

func unauthorized(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"code":    errprocess.CodeUnauthenticated,
		"message": msg,
	})
}
