package router

import (
	"chat_service/internal/api/handlers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// RegisterRoutes 注册 REST 路由, auth 為 JWT + session 驗證
// @title Chat Service API
// @version 1.0
// @description One-to-one chat: auth, conversations, unseen counts
// @host localhost:3001
// @BasePath /
func RegisterRoutes(app *fiber.App, auth fiber.Handler, memberHandler *handlers.MemberHandler, messageHandler *handlers.MessageHandler) {
	app.Get("/swagger/*", swagger.HandlerDefault)
	app.Post("/debug", handlers.DebugLogFlag)

	api := app.Group("/api")
	api.Get("/status", handlers.ConnectCheck)

	authRoutes := api.Group("/auth")
	authRoutes.Post("/signup", memberHandler.Signup)
	authRoutes.Post("/login", memberHandler.Login)
	authRoutes.Get("/check", auth, memberHandler.CheckAuth)
	authRoutes.Put("/update-profile", auth, memberHandler.UpdateProfile)
	authRoutes.Post("/logout", auth, memberHandler.Logout)

	messageRoutes := api.Group("/messages", auth)
	messageRoutes.Get("/users", messageHandler.GetUsersForSidebar)
	messageRoutes.Put("/mark/:id", messageHandler.MarkAsSeen)
	messageRoutes.Post("/send/:id", messageHandler.SendMessage)
	messageRoutes.Get("/:id", messageHandler.GetMessages)
}
