package handlers

import (
	"fmt"
	"strconv"

	errprocess "chat_service/pkg/err"
	"chat_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ConnectCheck check api connect start
// @Summary Check chat service status
// @Description Returns a simple liveness payload
// @Tags Shared
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/status [get]
func ConnectCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "message": "chat service is live"})
}

// DebugLogFlag toggle debug log flag
// @Summary Toggle Debug Log Flag
// @Description Enable or disable debug logging
// @Tags Shared
// @Param status query bool true "Debug status"
// @Success 200 {string} string "debug mode updated"
// @Failure 400 {string} string "Invalid status value"
// @Router /debug [post]
func DebugLogFlag(c *fiber.Ctx) error {
	statusStr := c.Query("status")
	logger.Log.Info("debug", zap.String("status", statusStr))
	status, err := strconv.ParseBool(statusStr)
	if err != nil {
		return c.SendStatus(fiber.StatusBadRequest)
	}

	logger.Log.SetDebugMode(status)
	return c.SendString(fmt.Sprintf("debug mode is : %t", status))
}

// RespondError write {success:false, code, message} with mapped status
func RespondError(c *fiber.Ctx, err error) error {
	status := errprocess.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		logger.Log.Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err))
	} else {
		logger.Log.Debug("request rejected", zap.String("path", c.Path()), zap.Error(err))
	}

	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"code":    errprocess.CodeOf(err),
		"message": errprocess.Message(err),
	})
}

func badBody() error {
	return errprocess.Validation("invalid request body")
}
