package handler

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"

	"qiblaapi/internal/http/middleware"
	"qiblaapi/internal/model"
	"qiblaapi/internal/service"
)

type feedUserRequest struct {
	Email string `json:"email"`
	Pass  string `json:"pass"`
	Type  string `json:"type"`
}

type feedUserResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

type checkUserResponse struct {
	User *model.User `json:"user"`
}

// FeedUser registers a user in the registry.
//
// @Summary Register a user
// @Tags users
// @Accept json
// @Produce json
// @Param body body feedUserRequest true "User to add; pass is optional"
// @Success 200 {object} feedUserResponse
// @Failure 400 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/feed_user [post]
func FeedUser(svc service.UserService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req feedUserRequest
		// An empty body falls through to the required-field check.
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
			}
		}

		user, err := svc.Feed(c.UserContext(), service.FeedUserInput{
			Email: req.Email,
			Pass:  req.Pass,
			Type:  req.Type,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmailAndTypeRequired):
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "Email and type are required")
			case errors.Is(err, service.ErrUserExists):
				return writeError(c, fiber.StatusBadRequest, "USER_EXISTS", "User already exists")
			}
			log.Error("feed_user_failed", "request_id", middleware.RequestIDFrom(c), "error", err)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}

		return c.JSON(feedUserResponse{Message: "User added successfully", User: user})
	}
}

// CheckUser looks a user up by email.
//
// @Summary Look up a user
// @Tags users
// @Produce json
// @Param email query string true "User email"
// @Success 200 {object} checkUserResponse
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/checkuser [get]
func CheckUser(svc service.UserService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := strings.TrimSpace(c.Query("email"))
		if email == "" {
			return writeError(c, fiber.StatusBadRequest, "EMAIL_REQUIRED", "Email parameter is required")
		}

		user, err := svc.Check(c.UserContext(), email)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmailRequired):
				return writeError(c, fiber.StatusBadRequest, "EMAIL_REQUIRED", "Email parameter is required")
			case errors.Is(err, service.ErrUserNotFound):
				return writeError(c, fiber.StatusNotFound, "USER_NOT_FOUND", "User not found")
			}
			log.Error("check_user_failed", "request_id", middleware.RequestIDFrom(c), "error", err)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}

		return c.JSON(checkUserResponse{User: user})
	}
}
