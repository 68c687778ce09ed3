package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/vhsilvat/MetaMorfose/internal/models"
	"github.com/vhsilvat/MetaMorfose/internal/services"
	"github.com/vhsilvat/MetaMorfose/pkg/utils"
)

type ChatHandler struct {
	service   chatApplicationService
	identity  *services.IdentityService
	jwtSecret string
}

type chatApplicationService interface {
	Ask(ctx context.Context, userID int64, prompt string) (*models.ChatMessage, error)
	History(ctx context.Context, userID int64, limit int) ([]models.ChatMessage, error)
}

func NewChatHandler(service *services.ChatService, identity *services.IdentityService, jwtSecret string) *ChatHandler {
	return &ChatHandler{service: service, identity: identity, jwtSecret: jwtSecret}
}

type askRequest struct {
	Prompt string `json:"prompt"`
}

func (h *ChatHandler) Ask(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req askRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	message, err := h.service.Ask(c.Context(), userID, req.Prompt)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": message})
}

func (h *ChatHandler) History(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be a positive integer"})
		}
		limit = n
	}

	messages, err := h.service.History(c.Context(), userID, limit)
	if err != nil {
		return mapChatError(c, err)
	}
	return c.JSON(fiber.Map{"messages": messages})
}

// WebSocketAuth authenticates the upgrade request; tokens come from the
// query string since browsers cannot set headers on websocket connects.
func (h *ChatHandler) WebSocketAuth(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{"error": "WebSocket upgrade required"})
	}

	claims, err := h.parseWSClaims(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	user, err := h.identity.EnsureUser(c.Context(), services.IdentitySummary{
		ExternalID: claims.Subject,
		Email:      claims.Email,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to resolve user"})
	}

	c.Locals("user_id", user.ID)
	return c.Next()
}

type wsChatFrame struct {
	Type    string `json:"type"`
	Prompt  string `json:"prompt,omitempty"`
	Message any    `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandleWebSocket runs a request/response chat loop: each incoming frame
// carries a prompt, each outgoing frame the stored exchange.
func (h *ChatHandler) HandleWebSocket(conn *websocket.Conn) {
	userID, _ := conn.Locals("user_id").(int64)
	defer conn.Close()

	for {
		var frame wsChatFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		if frame.Type != "ask" {
			_ = conn.WriteJSON(wsChatFrame{Type: "error", Error: "unsupported frame type"})
			continue
		}

		message, err := h.service.Ask(context.Background(), userID, frame.Prompt)
		if err != nil {
			_ = conn.WriteJSON(wsChatFrame{Type: "error", Error: wsErrorText(err)})
			continue
		}
		if err := conn.WriteJSON(wsChatFrame{Type: "message", Message: message}); err != nil {
			return
		}
	}
}

func (h *ChatHandler) parseWSClaims(c *fiber.Ctx) (*utils.Claims, error) {
	tokenString := strings.TrimSpace(c.Query("token"))
	if tokenString == "" {
		authHeader := strings.TrimSpace(c.Get("Authorization"))
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}
	}

	if tokenString == "" {
		return nil, errors.New("missing token")
	}

	return utils.ValidateToken(tokenString, h.jwtSecret)
}

func wsErrorText(err error) string {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.Is(err, services.ErrFeatureLocked):
		return "Complete your intake questionnaire to unlock chat"
	case errors.Is(err, services.ErrUpstream):
		return "The coach is unavailable right now, please retry"
	default:
		return "Failed to process message"
	}
}

func mapChatError(c *fiber.Ctx, err error) error {
	var validationErr *services.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": validationErr.Message,
			"field": validationErr.Field,
		})
	case errors.Is(err, services.ErrFeatureLocked):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Complete your intake questionnaire to unlock chat"})
	case errors.Is(err, services.ErrUpstream):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "The coach is unavailable right now, please retry"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process chat request"})
	}
}
