package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/vhsilvat/MetaMorfose/internal/services"
)

// WebhookHandler receives callbacks from the identity provider and from
// Stripe. Both endpoints are unauthenticated and verify their own secrets.
type WebhookHandler struct {
	identity      *services.IdentityService
	subscriptions *services.SubscriptionService

	identitySecret      string
	stripeWebhookSecret string
	log                 *zap.Logger
}

func NewWebhookHandler(
	identity *services.IdentityService,
	subscriptions *services.SubscriptionService,
	identitySecret, stripeWebhookSecret string,
	log *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		identity:            identity,
		subscriptions:       subscriptions,
		identitySecret:      identitySecret,
		stripeWebhookSecret: stripeWebhookSecret,
		log:                 log,
	}
}

type identityWebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		ID        string  `json:"id"`
		Email     string  `json:"email"`
		FirstName *string `json:"first_name,omitempty"`
		LastName  *string `json:"last_name,omitempty"`
		ImageURL  *string `json:"image_url,omitempty"`
	} `json:"data"`
}

// HandleIdentity processes user lifecycle events pushed by the identity
// provider.
func (h *WebhookHandler) HandleIdentity(c *fiber.Ctx) error {
	secret := c.Get("X-Webhook-Secret")
	if h.identitySecret == "" ||
		subtle.ConstantTimeCompare([]byte(secret), []byte(h.identitySecret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid webhook secret"})
	}

	var event identityWebhookEvent
	if err := json.Unmarshal(c.Body(), &event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid event payload"})
	}

	switch event.Type {
	case "user.created", "user.updated":
		_, err := h.identity.SyncUser(c.Context(), services.IdentitySummary{
			ExternalID: event.Data.ID,
			Email:      event.Data.Email,
			FirstName:  event.Data.FirstName,
			LastName:   event.Data.LastName,
			ImageURL:   event.Data.ImageURL,
		})
		if err != nil {
			if errors.Is(err, services.ErrInvalidInput) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Event missing user id or email"})
			}
			h.log.Error("identity sync failed", zap.String("type", event.Type), zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to sync user"})
		}
	case "user.deleted":
		if err := h.identity.RemoveUser(c.Context(), event.Data.ID); err != nil && !errors.Is(err, services.ErrNotFound) {
			h.log.Error("identity removal failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to remove user"})
		}
	default:
		// Ignore event types we do not track.
	}

	return c.JSON(fiber.Map{"received": true})
}

// HandleStripe verifies the event signature and applies billing changes.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	event, err := webhook.ConstructEvent(c.Body(), c.Get("Stripe-Signature"), h.stripeWebhookSecret)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid signature"})
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid event payload"})
		}
		err = h.subscriptions.HandleCheckoutCompleted(c.Context(), &session)
	case "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid event payload"})
		}
		err = h.subscriptions.HandleSubscriptionUpdated(c.Context(), &sub)
	case "invoice.payment_succeeded", "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid event payload"})
		}
		err = h.subscriptions.HandleInvoiceEvent(c.Context(), &invoice)
	default:
		return c.JSON(fiber.Map{"received": true})
	}

	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			// 404 makes Stripe retry once the checkout event has landed.
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Subscription not known yet"})
		}
		h.log.Error("stripe event failed", zap.String("type", string(event.Type)), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process event"})
	}
	return c.JSON(fiber.Map{"received": true})
}
