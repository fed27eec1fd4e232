package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/repository"
	"fieldhouse/coach-app/internal/service"

	"github.com/gin-gonic/gin"
)

// Stripe caps event payloads well below this; larger bodies are garbage.
const maxWebhookBodyBytes = 65536

// SubscriptionHandler holds the subscription and auth service dependencies.
type SubscriptionHandler struct {
	subscriptionService service.SubscriptionService
	authService         service.AuthService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService service.SubscriptionService, authService service.AuthService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
		authService:         authService,
	}
}

// --- Response Structs ---

type CheckoutResponse struct {
	CheckoutURL string `json:"checkoutUrl"`
}

type SubscriptionResponse struct {
	Status           domain.SubscriptionStatus `json:"status"`
	CurrentPeriodEnd *time.Time                `json:"currentPeriodEnd,omitempty"`
}

// --- Handler Methods ---

// CreateCheckout godoc
// @Summary Start a subscription checkout for the authenticated coach
// @Description Returns the hosted payment page URL. The subscription activates via webhook once payment completes.
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} CheckoutResponse
// @Failure 502 {object} gin.H "Payment provider error"
// @Router /coach/subscription/checkout [post]
func (h *SubscriptionHandler) CreateCheckout(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	// Checkout prefills the coach's account email.
	user, err := h.authService.GetUser(c.Request.Context(), actor)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load user profile")
		return
	}

	checkoutURL, err := h.subscriptionService.CreateCheckoutSession(c.Request.Context(), actor.ID, user.Email)
	if err != nil {
		if errors.Is(err, service.ErrCheckoutFailed) {
			abortWithError(c, http.StatusBadGateway, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to start checkout")
		}
		return
	}

	c.JSON(http.StatusOK, CheckoutResponse{CheckoutURL: checkoutURL})
}

// GetSubscription godoc
// @Summary Get the authenticated coach's subscription standing
// @Tags Subscriptions
// @Produce json
// @Success 200 {object} SubscriptionResponse
// @Failure 404 {object} gin.H "No subscription"
// @Router /coach/subscription [get]
func (h *SubscriptionHandler) GetSubscription(c *gin.Context) {
	actor, err := getActorFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, err.Error())
		return
	}

	subscription, err := h.subscriptionService.GetSubscription(c.Request.Context(), actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "No subscription found")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to load subscription")
		}
		return
	}

	resp := SubscriptionResponse{Status: subscription.Status}
	if !subscription.CurrentPeriodEnd.IsZero() {
		resp.CurrentPeriodEnd = &subscription.CurrentPeriodEnd
	}
	c.JSON(http.StatusOK, resp)
}

// StripeWebhook godoc
// @Summary Stripe event sink
// @Description Verifies the signature and applies subscription lifecycle events. Unauthenticated; the signature is the auth.
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Success 200 "Event processed"
// @Failure 400 {object} gin.H "Bad signature or payload"
// @Router /webhooks/stripe [post]
func (h *SubscriptionHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Failed to read webhook body")
		return
	}

	err = h.subscriptionService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, service.ErrWebhookSignature) || errors.Is(err, service.ErrWebhookBadPayload) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			// Signal Stripe to retry the delivery later.
			abortWithError(c, http.StatusInternalServerError, "Failed to process event")
		}
		return
	}

	c.Status(http.StatusOK)
}
