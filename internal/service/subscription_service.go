package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"fieldhouse/coach-app/internal/config"
	"fieldhouse/coach-app/internal/domain"
	"fieldhouse/coach-app/internal/repository"

	"github.com/stripe/stripe-go/v78"
	checkoutsession "github.com/stripe/stripe-go/v78/checkout/session"
	"github.com/stripe/stripe-go/v78/webhook"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrCheckoutFailed     = errors.New("failed to create checkout session")
	ErrWebhookSignature   = errors.New("webhook signature verification failed")
	ErrWebhookBadPayload  = errors.New("webhook payload could not be parsed")
	ErrSubscriptionNeeded = errors.New("an active subscription is required for this action")
)

// --- Service Interface ---
type SubscriptionService interface {
	// CreateCheckoutSession starts a Stripe subscription checkout for the
	// coach and returns the hosted checkout URL.
	CreateCheckoutSession(ctx context.Context, coachID primitive.ObjectID, email string) (string, error)

	// HandleWebhook verifies and applies one Stripe event. The only effect on
	// the core is that a subscription's status flips.
	HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error

	// HasActiveSubscription reports whether the coach currently has a paid standing.
	HasActiveSubscription(ctx context.Context, coachID primitive.ObjectID) (bool, error)

	GetSubscription(ctx context.Context, coachID primitive.ObjectID) (*domain.Subscription, error)
}

// --- Service Implementation ---

// subscriptionService implements the SubscriptionService interface.
type subscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	cfg              config.StripeConfig
}

// NewSubscriptionService creates a new instance of subscriptionService.
func NewSubscriptionService(subscriptionRepo repository.SubscriptionRepository, cfg config.StripeConfig) SubscriptionService {
	stripe.Key = cfg.SecretKey
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		cfg:              cfg,
	}
}

func (s *subscriptionService) CreateCheckoutSession(ctx context.Context, coachID primitive.ObjectID, email string) (string, error) {
	if coachID == primitive.NilObjectID {
		return "", errors.New("coach ID is required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.cfg.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		CustomerEmail:     stripe.String(email),
		ClientReferenceID: stripe.String(coachID.Hex()),
		SuccessURL:        stripe.String(s.cfg.SuccessURL),
		CancelURL:         stripe.String(s.cfg.CancelURL),
	}
	params.Context = ctx

	session, err := checkoutsession.New(params)
	if err != nil {
		log.Printf("ERROR: stripe checkout session for coach %s: %v", coachID.Hex(), err)
		return "", ErrCheckoutFailed
	}

	// Record the pending subscription so the webhook has a row to flip.
	err = s.subscriptionRepo.Upsert(ctx, &domain.Subscription{
		CoachID: coachID,
		Status:  domain.SubscriptionPending,
	})
	if err != nil {
		return "", err
	}
	return session.URL, nil
}

func (s *subscriptionService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) error {
	event, err := webhook.ConstructEvent(payload, signatureHeader, s.cfg.WebhookSecret)
	if err != nil {
		return ErrWebhookSignature
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return ErrWebhookBadPayload
		}
		return s.activateFromCheckout(ctx, &session)

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return ErrWebhookBadPayload
		}
		return s.cancelSubscription(ctx, &sub)

	default:
		log.Printf("stripe webhook: unhandled event type %s", event.Type)
		return nil
	}
}

func (s *subscriptionService) activateFromCheckout(ctx context.Context, session *stripe.CheckoutSession) error {
	coachID, err := primitive.ObjectIDFromHex(session.ClientReferenceID)
	if err != nil {
		return ErrWebhookBadPayload
	}

	subscription := &domain.Subscription{
		CoachID: coachID,
		Status:  domain.SubscriptionActive,
	}
	if session.Customer != nil {
		subscription.StripeCustomerID = session.Customer.ID
	}
	if session.Subscription != nil {
		subscription.StripeSubscriptionID = session.Subscription.ID
		if session.Subscription.CurrentPeriodEnd > 0 {
			subscription.CurrentPeriodEnd = time.Unix(session.Subscription.CurrentPeriodEnd, 0).UTC()
		}
	}
	return s.subscriptionRepo.Upsert(ctx, subscription)
}

func (s *subscriptionService) cancelSubscription(ctx context.Context, sub *stripe.Subscription) error {
	existing, err := s.subscriptionRepo.GetByStripeSubscriptionID(ctx, sub.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Printf("stripe webhook: unknown subscription %s deleted", sub.ID)
			return nil
		}
		return err
	}

	existing.Status = domain.SubscriptionCanceled
	return s.subscriptionRepo.Upsert(ctx, existing)
}

func (s *subscriptionService) HasActiveSubscription(ctx context.Context, coachID primitive.ObjectID) (bool, error) {
	subscription, err := s.subscriptionRepo.GetByCoachID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return subscription.Status == domain.SubscriptionActive, nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, coachID primitive.ObjectID) (*domain.Subscription, error) {
	return s.subscriptionRepo.GetByCoachID(ctx, coachID)
}
