package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"app/internal/api/v1/dto"
	"app/internal/repository"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
	svix "github.com/svix/svix-webhooks/go"
)

// WebhookHandler terminates the two external event streams. Signature
// verification is the only authentication on these routes.
type WebhookHandler struct {
	identitySvc   service.IdentityService
	settlementSvc service.SettlementService
	clerkVerifier *svix.Webhook
	stripeSecret  string
	validate      *validator.Validate
	logger        zerolog.Logger
}

// NewWebhookHandler creates a WebhookHandler. The Clerk secret must be a
// valid svix signing secret.
func NewWebhookHandler(identitySvc service.IdentityService, settlementSvc service.SettlementService, clerkSecret, stripeSecret string, v *validator.Validate, logger zerolog.Logger) (*WebhookHandler, error) {
	verifier, err := svix.NewWebhook(clerkSecret)
	if err != nil {
		return nil, err
	}
	return &WebhookHandler{
		identitySvc:   identitySvc,
		settlementSvc: settlementSvc,
		clerkVerifier: verifier,
		stripeSecret:  stripeSecret,
		validate:      v,
		logger:        logger.With().Str("handler", "WebhookHandler").Logger(),
	}, nil
}

// RegisterRoutes mounts the webhook endpoints. No auth middleware: the
// signatures carry the trust.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/webhooks/clerk", http.HandlerFunc(h.Clerk))
	mux.Handle("/webhooks/stripe", http.HandlerFunc(h.Stripe))
}

// Clerk consumes identity lifecycle events. Non-2xx answers make the
// provider redeliver, which is safe because Apply is idempotent.
func (h *WebhookHandler) Clerk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	if err := h.clerkVerifier.Verify(payload, r.Header); err != nil {
		h.logger.Warn().Err(err).Msg("Clerk webhook signature verification failed")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}

	var ev dto.ClerkEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		http.Error(w, "invalid event payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&ev); err != nil {
		http.Error(w, "invalid event payload: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.logger.Info().Str("event_type", ev.Type).Str("clerk_id", ev.Data.ID).Msg("Clerk webhook received")

	if err := h.identitySvc.Apply(r.Context(), ev.ToIdentityEvent()); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			// Out-of-order delivery; the redelivered event will land after
			// the create has been applied.
			http.Error(w, "event arrived out of order", http.StatusConflict)
		case errors.Is(err, repository.ErrTimeout):
			http.Error(w, "store timeout", http.StatusServiceUnavailable)
		default:
			h.logger.Error().Err(err).Str("event_type", ev.Type).Msg("Failed to apply identity event")
			http.Error(w, "failed to apply event", http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Stripe consumes payment events. Only checkout.session.completed settles;
// everything else is acknowledged and ignored.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}
	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.stripeSecret)
	if err != nil {
		h.logger.Warn().Err(err).Msg("Stripe webhook signature verification failed")
		http.Error(w, "signature verification failed", http.StatusBadRequest)
		return
	}

	h.logger.Info().Str("event_type", string(event.Type)).Msg("Stripe webhook received")

	switch event.Type {
	case "checkout.session.completed":
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
			http.Error(w, "invalid checkout.session data", http.StatusBadRequest)
			return
		}
		paymentEvent, err := paymentEventFromSession(&cs)
		if err != nil {
			h.logger.Error().Err(err).Str("session_id", cs.ID).Msg("Unusable checkout session")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := h.settlementSvc.Settle(r.Context(), paymentEvent); err != nil {
			if errors.Is(err, service.ErrInconsistencyDetected) {
				// Retrying cannot fix this: the transaction row already
				// exists, so a redelivery settles as "already recorded"
				// without granting. An operator re-drives from that row.
				h.logger.Error().Err(err).Str("payment_id", paymentEvent.PaymentID).Msg("Settlement inconsistency detected")
			}
			http.Error(w, "settlement failed", http.StatusInternalServerError)
			return
		}
	default:
		h.logger.Debug().Str("event_type", string(event.Type)).Msg("Ignoring Stripe event")
	}
	w.WriteHeader(http.StatusOK)
}

// paymentEventFromSession extracts the settlement fields from a completed
// checkout session. Credits and plan travel in the session metadata set when
// the checkout was created.
func paymentEventFromSession(cs *stripe.CheckoutSession) (service.PaymentEvent, error) {
	ev := service.PaymentEvent{
		Amount:       cs.AmountTotal,
		Plan:         cs.Metadata["plan"],
		BuyerClerkID: cs.Metadata["user_id"],
	}
	ev.PaymentID = cs.ID
	if cs.PaymentIntent != nil && cs.PaymentIntent.ID != "" {
		ev.PaymentID = cs.PaymentIntent.ID
	}
	if ev.BuyerClerkID == "" {
		return ev, errors.New("missing user_id in session metadata")
	}
	credits, err := strconv.Atoi(cs.Metadata["credits"])
	if err != nil || credits <= 0 {
		return ev, errors.New("missing or invalid credits in session metadata")
	}
	ev.Credits = credits
	return ev, nil
}
