package http

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/meridian-commerce/storefront/pkg/httputil"

	"github.com/meridian-commerce/storefront/internal/payment"
	"github.com/meridian-commerce/storefront/internal/service"
)

// SignatureHeader carries the provider's timestamped HMAC signature of the
// webhook body, in the form "t=<unix ts>,v1=<hex digest>".
const SignatureHeader = "X-Payment-Signature"

const eventCheckoutCompleted = "checkout.session.completed"

// WebhookHandler receives signed payment provider events. A completed
// checkout session is turned into a paid order; everything else is
// acknowledged and ignored.
type WebhookHandler struct {
	orders *service.OrderService
	secret string
	logger *slog.Logger
}

// NewWebhookHandler creates a new payment webhook handler.
func NewWebhookHandler(orders *service.OrderService, secret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		orders: orders,
		secret: secret,
		logger: logger,
	}
}

// webhookEvent is the provider's event envelope.
type webhookEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		ID              string `json:"id"`
		PaymentIntent   string `json:"payment_intent"`
		ClientReference string `json:"client_reference_id"`
		CustomerEmail   string `json:"customer_email"`
	} `json:"data"`
}

// HandlePaymentEvent handles POST /api/v1/webhooks/payment
func (h *WebhookHandler) HandlePaymentEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "unable to read request body"},
		})
		return
	}

	signature := r.Header.Get(SignatureHeader)
	if err := payment.VerifySignature(h.secret, body, signature, time.Now(), payment.DefaultSignatureTolerance); err != nil {
		h.logger.WarnContext(r.Context(), "webhook signature verification failed",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_SIGNATURE", Message: "webhook signature verification failed"},
		})
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "invalid event payload: " + err.Error()},
		})
		return
	}

	if event.Type != eventCheckoutCompleted {
		h.logger.DebugContext(r.Context(), "ignoring webhook event",
			slog.String("event_id", event.ID),
			slog.String("event_type", event.Type),
		)
		httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]bool{"received": true}})
		return
	}

	if event.Data.ClientReference == "" || event.Data.ID == "" {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: "event is missing session identifiers"},
		})
		return
	}

	order, err := h.orders.RecordPaidOrder(r.Context(), event.Data.ClientReference, event.Data.ID, event.Data.PaymentIntent, event.Data.CustomerEmail)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}
