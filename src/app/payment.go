package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

type (
	CheckoutRequest struct {
		Plan        string
		AmountCents int64
		Credits     int
		BuyerID     string
		Currency    string
		SuccessURL  string
		CancelURL   string
	}

	CheckoutSession struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}

	// CompletedCheckout is a paid session as reported by the gateway.
	CompletedCheckout struct {
		SessionID   string
		AmountCents int64
		Plan        string
		Credits     int
		BuyerID     string
	}

	PaymentGateway interface {
		CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
		// ParseWebhook verifies the payload signature. It returns nil for
		// events other than a paid checkout.
		ParseWebhook(payload []byte, signature string) (*CompletedCheckout, error)
	}
)

const (
	checkoutCompleted     = "checkout.session.completed"
	asyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

func (s *StripeGateway) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(req.Currency),
					UnitAmount: stripe.Int64(req.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Plan),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	params.AddMetadata("plan", req.Plan)
	params.AddMetadata("credits", strconv.Itoa(req.Credits))
	params.AddMetadata("buyerId", req.BuyerID)

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("can not create checkout session: %w", err)
	}
	return &CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

func (s *StripeGateway) ParseWebhook(payload []byte, signature string) (*CompletedCheckout, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: bad webhook signature: %v", ErrInvalidInput, err)
	}
	if string(event.Type) != checkoutCompleted && string(event.Type) != asyncPaymentSucceeded {
		return nil, nil
	}
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		return nil, fmt.Errorf("can not parse checkout session: %w", err)
	}
	// delayed payment methods complete the session unpaid and settle later
	if session.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, nil
	}
	return completedFromMetadata(session.ID, session.AmountTotal, session.Metadata)
}

func completedFromMetadata(sessionID string, amount int64, metadata map[string]string) (*CompletedCheckout, error) {
	credits, err := strconv.Atoi(metadata["credits"])
	if err != nil {
		return nil, fmt.Errorf("%w: credits metadata %q", ErrInvalidInput, metadata["credits"])
	}
	return &CompletedCheckout{
		SessionID:   sessionID,
		AmountCents: amount,
		Plan:        metadata["plan"],
		Credits:     credits,
		BuyerID:     metadata["buyerId"],
	}, nil
}
