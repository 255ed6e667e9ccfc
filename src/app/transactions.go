package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	cfg "imaginify/src/configuration"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
)

type (
	CreateTransactionParams struct {
		StripeID string
		Amount   int64
		Plan     string
		Credits  int
		BuyerID  string
	}

	TransactionService struct {
		store     Store
		gateway   PaymentGateway
		plans     cfg.Plans
		currency  string
		publicURL string
		logger    *zap.Logger
	}
)

func NewTransactionService(store Store, gateway PaymentGateway, plans cfg.Plans, currency, publicURL string, logger *zap.Logger) *TransactionService {
	return &TransactionService{
		store:     store,
		gateway:   gateway,
		plans:     plans,
		currency:  currency,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

func (s *TransactionService) Plans() cfg.Plans { return s.plans }

// Checkout opens a hosted payment session for a paid plan.
func (s *TransactionService) Checkout(ctx context.Context, buyer *User, planName string) (*CheckoutSession, error) {
	plan, ok := s.plans.Find(planName)
	if !ok || plan.Price <= 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, planName)
	}
	session, err := s.gateway.CreateCheckoutSession(ctx, CheckoutRequest{
		Plan:        plan.Name,
		AmountCents: plan.Price * 100,
		Credits:     plan.Credits,
		BuyerID:     buyer.ID.Hex(),
		Currency:    s.currency,
		SuccessURL:  s.publicURL + "/profile?success=true",
		CancelURL:   s.publicURL + "/?canceled=true",
	})
	if err != nil {
		s.logger.Error("can not start checkout",
			zap.String("buyer", buyer.ID.Hex()), zap.String("plan", plan.Name), zap.Error(err))
		return nil, err
	}
	s.logger.Info("checkout started", zap.String("buyer", buyer.ID.Hex()), zap.String("session", session.ID))
	return session, nil
}

// CreateTransaction records a completed purchase and credits the buyer. A
// second call for the same payment returns ErrDuplicateTransaction and
// credits nothing.
func (s *TransactionService) CreateTransaction(ctx context.Context, params CreateTransactionParams) (*Transaction, error) {
	buyer, err := bson.ObjectIDFromHex(params.BuyerID)
	if err != nil {
		return nil, fmt.Errorf("%w: buyer id %q", ErrInvalidInput, params.BuyerID)
	}
	if params.StripeID == "" || params.Credits <= 0 {
		return nil, fmt.Errorf("%w: incomplete transaction %+v", ErrInvalidInput, params)
	}
	if _, err := s.store.FindUserByID(ctx, buyer); err != nil {
		s.logger.Error("can not record transaction", zap.String("buyer", params.BuyerID), zap.Error(err))
		return nil, err
	}

	tx := &Transaction{
		StripeID:  params.StripeID,
		Amount:    params.Amount,
		Plan:      params.Plan,
		Credits:   params.Credits,
		Buyer:     buyer,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateTransaction(ctx, tx); err != nil {
		if errors.Is(err, ErrDuplicateTransaction) {
			s.logger.Info("ignored repeated transaction", zap.String("stripeId", params.StripeID))
		} else {
			s.logger.Error("can not create transaction", zap.String("stripeId", params.StripeID), zap.Error(err))
		}
		return nil, err
	}
	// not atomic with the insert above
	if _, err := s.store.IncrementCredits(ctx, buyer, params.Credits); err != nil {
		s.logger.Error("recorded transaction but can not credit buyer",
			zap.String("stripeId", params.StripeID), zap.String("buyer", params.BuyerID), zap.Error(err))
		return nil, err
	}
	return tx, nil
}

// HandleWebhook verifies a gateway notification and records completed
// checkouts. Other events yield a nil transaction.
func (s *TransactionService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*Transaction, error) {
	completed, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("rejected payment webhook", zap.Error(err))
		return nil, err
	}
	if completed == nil {
		return nil, nil
	}
	return s.CreateTransaction(ctx, CreateTransactionParams{
		StripeID: completed.SessionID,
		Amount:   completed.AmountCents,
		Plan:     completed.Plan,
		Credits:  completed.Credits,
		BuyerID:  completed.BuyerID,
	})
}

func (s *TransactionService) ListTransactions(ctx context.Context, buyer bson.ObjectID) ([]*Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, buyer)
	if err != nil {
		s.logger.Error("can not list transactions", zap.String("buyer", buyer.Hex()), zap.Error(err))
		return nil, err
	}
	return txs, nil
}
