package server

import (
	"errors"
	"io"
	"net/http"

	app "imaginify/src/app"

	"github.com/gin-gonic/gin"
)

const (
	signatureHeader = "Stripe-Signature"
	maxWebhookBody  = 1 << 20
)

type (
	CreditHandler struct {
		users        *app.UserService
		transactions *app.TransactionService
	}

	CheckoutBody struct {
		Plan string `json:"plan" binding:"required"`
	}
)

func NewCreditHandler(users *app.UserService, transactions *app.TransactionService) *CreditHandler {
	return &CreditHandler{users: users, transactions: transactions}
}

func (h *CreditHandler) GetPlans(c *gin.Context) {
	respondOK(c, h.transactions.Plans())
}

func (h *CreditHandler) GetTransformations(c *gin.Context) {
	respondOK(c, gin.H{
		"transformations": app.Transformations(),
		"aspectRatios":    app.AspectRatios(),
		"creditFee":       h.users.Fee(),
	})
}

func (h *CreditHandler) ApplyTransformation(c *gin.Context) {
	var req app.TransformRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "can not parse transformation: "+err.Error())
		return
	}
	result, err := h.users.ApplyTransformation(c.Request.Context(), currentUser(c),
		app.TransformationType(c.Param("type")), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

func (h *CreditHandler) Checkout(c *gin.Context) {
	var body CheckoutBody
	if err := c.ShouldBindJSON(&body); err != nil {
		respondMessage(c, http.StatusBadRequest, "can not parse checkout: "+err.Error())
		return
	}
	session, err := h.transactions.Checkout(c.Request.Context(), currentUser(c), body.Plan)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, session)
}

// PaymentWebhook acknowledges every verified event. A repeated delivery of
// an already recorded payment is acknowledged without crediting again.
func (h *CreditHandler) PaymentWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondMessage(c, http.StatusRequestEntityTooLarge, "webhook body is too large")
			return
		}
		respondMessage(c, http.StatusBadRequest, "can not read webhook body")
		return
	}
	tx, err := h.transactions.HandleWebhook(c.Request.Context(), payload, c.GetHeader(signatureHeader))
	switch {
	case errors.Is(err, app.ErrDuplicateTransaction):
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "already recorded"})
	case err != nil:
		respondError(c, err)
	case tx == nil:
		c.JSON(http.StatusOK, gin.H{"status": "success", "message": "ignored"})
	default:
		respondOK(c, tx)
	}
}
