package payment

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"net/http"

	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/helper"
	midtransPkg "go-checkout/internal/pkg/midtrans"
	paymentService "go-checkout/internal/service/payment"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	ctx            context.Context
	paymentService paymentService.IService
	midtrans       *midtransPkg.MidtransClient
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup)
}

func NewHandler(ctx context.Context, paymentService paymentService.IService, midtrans *midtransPkg.MidtransClient) IHandler {
	return &Handler{
		ctx:            ctx,
		paymentService: paymentService,
		midtrans:       midtrans,
	}
}

type callbackRequest struct {
	OrderID           string `json:"order_id" binding:"required"`
	StatusCode        string `json:"status_code" binding:"required"`
	GrossAmount       string `json:"gross_amount" binding:"required"`
	SignatureKey      string `json:"signature_key" binding:"required"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status" binding:"required"`
	PaymentType       string `json:"payment_type"`
}

// GatewayCallback godoc
// @Summary      Payment gateway notification
// @Description  Receives asynchronous transaction status callbacks from the payment gateway
// @Tags         Payments
// @Accept       json
// @Produce      json
// @Success      200  {object}  types.ResponseAPI
// @Failure      400  {object}  types.ResponseAPI
// @Failure      403  {object}  types.ResponseAPI
// @Router       /v1/payments/callback [post]
func (h *Handler) GatewayCallback(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	var req callbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusBadRequest,
			Message: "Invalid callback body",
			Error:   err,
		}))
		return
	}

	if !h.verifySignature(&req) {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusForbidden,
			Message: "Invalid signature",
		}))
		return
	}

	err := h.paymentService.ApplyNotification(&paymentService.GatewayNotification{
		OrderID:           req.OrderID,
		TransactionID:     req.TransactionID,
		TransactionStatus: req.TransactionStatus,
		PaymentType:       req.PaymentType,
	})
	if err != nil {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusBadRequest,
			Message: "Could not apply notification",
			Error:   err,
		}))
		return
	}

	send(helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "OK",
	}))
}

// verifySignature checks the gateway's sha512(order_id + status_code + gross_amount
// + server_key) signature.
func (h *Handler) verifySignature(req *callbackRequest) bool {
	payload := req.OrderID + req.StatusCode + req.GrossAmount + h.midtrans.ServerKey
	sum := sha512.Sum512([]byte(payload))
	return hex.EncodeToString(sum[:]) == req.SignatureKey
}

// ListCards godoc
// @Summary      List saved cards
// @Description  Returns the verified account's saved cards
// @Tags         Payments
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  types.ResponseAPI{data=[]types.SavedCard}
// @Failure      401  {object}  types.ResponseAPI
// @Router       /v1/payments/cards [get]
func (h *Handler) ListCards(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))

	account := c.MustGet("auth").(types.VerifiedAccount)

	cards, err := h.paymentService.ListSavedCards(account.ID)
	if err != nil {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to list cards",
			Error:   err,
		}))
		return
	}

	send(helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "OK",
		Data:    cards,
	}))
}
