package order

import (
	"context"
	"io"
	"net/http"

	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/helper"
	s3aws "go-checkout/internal/pkg/storage/s3"
	orderRepo "go-checkout/internal/repository/order"
	broadcastService "go-checkout/internal/service/broadcast"

	"github.com/gin-gonic/gin"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

type Handler struct {
	ctx     context.Context
	hub     broadcastService.IHub
	orders  orderRepo.IRepository
	storage s3aws.Is3
}

type IHandler interface {
	NewRoutes(e *gin.RouterGroup)
}

func NewHandler(ctx context.Context, hub broadcastService.IHub, orders orderRepo.IRepository, storage s3aws.Is3) IHandler {
	return &Handler{
		ctx:     ctx,
		hub:     hub,
		orders:  orders,
		storage: storage,
	}
}

// Stream godoc
// @Summary      Live order updates
// @Description  Server-sent event stream of order status changes for the dashboard
// @Tags         Orders
// @Produce      text/event-stream
// @Success      200
// @Router       /v1/orders/stream [get]
func (h *Handler) Stream(c *gin.Context) {
	clientID, err := gonanoid.New()
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}

	updates := h.hub.Subscribe(clientID)
	defer h.hub.Unsubscribe(clientID)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case update, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("order_update", update)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// Receipt godoc
// @Summary      Order receipt link
// @Description  Returns a temporary download link for a paid order's receipt
// @Tags         Orders
// @Produce      json
// @Security     BearerAuth
// @Param        order_id  path      string  true  "Order ID"
// @Success      200       {object}  types.ResponseAPI
// @Failure      404       {object}  types.ResponseAPI
// @Router       /v1/orders/{order_id}/receipt [get]
func (h *Handler) Receipt(c *gin.Context) {
	send := c.MustGet("send").(func(r *types.Response))
	account := c.MustGet("auth").(types.VerifiedAccount)

	order, err := h.orders.FindByOrderID(h.ctx, c.Param("order_id"))
	if err != nil || order.AccountID != account.ID {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusNotFound,
			Message: "Order not found",
		}))
		return
	}
	if order.ReceiptKey == "" {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusNotFound,
			Message: "No receipt for this order",
		}))
		return
	}

	url, err := h.storage.GetPresignedURL(order.ReceiptKey)
	if err != nil {
		send(helper.ParseResponse(&types.Response{
			Code:    http.StatusInternalServerError,
			Message: "Failed to generate receipt link",
			Error:   err,
		}))
		return
	}

	send(helper.ParseResponse(&types.Response{
		Code:    http.StatusOK,
		Message: "OK",
		Data:    gin.H{"url": url},
	}))
}
