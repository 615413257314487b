package payment

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go-checkout/internal/common/models"
	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/logger"
	"go-checkout/internal/pkg/rabbitmq"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/samber/lo"
)

func (s *Service) ListSavedCards(accountID string) ([]types.SavedCard, error) {
	cards, err := s.rp.Card.ListByAccount(s.ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved cards: %w", err)
	}

	return lo.Map(cards, func(c models.PaymentCard, _ int) types.SavedCard {
		return types.SavedCard{
			ID:       c.ID,
			Brand:    c.Brand,
			Last4:    c.Last4,
			ExpMonth: c.ExpMonth,
			ExpYear:  c.ExpYear,
		}
	}), nil
}

// RegisterCard stores a freshly tokenized card after checking it against every card
// already on file. The check runs on every submit, not once per session, because the
// saved list can change from another session. A duplicate is rejected locally with
// no backend save call.
func (s *Service) RegisterCard(accountID, token string, meta types.CardMetadata) (*types.SavedCard, error) {
	existing, err := s.rp.Card.ListByAccount(s.ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to load saved cards: %w", err)
	}

	isDup := lo.ContainsBy(existing, func(c models.PaymentCard) bool {
		return strings.EqualFold(c.Brand, meta.Brand) &&
			c.Last4 == meta.Last4 &&
			c.ExpMonth == meta.ExpMonth &&
			c.ExpYear == meta.ExpYear
	})
	if isDup {
		return nil, ErrDuplicateCard
	}

	card := &models.PaymentCard{
		AccountID: accountID,
		Token:     token,
		Brand:     meta.Brand,
		Last4:     meta.Last4,
		ExpMonth:  meta.ExpMonth,
		ExpYear:   meta.ExpYear,
	}
	if err := s.rp.Card.Create(s.ctx, card); err != nil {
		return nil, fmt.Errorf("failed to save card: %w", err)
	}

	return &types.SavedCard{
		ID:       card.ID,
		Brand:    card.Brand,
		Last4:    card.Last4,
		ExpMonth: card.ExpMonth,
		ExpYear:  card.ExpYear,
	}, nil
}

// Charge bills a saved card. The idempotency key dedupes on both sides: locally an
// order row already holding the key is reused instead of creating a second one, and
// the key is forwarded to the provider with the charge itself.
func (s *Service) Charge(req *ChargeRequest) (*ChargeResult, error) {
	if req.IdempotencyKey == "" {
		return nil, fmt.Errorf("charge requires an idempotency key")
	}

	card, err := s.rp.Card.FindByID(s.ctx, req.CardID)
	if err != nil {
		return nil, ErrCardNotFound
	}
	if card.AccountID != req.AccountID {
		return nil, ErrCardNotFound
	}

	order, err := s.rp.Order.FindByIdempotencyKey(s.ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to look up order: %w", err)
	}
	if order != nil && order.GrossAmount != req.GrossAmount {
		// a key is minted for one attempt at one amount; a mismatch means the
		// caller reused it across a cart change
		return nil, fmt.Errorf("idempotency key is bound to amount %d, request carries %d", order.GrossAmount, req.GrossAmount)
	}

	if order != nil && order.Status == "paid" {
		// retried submit after a slow success: report the first outcome
		return &ChargeResult{
			OrderID:       order.OrderID,
			TransactionID: order.TransactionID,
			Status:        order.Status,
			GrossAmount:   order.GrossAmount,
			ReceiptKey:    order.ReceiptKey,
		}, nil
	}

	if order == nil {
		order, err = s.createOrder(req)
		if err != nil {
			return nil, err
		}
	}

	chargeReq := &coreapi.ChargeReq{
		PaymentType: coreapi.PaymentTypeCreditCard,
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  order.OrderID,
			GrossAmt: order.GrossAmount,
		},
		CreditCard: &coreapi.CreditCardDetails{
			TokenID: card.Token,
		},
	}

	resp, err := s.gateway.Charge(chargeReq, req.IdempotencyKey)
	if err != nil {
		s.markOrder(order, map[string]any{"status": "failed"})
		return nil, fmt.Errorf("charge failed: %w", err)
	}

	switch resp.TransactionStatus {
	case "capture", "settlement":
	default:
		s.markOrder(order, map[string]any{"status": "failed", "transaction_id": resp.TransactionID})
		return nil, fmt.Errorf("charge %s: %s", resp.TransactionStatus, resp.StatusMessage)
	}

	now := time.Now()
	receiptKey := s.archiveReceipt(order, resp)
	s.markOrder(order, map[string]any{
		"status":         "paid",
		"transaction_id": resp.TransactionID,
		"payment_type":   resp.PaymentType,
		"receipt_key":    receiptKey,
		"paid_at":        now,
	})

	s.publishUpdate(types.OrderUpdate{
		OrderID:       order.OrderID,
		AccountID:     order.AccountID,
		Status:        "paid",
		GrossAmount:   order.GrossAmount,
		TransactionID: resp.TransactionID,
		OccurredAt:    now,
	})

	return &ChargeResult{
		OrderID:       order.OrderID,
		TransactionID: resp.TransactionID,
		Status:        "paid",
		GrossAmount:   order.GrossAmount,
		ReceiptKey:    receiptKey,
	}, nil
}

func (s *Service) createOrder(req *ChargeRequest) (*models.Order, error) {
	suffix, err := gonanoid.Generate("0123456789abcdefghijklmnopqrstuvwxyz", 12)
	if err != nil {
		return nil, fmt.Errorf("failed to generate order id: %w", err)
	}

	lines, err := json.Marshal(req.Lines)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cart lines: %w", err)
	}

	order := &models.Order{
		OrderID:        fmt.Sprintf("ord_%s", suffix),
		IdempotencyKey: req.IdempotencyKey,
		AccountID:      req.AccountID,
		Vertical:       req.Vertical,
		PlanID:         req.PlanID,
		CardID:         req.CardID,
		GrossAmount:    req.GrossAmount,
		Lines:          models.JSONB(lines),
		Status:         "pending",
	}
	if err := s.rp.Order.Create(s.ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.publishUpdate(types.OrderUpdate{
		OrderID:     order.OrderID,
		AccountID:   order.AccountID,
		Status:      "pending",
		GrossAmount: order.GrossAmount,
		OccurredAt:  time.Now(),
	})

	return order, nil
}

func (s *Service) markOrder(order *models.Order, updates map[string]any) {
	if err := s.rp.Order.UpdateStatus(s.ctx, order.OrderID, updates); err != nil {
		logger.Error.Printf("failed to update order %s: %v", order.OrderID, err)
	}
}

// archiveReceipt uploads a receipt document for a settled charge. Best effort: the
// charge already succeeded, so a storage failure is logged and the key left empty.
func (s *Service) archiveReceipt(order *models.Order, resp *coreapi.ChargeResponse) string {
	receipt := map[string]any{
		"order_id":       order.OrderID,
		"account_id":     order.AccountID,
		"gross_amount":   order.GrossAmount,
		"transaction_id": resp.TransactionID,
		"payment_type":   resp.PaymentType,
		"lines":          json.RawMessage(order.Lines),
		"settled_at":     resp.TransactionTime,
	}

	body, err := json.Marshal(receipt)
	if err != nil {
		logger.Error.Printf("failed to encode receipt for order %s: %v", order.OrderID, err)
		return ""
	}

	if err := s.storage.UploadReceipt(order.OrderID, body); err != nil {
		logger.Error.Printf("failed to archive receipt for order %s: %v", order.OrderID, err)
		return ""
	}

	return fmt.Sprintf("receipts/%s.json", order.OrderID)
}

func (s *Service) publishUpdate(update types.OrderUpdate) {
	msg, err := rabbitmq.NewMessage(update, nil)
	if err != nil {
		logger.Error.Printf("failed to build order update for %s: %v", update.OrderID, err)
		return
	}
	if err := s.pub.Publish(types.OrderUpdatesQueue, msg); err != nil {
		logger.Warning.Printf("failed to publish order update for %s: %v", update.OrderID, err)
	}
}

// ApplyNotification reconciles an asynchronous gateway callback into the order it
// names. Settlements can arrive after the synchronous charge response, or for
// charges whose response was lost.
func (s *Service) ApplyNotification(n *GatewayNotification) error {
	order, err := s.rp.Order.FindByOrderID(s.ctx, n.OrderID)
	if err != nil {
		return fmt.Errorf("unknown order %s: %w", n.OrderID, err)
	}

	var status string
	updates := map[string]any{
		"transaction_id": n.TransactionID,
		"payment_type":   n.PaymentType,
	}

	switch n.TransactionStatus {
	case "capture", "settlement":
		status = "paid"
		updates["paid_at"] = time.Now()
	case "deny", "cancel", "expire", "failure":
		status = "failed"
	case "pending":
		status = "pending"
	default:
		return fmt.Errorf("unhandled transaction status %q for order %s", n.TransactionStatus, n.OrderID)
	}

	if order.Status == status {
		return nil
	}
	updates["status"] = status

	if err := s.rp.Order.UpdateStatus(s.ctx, n.OrderID, updates); err != nil {
		return fmt.Errorf("failed to apply notification to order %s: %w", n.OrderID, err)
	}

	s.publishUpdate(types.OrderUpdate{
		OrderID:       order.OrderID,
		AccountID:     order.AccountID,
		Status:        status,
		GrossAmount:   order.GrossAmount,
		TransactionID: n.TransactionID,
		OccurredAt:    time.Now(),
	})
	return nil
}
