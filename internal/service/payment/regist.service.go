package payment

import (
	"context"
	"errors"

	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/rabbitmq"
	s3aws "go-checkout/internal/pkg/storage/s3"
	"go-checkout/internal/repository"

	"github.com/midtrans/midtrans-go/coreapi"
)

var (
	// ErrDuplicateCard is returned when a freshly tokenized card matches a card
	// already on file. The backend is never called in that case.
	ErrDuplicateCard = errors.New("card already on file")
	// ErrCardNotFound is returned when a charge names a card the account does not hold.
	ErrCardNotFound = errors.New("saved card not found")
)

// gateway is the slice of the payment provider the service needs. The idempotency
// key travels with every charge so the provider can deduplicate retries.
type gateway interface {
	Charge(req *coreapi.ChargeReq, idempotencyKey string) (*coreapi.ChargeResponse, error)
}

type notifier interface {
	Publish(queueName string, msg *rabbitmq.Message) error
}

type Service struct {
	ctx     context.Context
	rp      repository.IRepository
	gateway gateway
	storage s3aws.Is3
	pub     notifier
}

type IService interface {
	ListSavedCards(accountID string) ([]types.SavedCard, error)
	RegisterCard(accountID, token string, meta types.CardMetadata) (*types.SavedCard, error)
	Charge(req *ChargeRequest) (*ChargeResult, error)
	ApplyNotification(n *GatewayNotification) error
}

func NewService(ctx context.Context, rp repository.IRepository, gw gateway, storage s3aws.Is3, pub notifier) IService {
	return &Service{
		ctx:     ctx,
		rp:      rp,
		gateway: gw,
		storage: storage,
		pub:     pub,
	}
}

// ChargeRequest describes one billable attempt. The idempotency key is generated
// when the attempt is first made and reused verbatim on client-side retries.
type ChargeRequest struct {
	AccountID      string           `json:"account_id"`
	CardID         string           `json:"card_id"`
	Vertical       string           `json:"vertical"`
	PlanID         string           `json:"plan_id"`
	Lines          []types.CartLine `json:"lines"`
	GrossAmount    int64            `json:"gross_amount"`
	IdempotencyKey string           `json:"idempotency_key"`
}

// GatewayNotification is the relevant slice of an asynchronous payment gateway
// callback, already signature-verified by the transport layer.
type GatewayNotification struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	PaymentType       string `json:"payment_type"`
}

type ChargeResult struct {
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	GrossAmount   int64  `json:"gross_amount"`
	ReceiptKey    string `json:"receipt_key,omitempty"`
}
