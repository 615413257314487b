package midtrans

import (
	"fmt"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

type Config struct {
	ServerKey   string
	ClientKey   string
	Environment string // "sandbox" or "production"
}

type MidtransClient struct {
	CoreAPI   coreapi.Client
	ClientKey string
	ServerKey string
}

func Setup(cfg *Config) *MidtransClient {
	env := midtrans.Sandbox
	if cfg.Environment == "production" {
		env = midtrans.Production
	}

	var coreAPIClient coreapi.Client
	coreAPIClient.New(cfg.ServerKey, env)

	return &MidtransClient{
		CoreAPI:   coreAPIClient,
		ClientKey: cfg.ClientKey,
		ServerKey: cfg.ServerKey,
	}
}

// Charge runs a card charge with a per-request idempotency key. The client value is
// copied so concurrent charges never share a ConfigOptions.
func (m *MidtransClient) Charge(req *coreapi.ChargeReq, idempotencyKey string) (*coreapi.ChargeResponse, error) {
	client := m.CoreAPI
	client.Options = &midtrans.ConfigOptions{}
	client.Options.SetPaymentIdempotencyKey(idempotencyKey)

	resp, mErr := client.ChargeTransaction(req)
	if mErr != nil {
		return nil, fmt.Errorf("midtrans charge: %s", mErr.GetMessage())
	}
	return resp, nil
}
