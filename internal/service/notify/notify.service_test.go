package notify

import (
	"encoding/json"
	"errors"
	"testing"

	"go-checkout/internal/common/enum"
	authService "go-checkout/internal/service/auth"

	amqp "github.com/rabbitmq/amqp091-go"
)

type recordingSender struct {
	destinations []string
	bodies       []string
	err          error
}

func (s *recordingSender) Send(destination, body string) error {
	if s.err != nil {
		return s.err
	}
	s.destinations = append(s.destinations, destination)
	s.bodies = append(s.bodies, body)
	return nil
}

func delivery(t *testing.T, payload authService.DispatchPayload) *amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return &amqp.Delivery{Body: body}
}

func TestHandleDeliveryRoutesByChannel(t *testing.T) {
	sms := &recordingSender{}
	email := &recordingSender{}
	d := NewDispatcher(map[enum.ChannelEnum]Sender{
		enum.SMS:   sms,
		enum.EMAIL: email,
	})

	err := d.HandleDelivery(delivery(t, authService.DispatchPayload{
		Channel:     enum.SMS,
		Destination: "+15551234567",
		Code:        "123456",
		FlowID:      "flow-1",
	}))
	if err != nil {
		t.Fatalf("HandleDelivery: %v", err)
	}

	if len(sms.destinations) != 1 || sms.destinations[0] != "+15551234567" {
		t.Fatalf("sms sender got %v", sms.destinations)
	}
	if len(email.destinations) != 0 {
		t.Fatalf("email sender should not be used, got %v", email.destinations)
	}
}

func TestHandleDeliverySenderFailureIsRetryable(t *testing.T) {
	sms := &recordingSender{err: errors.New("provider down")}
	d := NewDispatcher(map[enum.ChannelEnum]Sender{enum.SMS: sms})

	err := d.HandleDelivery(delivery(t, authService.DispatchPayload{
		Channel:     enum.SMS,
		Destination: "+15551234567",
		Code:        "123456",
	}))
	if err == nil {
		t.Fatal("expected an error when the sender fails")
	}
}

func TestHandleDeliveryUnknownChannelIsDropped(t *testing.T) {
	d := NewDispatcher(map[enum.ChannelEnum]Sender{})

	err := d.HandleDelivery(delivery(t, authService.DispatchPayload{
		Channel:     enum.EMAIL,
		Destination: "a@b.test",
		Code:        "123456",
	}))
	if err != nil {
		t.Fatalf("unknown channel should be dropped without error, got %v", err)
	}
}

func TestHandleDeliveryMalformedBody(t *testing.T) {
	d := NewDispatcher(map[enum.ChannelEnum]Sender{})

	if err := d.HandleDelivery(&amqp.Delivery{Body: []byte("{")}); err == nil {
		t.Fatal("expected a decode error")
	}
}

func TestMaskDestination(t *testing.T) {
	cases := map[string]string{
		"+15551234567":     "***4567",
		"someone@mail.com": "so***@mail.com",
		"a@b.co":           "a***@b.co",
		"123":              "***",
	}
	for in, want := range cases {
		if got := maskDestination(in); got != want {
			t.Errorf("maskDestination(%q) = %q, want %q", in, got, want)
		}
	}
}
