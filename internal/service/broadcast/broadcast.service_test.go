package broadcast

import (
	"encoding/json"
	"testing"
	"time"

	types "go-checkout/internal/common/type"

	amqp "github.com/rabbitmq/amqp091-go"
)

func update(orderID string) types.OrderUpdate {
	return types.OrderUpdate{
		OrderID:     orderID,
		AccountID:   "acc-1",
		Status:      "paid",
		GrossAmount: 4500,
		OccurredAt:  time.Now(),
	}
}

func TestPublishFansOutToAllClients(t *testing.T) {
	hub := NewHub()
	a := hub.Subscribe("client-a")
	b := hub.Subscribe("client-b")

	hub.Publish(update("ord-1"))

	for name, ch := range map[string]<-chan types.OrderUpdate{"a": a, "b": b} {
		select {
		case got := <-ch:
			if got.OrderID != "ord-1" {
				t.Errorf("client %s got order %q", name, got.OrderID)
			}
		default:
			t.Errorf("client %s received nothing", name)
		}
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("client-a")
	hub.Unsubscribe("client-a")

	if _, open := <-ch; open {
		t.Error("channel must be closed on unsubscribe")
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}

	// publishing to an empty hub must not panic
	hub.Publish(update("ord-2"))
}

func TestSlowClientDoesNotBlock(t *testing.T) {
	hub := NewHub()
	hub.Subscribe("slow")

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			hub.Publish(update("ord-flood"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow client")
	}
}

func TestHandleDelivery(t *testing.T) {
	hub := NewHub()
	ch := hub.Subscribe("client-a")

	body, _ := json.Marshal(update("ord-3"))
	if err := hub.HandleDelivery(&amqp.Delivery{Body: body}); err != nil {
		t.Fatalf("HandleDelivery returned error: %v", err)
	}

	select {
	case got := <-ch:
		if got.OrderID != "ord-3" {
			t.Errorf("got order %q, want ord-3", got.OrderID)
		}
	default:
		t.Fatal("update was not fanned out")
	}
}

func TestHandleDeliveryMalformed(t *testing.T) {
	hub := NewHub()

	if err := hub.HandleDelivery(&amqp.Delivery{Body: []byte("{not json")}); err == nil {
		t.Error("malformed body must return an error")
	}
	if err := hub.HandleDelivery(&amqp.Delivery{Body: []byte(`{"status":"paid"}`)}); err == nil {
		t.Error("update without order id must return an error")
	}
}
