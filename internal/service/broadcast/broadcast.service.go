package broadcast

import (
	"encoding/json"
	"fmt"
	"sync"

	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Hub fans order updates out to connected dashboard streams. It is fed by the
// order-updates queue and shares no state with the checkout flows that produce
// the updates.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]chan types.OrderUpdate
	// buffered per client; a slow consumer drops updates instead of blocking the hub
	clientBuffer int
}

type IHub interface {
	Subscribe(clientID string) <-chan types.OrderUpdate
	Unsubscribe(clientID string)
	Publish(update types.OrderUpdate)
	HandleDelivery(msg *amqp.Delivery) error
	ClientCount() int
}

func NewHub() IHub {
	return &Hub{
		clients:      map[string]chan types.OrderUpdate{},
		clientBuffer: 16,
	}
}

// Subscribe registers a dashboard client. An existing channel under the same id is
// replaced and closed.
func (h *Hub) Subscribe(clientID string) <-chan types.OrderUpdate {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[clientID]; ok {
		close(old)
	}
	ch := make(chan types.OrderUpdate, h.clientBuffer)
	h.clients[clientID] = ch
	return ch
}

func (h *Hub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.clients[clientID]; ok {
		close(ch)
		delete(h.clients, clientID)
	}
}

func (h *Hub) Publish(update types.OrderUpdate) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for clientID, ch := range h.clients {
		select {
		case ch <- update:
		default:
			logger.Warning.Printf("dropping order update %s for slow client %s", update.OrderID, clientID)
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleDelivery is the queue handler wired into the subscriber worker. A decode
// failure is permanent and routes to the dead letter queue rather than a retry.
func (h *Hub) HandleDelivery(msg *amqp.Delivery) error {
	var update types.OrderUpdate
	if err := json.Unmarshal(msg.Body, &update); err != nil {
		return fmt.Errorf("malformed order update: %w", err)
	}
	if update.OrderID == "" {
		return fmt.Errorf("order update without order id")
	}

	h.Publish(update)
	return nil
}
