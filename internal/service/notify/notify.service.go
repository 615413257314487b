package notify

import (
	"encoding/json"
	"fmt"
	"strings"

	"go-checkout/internal/common/enum"
	"go-checkout/internal/pkg/logger"
	authService "go-checkout/internal/service/auth"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Sender pushes a one-time code to a destination over a single channel.
// Implementations wrap the actual SMS or email provider.
type Sender interface {
	Send(destination, body string) error
}

type Dispatcher struct {
	senders map[enum.ChannelEnum]Sender
}

type IDispatcher interface {
	HandleDelivery(msg *amqp.Delivery) error
}

func NewDispatcher(senders map[enum.ChannelEnum]Sender) IDispatcher {
	return &Dispatcher{senders: senders}
}

// HandleDelivery is the queue handler wired into the dispatch subscriber.
// An unknown channel is a permanent failure and must not be retried.
func (d *Dispatcher) HandleDelivery(msg *amqp.Delivery) error {
	var payload authService.DispatchPayload
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		return fmt.Errorf("failed to decode dispatch payload: %w", err)
	}

	sender, ok := d.senders[payload.Channel]
	if !ok {
		logger.Error.Printf("No sender registered for channel %s, dropping code for flow %s", payload.Channel, payload.FlowID)
		return nil
	}

	body := fmt.Sprintf("Your verification code is %s. It expires in 10 minutes.", payload.Code)
	if err := sender.Send(payload.Destination, body); err != nil {
		return fmt.Errorf("failed to deliver code via %s: %w", payload.Channel, err)
	}

	logger.Info.Printf("Delivered verification code to %s via %s", maskDestination(payload.Destination), payload.Channel)
	return nil
}

// LogSender writes the code delivery to the application log instead of an
// external provider. Used in local and development environments.
type LogSender struct {
	Channel enum.ChannelEnum
}

func (s *LogSender) Send(destination, body string) error {
	logger.Info.Printf("[%s] to %s: %s", s.Channel, maskDestination(destination), body)
	return nil
}

func maskDestination(destination string) string {
	if at := strings.Index(destination, "@"); at > 0 {
		shown := 1
		if at > 2 {
			shown = 2
		}
		return destination[:shown] + "***" + destination[at:]
	}
	if len(destination) > 4 {
		return "***" + destination[len(destination)-4:]
	}
	return "***"
}
