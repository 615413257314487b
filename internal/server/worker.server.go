package serverApp

import (
	"context"
	"fmt"
	"time"

	"go-checkout/internal/common/enum"
	types "go-checkout/internal/common/type"
	"go-checkout/internal/pkg/logger"
	"go-checkout/internal/pkg/rabbitmq"
	authService "go-checkout/internal/service/auth"
	broadcastService "go-checkout/internal/service/broadcast"
	notifyService "go-checkout/internal/service/notify"

	"github.com/panjf2000/ants"
)

// InitWorker starts the queue consumers: the code-delivery dispatcher and the
// order-update fan-in feeding the dashboard stream.
func InitWorker(
	ctx context.Context,
	rb *rabbitmq.ConnectionManager,
	hub broadcastService.IHub,
) {
	poolOpts := ants.Options{
		ExpiryDuration: time.Hour,
		PreAlloc:       true,
		Nonblocking:    true,
		PanicHandler: func(i interface{}) {
			logger.Error.Printf("Worker panic: %v\n", i)
		},
	}

	pool, err := ants.NewPool(100, ants.WithOptions(poolOpts))
	if err != nil {
		panic(fmt.Errorf("failed to create worker pool: %w", err))
	}

	dispatcher := notifyService.NewDispatcher(map[enum.ChannelEnum]notifyService.Sender{
		enum.SMS:   &notifyService.LogSender{Channel: enum.SMS},
		enum.EMAIL: &notifyService.LogSender{Channel: enum.EMAIL},
	})

	err = pool.Submit(func() {
		sub, err := rabbitmq.NewSubscriber(ctx, rb, dispatcher.HandleDelivery, rabbitmq.DefaultSubscribeOptions(authService.DispatchQueue))
		if err != nil {
			logger.Error.Printf("Failed to create dispatch subscriber: %v\n", err)
			return
		}
		if err := sub.Start(); err != nil {
			logger.Error.Printf("Dispatch subscriber stopped: %v\n", err)
		}
	})
	if err != nil {
		panic(fmt.Errorf("failed to submit task to pool: %w", err))
	}

	err = pool.Submit(func() {
		sub, err := rabbitmq.NewSubscriber(ctx, rb, hub.HandleDelivery, rabbitmq.DefaultSubscribeOptions(types.OrderUpdatesQueue))
		if err != nil {
			logger.Error.Printf("Failed to create order-updates subscriber: %v\n", err)
			return
		}
		if err := sub.Start(); err != nil {
			logger.Error.Printf("Order-updates subscriber stopped: %v\n", err)
		}
	})
	if err != nil {
		panic(fmt.Errorf("failed to submit task to pool: %w", err))
	}
}
