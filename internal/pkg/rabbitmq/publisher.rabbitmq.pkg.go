package rabbitmq

import (
	"context"
	"fmt"
)

// Publisher publishes messages to named queues over a managed channel.
type Publisher struct {
	cm  *ChannelManager
	ctx context.Context
}

func NewPublisher(ctx context.Context, connManager *ConnectionManager) (*Publisher, error) {
	if connManager == nil {
		return nil, fmt.Errorf("connection manager is required")
	}
	return &Publisher{
		cm:  NewChannelManager(ctx, connManager),
		ctx: ctx,
	}, nil
}

// Publish declares the queue (durable) and publishes the message to it.
func (p *Publisher) Publish(queueName string, msg *Message) error {
	ch, err := p.cm.GetChannel()
	if err != nil || ch == nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	queueConfig := DefaultQueueConfig()
	_, err = ch.QueueDeclare(
		queueName,
		queueConfig.Durable,
		queueConfig.AutoDelete,
		queueConfig.Exclusive,
		queueConfig.NoWait,
		queueConfig.Args,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}

	err = ch.PublishWithContext(
		p.ctx,
		"",
		queueName,
		false,
		false,
		*msg.GeneratePayload(),
	)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", queueName, err)
	}

	return nil
}

func (p *Publisher) Close() error {
	return p.cm.Close()
}
