// Package amqp publishes notification events to RabbitMQ. A nil
// *Client is a valid no-op publisher, so the API server and worker
// run fine without a broker configured.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"fintrack/internal/core"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	// Topic exchange so consumers can bind bill.* or goal.* separately
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// The default queue receives every notification
	err = c.channel.QueueBind(c.queueName, "#", c.exchangeName, false, nil)
	if err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishBillReminder emits a reminder for a bill inside its reminder
// window. Overdue bills go out under their own routing key.
func (c *Client) PublishBillReminder(ctx context.Context, bill core.Bill, daysUntilDue int) error {
	if c == nil {
		return nil
	}
	overdue := daysUntilDue < 0
	route := RouteBillReminder
	if overdue {
		route = RouteBillOverdue
	}
	msg := BillReminderMessage{
		BillID:       bill.ID,
		OwnerID:      bill.OwnerID,
		Name:         bill.Name,
		AmountCents:  bill.Amount.Cents,
		DueDate:      bill.NextDueDate,
		DaysUntilDue: daysUntilDue,
		Overdue:      overdue,
		Timestamp:    time.Now(),
	}
	return c.publish(ctx, route, msg)
}

// PublishGoalMilestone emits a milestone-crossed notification.
func (c *Client) PublishGoalMilestone(ctx context.Context, goal core.Goal, milestone core.Milestone) error {
	if c == nil {
		return nil
	}
	msg := GoalMilestoneMessage{
		GoalID:             goal.ID,
		OwnerID:            goal.OwnerID,
		GoalName:           goal.Name,
		MilestoneName:      milestone.Name,
		MilestoneCents:     milestone.TargetAmount.Cents,
		CurrentAmountCents: goal.CurrentAmount.Cents,
		Timestamp:          time.Now(),
	}
	return c.publish(ctx, RouteGoalMilestone, msg)
}

// PublishGoalCompleted emits a goal-reached notification.
func (c *Client) PublishGoalCompleted(ctx context.Context, goal core.Goal) error {
	if c == nil {
		return nil
	}
	msg := GoalCompletedMessage{
		GoalID:            goal.ID,
		OwnerID:           goal.OwnerID,
		GoalName:          goal.Name,
		TargetAmountCents: goal.TargetAmount.Cents,
		Timestamp:         time.Now(),
	}
	return c.publish(ctx, RouteGoalCompleted, msg)
}

func (c *Client) publish(ctx context.Context, route string, msg any) error {
	body, err := toJSON(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		route,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	slog.InfoContext(ctx, "Published notification",
		"route", route,
		"exchange", c.exchangeName)
	return nil
}

func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
