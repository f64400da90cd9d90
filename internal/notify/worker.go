package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/smartpetcare/feeder-backend/internal/email"
	"github.com/smartpetcare/feeder-backend/internal/push"
)

// Worker consumes notification jobs and drives the delivery providers.
// Failed jobs are dead-lettered rather than requeued.
type Worker struct {
	conn          *Connection
	channel       *amqp.Channel
	queue         string
	dlqQueue      string
	exchange      string
	routingKey    string
	prefetchCount int
	dispatcher    *push.Dispatcher
	sender        email.Sender
	logger        *zap.Logger
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	Connection    *Connection
	Queue         string
	DLQQueue      string
	Exchange      string
	RoutingKey    string
	PrefetchCount int
	Dispatcher    *push.Dispatcher
	Sender        email.Sender
	Logger        *zap.Logger
}

// NewWorker creates a new notification worker
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	ch, err := cfg.Connection.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	// Set QoS (prefetch)
	err = ch.Qos(cfg.PrefetchCount, 0, false)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	// Declare exchange
	err = ch.ExchangeDeclare(
		cfg.Exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	// Declare main queue with dead-lettering to the DLQ
	args := map[string]interface{}{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": cfg.DLQQueue,
	}
	_, err = ch.QueueDeclare(
		cfg.Queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		args,
	)
	if err != nil {
		// If queue already exists with different args, try without DLX
		cfg.Logger.Warn("failed to declare queue with DLX, trying without DLX",
			zap.Error(err))
		_, err = ch.QueueDeclare(
			cfg.Queue,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // no arguments
		)
		if err != nil {
			ch.Close()
			return nil, fmt.Errorf("failed to declare queue: %w", err)
		}
	}

	// Declare DLQ
	_, err = ch.QueueDeclare(
		cfg.DLQQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare DLQ: %w", err)
	}

	// Bind queue to exchange
	err = ch.QueueBind(
		cfg.Queue,
		cfg.RoutingKey,
		cfg.Exchange,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &Worker{
		conn:          cfg.Connection,
		channel:       ch,
		queue:         cfg.Queue,
		dlqQueue:      cfg.DLQQueue,
		exchange:      cfg.Exchange,
		routingKey:    cfg.RoutingKey,
		prefetchCount: cfg.PrefetchCount,
		dispatcher:    cfg.Dispatcher,
		sender:        cfg.Sender,
		logger:        cfg.Logger,
	}, nil
}

// Start starts consuming jobs
func (w *Worker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(
		w.queue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("notification worker started",
		zap.String("queue", w.queue),
		zap.Int("prefetch", w.prefetchCount),
	)

	go func() {
		for {
			select {
			case <-ctx.Done():
				w.logger.Info("notification worker context cancelled, stopping")
				return
			case msg, ok := <-msgs:
				if !ok {
					w.logger.Warn("job channel closed")
					return
				}
				w.processJob(ctx, msg)
			}
		}
	}()

	return nil
}

func (w *Worker) processJob(ctx context.Context, msg amqp.Delivery) {
	err := w.handleJob(ctx, msg.Body)
	if err != nil {
		w.logger.Error("failed to process notification job",
			zap.Error(err),
		)

		// NACK with requeue=false sends to DLQ
		if nackErr := msg.Nack(false, false); nackErr != nil {
			w.logger.Error("failed to NACK job", zap.Error(nackErr))
		}
		return
	}

	if ackErr := msg.Ack(false); ackErr != nil {
		w.logger.Error("failed to ACK job", zap.Error(ackErr))
	}
}

func (w *Worker) handleJob(ctx context.Context, body []byte) error {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	switch job.Kind {
	case JobKindPush:
		if job.Push == nil {
			return fmt.Errorf("push job without payload")
		}
		// Partial failures are the dispatcher's to count and log; the job
		// itself succeeded once every batch was attempted.
		w.dispatcher.Send(ctx, job.Push.Tokens, job.Push.Title, job.Push.Body)
		return nil
	case JobKindEmail:
		if job.Email == nil {
			return fmt.Errorf("email job without payload")
		}
		if err := w.sender.Send(ctx, job.Email.To, job.Email.Subject, job.Email.HTML); err != nil {
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

// Close closes the worker channel
func (w *Worker) Close() error {
	if w.channel != nil {
		return w.channel.Close()
	}
	return nil
}
