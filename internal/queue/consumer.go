package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/facelog/pkg/dto"
)

// FaceLogHandler processes one event. A returned error naks the message.
type FaceLogHandler func(ctx context.Context, evt *dto.FaceLogEvent) error

type Consumer struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewConsumer(natsURL string) (*Consumer, error) {
	nc, js, err := connect(natsURL)
	if err != nil {
		return nil, err
	}
	return &Consumer{nc: nc, js: js}, nil
}

// ConsumeFaceLogs starts a durable consumer on the FACE_LOGS stream that only
// sees messages published after it was created. It returns once the fetch
// loop is running; the loop stops when ctx is cancelled.
func (c *Consumer) ConsumeFaceLogs(ctx context.Context, consumerName string, handler FaceLogHandler) error {
	stream, err := c.js.Stream(ctx, FaceLogsStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", FaceLogsStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       10 * time.Second,
		MaxDeliver:    3,
		FilterSubject: FaceLogsSubjectBase + ".>",
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("fetch face logs error", "error", err)
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				handleMessage(ctx, msg, handler)
			}
		}
	}()

	slog.Info("face log consumer started", "consumer", consumerName)
	return nil
}

// ackMsg is the part of jetstream.Msg handleMessage needs.
type ackMsg interface {
	Data() []byte
	Subject() string
	Ack() error
	Nak() error
	Term() error
}

func handleMessage(ctx context.Context, msg ackMsg, handler FaceLogHandler) {
	var evt dto.FaceLogEvent
	if err := json.Unmarshal(msg.Data(), &evt); err != nil {
		// Redelivery will not fix a bad payload.
		slog.Error("decode face log event", "error", err, "subject", msg.Subject())
		_ = msg.Term()
		return
	}

	if err := handler(ctx, &evt); err != nil {
		slog.Error("process face log event error", "error", err, "subject", msg.Subject())
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

func (c *Consumer) Close() {
	c.nc.Close()
}
