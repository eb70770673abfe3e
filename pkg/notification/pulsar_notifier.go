package notification

import (
	"context"
	"encoding/json"

	"github.com/apache/pulsar-client-go/pulsar"
	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/textweave/notifier/pkg/model"
)

// PulsarNotifier publishes each job to a topic the delivery workers consume,
// keyed by recipient so one user's messages stay ordered.
type PulsarNotifier struct {
	producer pulsar.Producer
}

var _ Notifier = &PulsarNotifier{}

func NewPulsarNotifier(producer pulsar.Producer) *PulsarNotifier {
	return &PulsarNotifier{
		producer: producer,
	}
}

func (p *PulsarNotifier) Notify(ctx context.Context, message *model.OutboundMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		log.Error("Failed to marshal message", zap.Error(err))
		return err
	}
	// The per-event fanout is small, so sending synchronously keeps the
	// failure reporting per recipient simple. Batched async sends would need
	// to track which recipients' jobs failed.
	_, err = p.producer.Send(ctx, &pulsar.ProducerMessage{
		Key:     message.UserID,
		Payload: payload,
	})
	if err != nil {
		log.Error("Failed to send message", zap.Error(err))
		return err
	}
	log.Info("Published message",
		zap.String("user_id", message.UserID),
		zap.String("notification", message.Notification))
	return nil
}

// CreatePulsarProducer connects a Pulsar client and producer for the given
// topic. The returned client must be closed after the producer.
func CreatePulsarProducer(url string, topic string) (pulsar.Client, pulsar.Producer, error) {
	client, err := pulsar.NewClient(pulsar.ClientOptions{URL: url})
	if err != nil {
		log.Error("Failed to create pulsar client", zap.String("url", url), zap.Error(err))
		return nil, nil, err
	}
	producer, err := client.CreateProducer(pulsar.ProducerOptions{Topic: topic})
	if err != nil {
		log.Error("Failed to create pulsar producer", zap.String("topic", topic), zap.Error(err))
		client.Close()
		return nil, nil, err
	}
	return client, producer, nil
}
