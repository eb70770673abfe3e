package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/textweave/notifier/pkg/model"
)

// Notifier hands one rendering job to the delivery collaborator. An error
// means this recipient's job was not taken; the caller records the failure
// and keeps going. Retry, if any, is the collaborator's business.
type Notifier interface {
	Notify(ctx context.Context, message *model.OutboundMessage) error
}

type MemoryNotifier struct {
	mu    sync.Mutex
	queue []model.OutboundMessage
}

var _ Notifier = &MemoryNotifier{}

func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{
		queue: make([]model.OutboundMessage, 0),
	}
}

func (m *MemoryNotifier) Notify(ctx context.Context, message *model.OutboundMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, *message)
	log.Info("Queued message",
		zap.String("user_id", message.UserID),
		zap.String("notification", message.Notification),
		zap.String("subject", message.Subject))
	return nil
}

// Messages returns a copy of everything queued so far.
func (m *MemoryNotifier) Messages() []model.OutboundMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.OutboundMessage(nil), m.queue...)
}

// WebhookNotifier POSTs each job as JSON to the renderer+mailer
// collaborator's endpoint. A non-2xx response is a delivery failure.
type WebhookNotifier struct {
	endpoint string
	client   *http.Client
}

var _ Notifier = &WebhookNotifier{}

func NewWebhookNotifier(endpoint string) *WebhookNotifier {
	return &WebhookNotifier{
		endpoint: endpoint,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (w *WebhookNotifier) Notify(ctx context.Context, message *model.OutboundMessage) error {
	payload, err := json.Marshal(message)
	if err != nil {
		log.Error("Failed to marshal message", zap.Error(err))
		return err
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := w.client.Do(request)
	if err != nil {
		log.Error("Failed to deliver message", zap.String("endpoint", w.endpoint), zap.Error(err))
		return err
	}
	defer response.Body.Close()
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		log.Error("Delivery endpoint rejected message",
			zap.String("endpoint", w.endpoint),
			zap.Int("status", response.StatusCode))
		return fmt.Errorf("delivery endpoint returned %s", response.Status)
	}
	log.Info("Delivered message",
		zap.String("user_id", message.UserID),
		zap.String("notification", message.Notification))
	return nil
}
