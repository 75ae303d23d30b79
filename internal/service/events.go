package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/curepoint/pharmacy/internal/models"
	"github.com/google/uuid"
)

const (
	TopicOrderEvents    = "order_events"
	TopicMedicineEvents = "medicine_events"
)

const publishTimeout = 5 * time.Second

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// MedicineIndex is the search side of the catalog. Search yields ids only;
// rows and prices always come from the database.
type MedicineIndex interface {
	Search(ctx context.Context, query string, from, size int) (int64, []uint, error)
	Index(ctx context.Context, m models.Medicine) error
	IndexAll(ctx context.Context, meds []models.Medicine) error
	Delete(ctx context.Context, id uint) error
}

// publish is best effort: a failed event is logged and never reaches the caller.
func publish(ctx context.Context, p Publisher, l *slog.Logger, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	event["event_id"] = uuid.NewString()
	event["occurred_at"] = time.Now().UTC()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		l.Error("kafka_publish_error", "topic", topic, "type", event["type"], "error", err)
	}
}
