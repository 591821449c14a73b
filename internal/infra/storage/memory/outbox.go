package memory

import (
	"context"
	"sync"

	appoutbox "peppertree/internal/app/outbox"
)

// Publisher pushes one record to the broker during Flush.
type Publisher func(ctx context.Context, record appoutbox.EventRecord) error

// Outbox keeps event records in memory until flushed. Without a publisher
// Flush simply drops them, which is how the dev setup runs without Kafka.
type Outbox struct {
	mu      sync.Mutex
	records []appoutbox.EventRecord
	publish Publisher
}

func NewOutbox(publish Publisher) *Outbox {
	return &Outbox{publish: publish}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	pending := o.records
	o.records = nil
	o.mu.Unlock()

	if o.publish == nil {
		return nil
	}
	for i, rec := range pending {
		if err := o.publish(ctx, rec); err != nil {
			// Requeue what did not make it so the next flush retries.
			o.mu.Lock()
			o.records = append(pending[i:], o.records...)
			o.mu.Unlock()
			return err
		}
	}
	return nil
}

// Pending returns a snapshot of unflushed records; used in tests.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]appoutbox.EventRecord, len(o.records))
	copy(out, o.records)
	return out
}

var _ appoutbox.Outbox = (*Outbox)(nil)
