package analytics

import (
	"context"
	"errors"
	"log/slog"

	"github.com/surojit-ghosh/url-shortener/internal/model"
	"github.com/surojit-ghosh/url-shortener/internal/repository"
)

// ClickWriter is the subset of the click repository the recorder needs.
type ClickWriter interface {
	Create(ctx context.Context, click *model.Click) error
}

// LinkResolver re-resolves a key to its link at write time.
type LinkResolver interface {
	GetByKey(ctx context.Context, key string) (*model.Link, error)
}

// Recorder turns click events into click rows. Both the queue consumer
// and the internal track endpoint converge here.
type Recorder struct {
	links  LinkResolver
	clicks ClickWriter
	logger *slog.Logger
}

// NewRecorder creates a click recorder
func NewRecorder(links LinkResolver, clicks ClickWriter, logger *slog.Logger) *Recorder {
	return &Recorder{links: links, clicks: clicks, logger: logger}
}

// Record persists one click. If the link disappeared between redirect
// and record, the event is dropped, not retried — clicks are
// best-effort by contract. Store failures are returned so the consumer
// can requeue.
func (r *Recorder) Record(ctx context.Context, ev ClickEvent) error {
	link, err := r.links.GetByKey(ctx, ev.Key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.logger.Debug("dropping click for vanished link", slog.String("key", ev.Key))
			return nil
		}
		return err
	}

	click := &model.Click{
		LinkID:      link.ID,
		TargetURL:   ev.TargetURL,
		ClientIP:    ev.ClientIP,
		UserAgent:   ev.UserAgent,
		CountryCode: ev.CountryCode,
		DeviceType:  ev.DeviceType,
		Referer:     ev.Referer,
	}
	return r.clicks.Create(ctx, click)
}
