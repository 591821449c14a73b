package calendar

import (
	"context"

	"peppertree/internal/app/dto"
	"peppertree/internal/app/queries"
	"peppertree/internal/app/uow"
	"peppertree/internal/domain/calsync"
)

const (
	exportFeedKey = "calendar.export"
	feedInfoKey   = "calendar.info"
)

type ExportFeedQuery struct{}

func (q ExportFeedQuery) Key() string { return exportFeedKey }

type ExportFeedResult struct {
	Body       []byte
	EventCount int
}

// ExportFeedHandler renders the property's outbound iCal feed. Locally
// created confirmed bookings are published; imported bookings stay out so
// platforms never re-ingest their own events.
type ExportFeedHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ExportFeedHandler) Handle(ctx context.Context, q ExportFeedQuery) (*ExportFeedResult, error) {
	ctx, unit, release, _, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer release()

	bookings, err := unit.Bookings().FindExportable(ctx)
	if err != nil {
		return nil, err
	}
	return &ExportFeedResult{
		Body:       calsync.BuildFeed(bookings),
		EventCount: len(bookings),
	}, nil
}

type FeedInfoQuery struct {
	BaseURL string
}

func (q FeedInfoQuery) Key() string { return feedInfoKey }

type FeedInfoHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *FeedInfoHandler) Handle(ctx context.Context, q FeedInfoQuery) (dto.FeedInfo, error) {
	ctx, unit, release, _, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.FeedInfo{}, err
	}
	defer release()

	bookings, err := unit.Bookings().FindExportable(ctx)
	if err != nil {
		return dto.FeedInfo{}, err
	}
	return dto.FeedInfo{
		FeedURL:     q.BaseURL + "/api/ical/bookings.ics",
		Name:        calsync.CalendarName(),
		Timezone:    calsync.CalendarTimezone(),
		EventCount:  len(bookings),
		ContentType: "text/calendar; charset=utf-8",
	}, nil
}

var _ queries.Handler[ExportFeedQuery, *ExportFeedResult] = (*ExportFeedHandler)(nil)
var _ queries.Handler[FeedInfoQuery, dto.FeedInfo] = (*FeedInfoHandler)(nil)
