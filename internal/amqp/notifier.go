package amqp

import (
	"context"

	"github.com/klokku/revenue/internal/event_bus"
	"github.com/klokku/revenue/internal/utils"
)

type Publisher interface {
	PublishReportReady(ctx context.Context, msg *ReportReadyMessage) error
}

// Subscribe announces every written report through publisher.
func Subscribe(bus *event_bus.EventBus, publisher Publisher, clock utils.Clock) (unsubscribe func()) {
	return event_bus.SubscribeTyped(bus, event_bus.ReportWrittenType, func(e event_bus.EventT[event_bus.ReportWritten]) error {
		return publisher.PublishReportReady(e.Context(), NewReportReadyMessage(e.Data, clock.Now()))
	})
}
