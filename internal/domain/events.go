package domain

import (
	"context"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/Vovarama1992/mediashelf/internal/ports"
)

const publishTimeout = 5 * time.Second

// Dispatch hands every event from src to each sink in order until ctx is done
// or src is closed. A failing sink is logged and does not hold up the others.
func Dispatch(ctx context.Context, src <-chan ports.MediaEvent, log *logger.ZapLogger, sinks ...ports.EventPublisher) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-src:
			if !ok {
				return
			}
			for _, sink := range sinks {
				pctx, cancel := context.WithTimeout(ctx, publishTimeout)
				err := sink.Publish(pctx, ev)
				cancel()
				if err != nil {
					log.Log(logger.LogEntry{
						Level:   "warn",
						Message: "event publish failed",
						Error:   err,
						Fields:  map[string]any{"kind": ev.Kind, "mediaID": ev.Media.ID},
					})
				}
			}
		}
	}
}
