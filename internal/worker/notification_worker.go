package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/realtime"
	"github.com/spec-kit/support-desk/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartRealtimeRelay runs relay in the background until ctx is cancelled.
// The returned channel is closed once the relay has stopped.
func StartRealtimeRelay(ctx context.Context, relay *realtime.Relay, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if relay == nil {
		close(done)
		return done
	}
	go func() {
		defer close(done)
		logger.Info("realtime relay started")
		if err := relay.Run(ctx); err != nil {
			logger.Error("realtime relay stopped", zap.Error(err))
			return
		}
		logger.Info("realtime relay stopped")
	}()
	return done
}
