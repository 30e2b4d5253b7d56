package worker

import (
	"github.com/spec-kit/hotel-ops/internal/service"
)

// StartNotificationWorker registers notification delivery handlers on the
// event dispatcher.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}
