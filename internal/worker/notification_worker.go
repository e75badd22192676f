package worker

import (
	"github.com/spec-kit/loan-service/internal/events"
	"github.com/spec-kit/loan-service/internal/service"
)

// StartNotificationWorker subscribes the notification service to the
// dispatcher.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService) {
	if notificationService == nil || dispatcher == nil {
		return
	}
	notificationService.Register(dispatcher)
}
