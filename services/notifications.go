package services

import (
	"fmt"
	"log"

	"github.com/Deepraj916/Krishimitra-app/models"
	"github.com/Deepraj916/Krishimitra-app/storage"
	"github.com/Deepraj916/Krishimitra-app/utils"
)

// NotificationService delivers email notifications for marketplace events.
// Callers fire it from a goroutine; failures are logged, never surfaced.
type NotificationService struct{}

func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// SendMessageNotification emails the receiving participant of a conversation
// when a new message arrives.
func (ns *NotificationService) SendMessageNotification(receiverID uint, senderEmail string, productName string) error {
	var receiver models.User
	if err := storage.DB.First(&receiver, receiverID).Error; err != nil {
		log.Printf("notification: receiver %d not found: %v", receiverID, err)
		return err
	}

	subject := "New message on Krishimitra"
	html := fmt.Sprintf(`
	<p>You have a new message from <b>%s</b> about <b>%s</b>.</p>
	<p>Log in to Krishimitra to reply.</p>`, senderEmail, productName)

	sent, err := utils.SendMail(receiver.Email, subject, html)
	if err != nil {
		log.Printf("notification: failed to email user %d: %v", receiverID, err)
		return err
	}
	if !sent {
		log.Printf("notification: email to user %d not sent (missing mail config)", receiverID)
	}
	return nil
}
