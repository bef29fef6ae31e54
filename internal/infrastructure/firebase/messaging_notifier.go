package firebase

import (
	"context"
	"fmt"
	"unicode/utf8"

	"firebase.google.com/go/v4/messaging"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/pkg/logger"
)

const previewLength = 100

// MessagingNotifier pushes new visitor messages to every registered admin
// device through Firebase Cloud Messaging.
type MessagingNotifier struct {
	client    *messaging.Client
	adminRepo repository.AdminRepository
}

func NewMessagingNotifier(client *messaging.Client, adminRepo repository.AdminRepository) *MessagingNotifier {
	return &MessagingNotifier{
		client:    client,
		adminRepo: adminRepo,
	}
}

func (n *MessagingNotifier) NotifyNewMessage(ctx context.Context, room *entity.ChatRoom, msg *entity.ChatMessage) error {
	devices, err := n.adminRepo.ListDevices(ctx)
	if err != nil {
		return err
	}

	tokens := make([]string, 0, len(devices))
	for _, d := range devices {
		if d.FCMToken != "" {
			tokens = append(tokens, d.FCMToken)
		}
	}
	if len(tokens) == 0 {
		logger.Debug("No admin devices to notify for room %s", room.ID)
		return nil
	}

	resp, err := n.client.SendEachForMulticast(ctx, BuildNewMessageNotification(tokens, room, msg))
	if err != nil {
		return fmt.Errorf("send push notification: %w", err)
	}

	for i, r := range resp.Responses {
		if r.Success {
			continue
		}
		if messaging.IsRegistrationTokenNotRegistered(r.Error) {
			logger.Warn("Admin device token %d is no longer registered", i)
			continue
		}
		logger.Warn("Push to admin device %d failed: %v", i, r.Error)
	}
	logger.Info("Notified %d/%d admin devices about room %s", resp.SuccessCount, len(tokens), room.ID)
	return nil
}

// BuildNewMessageNotification is the multicast sent for one visitor message.
func BuildNewMessageNotification(tokens []string, room *entity.ChatRoom, msg *entity.ChatMessage) *messaging.MulticastMessage {
	body := msg.Content.Preview()
	if utf8.RuneCountInString(body) > previewLength {
		body = string([]rune(body)[:previewLength]) + "…"
	}

	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: "New message from a visitor",
			Body:  body,
		},
		Data: map[string]string{
			"type":      "chat_message",
			"chatId":    room.ID,
			"visitorId": room.VisitorID,
			"messageId": msg.ID,
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "chat",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Sound: "default",
				},
			},
		},
	}
}
