package usecase

import (
	"context"

	"portfoliochat/internal/domain/entity"
)

// FirebaseAuthClient verifies admin ID tokens.
type FirebaseAuthClient interface {
	VerifyToken(ctx context.Context, token string) (uid string, claims map[string]interface{}, err error)
}

// AdminNotifier pushes a new visitor message to the admin devices.
type AdminNotifier interface {
	NotifyNewMessage(ctx context.Context, room *entity.ChatRoom, msg *entity.ChatMessage) error
}

// AttachmentStorage issues direct upload URLs for message attachments.
type AttachmentStorage interface {
	GenerateSignedUploadURL(ctx context.Context, roomID, fileName, contentType string) (*entity.UploadTicket, error)
}
