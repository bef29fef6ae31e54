package usecase

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/pkg/errors"
)

type AttachmentUseCase struct {
	storage  AttachmentStorage
	chatRepo repository.ChatRepository
}

// NewAttachmentUseCase accepts a nil storage when no bucket is configured.
func NewAttachmentUseCase(storage AttachmentStorage, chatRepo repository.ChatRepository) *AttachmentUseCase {
	return &AttachmentUseCase{
		storage:  storage,
		chatRepo: chatRepo,
	}
}

type RequestUploadInput struct {
	RoomID      string
	FileName    string
	ContentType string
	Size        int64
}

func (uc *AttachmentUseCase) RequestUpload(ctx context.Context, input RequestUploadInput) (*entity.UploadTicket, error) {
	if uc.storage == nil {
		return nil, errors.New("NOT_CONFIGURED", "Attachments are not enabled", http.StatusNotImplemented, nil)
	}
	if input.Size <= 0 || input.Size > entity.MaxAttachmentSize {
		return nil, errors.BadRequest(fmt.Sprintf("Attachment size must be between 1 and %d bytes", entity.MaxAttachmentSize), nil)
	}

	exists, err := uc.chatRepo.RoomExists(ctx, input.RoomID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("Chat", nil)
	}

	ticket, err := uc.storage.GenerateSignedUploadURL(ctx, input.RoomID, input.FileName, input.ContentType)
	if err != nil {
		log.Printf("RequestUpload Error: room %s: %v", input.RoomID, err)
		return nil, errors.BadRequest("Cannot accept this attachment", err)
	}
	return ticket, nil
}
