package usecase

import (
	"context"
	"log"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/pkg/errors"
)

// PresenceUseCase owns the typing flags and the open/closed status of a room.
type PresenceUseCase struct {
	chatRepo repository.ChatRepository
}

func NewPresenceUseCase(chatRepo repository.ChatRepository) *PresenceUseCase {
	return &PresenceUseCase{
		chatRepo: chatRepo,
	}
}

// SetTyping records whether party is typing. The flag has no server side
// expiry; the client clears it.
func (uc *PresenceUseCase) SetTyping(ctx context.Context, roomID string, party entity.Party, typing bool) error {
	exists, err := uc.chatRepo.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("Chat", nil)
	}

	if err := uc.chatRepo.SetTyping(ctx, roomID, party, typing); err != nil {
		log.Printf("SetTyping Error: room %s party %s: %v", roomID, party, err)
		return err
	}
	return nil
}

func (uc *PresenceUseCase) SetRoomStatus(ctx context.Context, roomID string, status entity.RoomStatus) error {
	if !status.Valid() {
		return errors.BadRequest("Status must be open or closed", nil)
	}

	exists, err := uc.chatRepo.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("Chat", nil)
	}

	return uc.chatRepo.SetStatus(ctx, roomID, status)
}

// SubscribeRoom delivers the room record, typing flags included, on every
// change.
func (uc *PresenceUseCase) SubscribeRoom(ctx context.Context, roomID string, fn repository.Listener[*entity.ChatRoom], onState repository.StateListener) (repository.Unsubscribe, error) {
	return uc.chatRepo.SubscribeRoom(ctx, roomID, fn, onState)
}
