package handler

import (
	"context"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/internal/usecase"
)

// LiveChatService exposes the chat use cases to the WebSocket hub.
type LiveChatService struct {
	chatUseCase     *usecase.ChatUseCase
	presenceUseCase *usecase.PresenceUseCase
	roomListUseCase *usecase.RoomListUseCase
}

func NewLiveChatService(chatUseCase *usecase.ChatUseCase, presenceUseCase *usecase.PresenceUseCase, roomListUseCase *usecase.RoomListUseCase) *LiveChatService {
	return &LiveChatService{
		chatUseCase:     chatUseCase,
		presenceUseCase: presenceUseCase,
		roomListUseCase: roomListUseCase,
	}
}

func (s *LiveChatService) SubscribeMessages(ctx context.Context, roomID string, fn repository.Listener[[]*entity.ChatMessage], onState repository.StateListener) (repository.Unsubscribe, error) {
	return s.chatUseCase.SubscribeMessages(ctx, roomID, fn, onState)
}

func (s *LiveChatService) SubscribeRoom(ctx context.Context, roomID string, fn repository.Listener[*entity.ChatRoom], onState repository.StateListener) (repository.Unsubscribe, error) {
	return s.presenceUseCase.SubscribeRoom(ctx, roomID, fn, onState)
}

func (s *LiveChatService) SubscribeRooms(ctx context.Context, fn repository.Listener[*entity.RoomList], onState repository.StateListener) (repository.Unsubscribe, error) {
	return s.roomListUseCase.SubscribeRooms(ctx, fn, onState)
}

func (s *LiveChatService) RoomOwner(ctx context.Context, roomID string) (string, error) {
	room, err := s.chatUseCase.GetRoom(ctx, roomID)
	if err != nil {
		return "", err
	}
	return room.VisitorID, nil
}

func (s *LiveChatService) SetTyping(ctx context.Context, roomID string, party entity.Party, typing bool) error {
	return s.presenceUseCase.SetTyping(ctx, roomID, party, typing)
}

func (s *LiveChatService) MarkRead(ctx context.Context, roomID string) error {
	return s.chatUseCase.MarkRead(ctx, roomID)
}
