package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/internal/infrastructure/ratelimit"
	"portfoliochat/pkg/errors"
	"portfoliochat/pkg/metrics"
)

const notifyTimeout = 10 * time.Second

type ChatUseCase struct {
	chatRepo       repository.ChatRepository
	visitorRepo    repository.VisitorRepository
	notifier       AdminNotifier
	rateLimiter    *ratelimit.RateLimiter
	welcomeMessage string
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	visitorRepo repository.VisitorRepository,
	notifier AdminNotifier,
	rateLimiter *ratelimit.RateLimiter,
	welcomeMessage string,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:       chatRepo,
		visitorRepo:    visitorRepo,
		notifier:       notifier,
		rateLimiter:    rateLimiter,
		welcomeMessage: welcomeMessage,
	}
}

type SendMessageInput struct {
	RoomID     string
	SenderType entity.SenderType
	SenderID   string
	Content    entity.Content
}

// CreateRoom opens a new conversation for the visitor and posts the welcome
// message into it.
func (uc *ChatUseCase) CreateRoom(ctx context.Context, visitorID string) (*entity.ChatRoom, error) {
	if uc.rateLimiter != nil {
		if allowed, wait := uc.rateLimiter.Allow(visitorID, ratelimit.ActionCreateChat); !allowed {
			log.Printf("CreateRoom Rate Limited: Visitor %s must wait %v", visitorID, wait)
			return nil, errors.TooManyRequests(fmt.Sprintf("Rate limit exceeded. Please wait %v before starting another chat", wait.Round(time.Second)))
		}
	}

	if err := uc.checkVisitor(ctx, visitorID); err != nil {
		return nil, err
	}

	room, err := uc.chatRepo.CreateRoom(ctx, visitorID)
	if err != nil {
		log.Printf("CreateRoom Error: Failed to create room for visitor %s: %v", visitorID, err)
		return nil, err
	}
	metrics.RoomCreated()

	if uc.welcomeMessage != "" {
		welcome := &entity.ChatMessage{
			RoomID:     room.ID,
			SenderType: entity.SenderSystem,
			Content:    entity.SystemContent{Text: uc.welcomeMessage},
			IsRead:     true,
		}
		if err := uc.chatRepo.AppendMessage(ctx, welcome); err != nil {
			// The room is usable without it.
			log.Printf("CreateRoom: Failed to post welcome message to room %s: %v", room.ID, err)
		}
	}

	return room, nil
}

func (uc *ChatUseCase) GetRoom(ctx context.Context, roomID string) (*entity.ChatRoom, error) {
	return uc.chatRepo.GetRoom(ctx, roomID)
}

// RoomExists is the one-shot existence check behind cached room revalidation.
func (uc *ChatUseCase) RoomExists(ctx context.Context, roomID string) (bool, error) {
	return uc.chatRepo.RoomExists(ctx, roomID)
}

// GetVisitorRoom returns the room only when it belongs to the visitor.
func (uc *ChatUseCase) GetVisitorRoom(ctx context.Context, roomID, visitorID string) (*entity.ChatRoom, error) {
	room, err := uc.chatRepo.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room.VisitorID != visitorID {
		return nil, errors.Forbidden("Chat belongs to another visitor", nil)
	}
	return room, nil
}

// Send appends a message and then refreshes the room summary. The two writes
// are not atomic: a reader may briefly see the message before the summary.
func (uc *ChatUseCase) Send(ctx context.Context, input SendMessageInput) (*entity.ChatMessage, error) {
	if !input.SenderType.Valid() {
		return nil, errors.BadRequest(fmt.Sprintf("Unknown sender type %q", input.SenderType), nil)
	}
	if input.Content == nil {
		return nil, errors.BadRequest("Message content is required", nil)
	}
	if err := input.Content.Validate(); err != nil {
		return nil, errors.BadRequest(err.Error(), err)
	}

	if uc.rateLimiter != nil && input.SenderType == entity.SenderVisitor {
		if allowed, wait := uc.rateLimiter.Allow(input.SenderID, ratelimit.ActionSendMessage); !allowed {
			log.Printf("Send Rate Limited: Visitor %s must wait %v", input.SenderID, wait)
			return nil, errors.TooManyRequests("You are sending messages too quickly. Please slow down")
		}
	}

	room, err := uc.chatRepo.GetRoom(ctx, input.RoomID)
	if err != nil {
		log.Printf("Send Error: Room %s not available: %v", input.RoomID, err)
		return nil, err
	}

	if input.SenderType == entity.SenderVisitor {
		if err := uc.checkVisitor(ctx, room.VisitorID); err != nil {
			return nil, err
		}
	}

	msg := &entity.ChatMessage{
		RoomID:     input.RoomID,
		SenderType: input.SenderType,
		SenderID:   input.SenderID,
		Content:    input.Content,
		IsRead:     input.SenderType != entity.SenderVisitor,
	}
	if err := uc.chatRepo.AppendMessage(ctx, msg); err != nil {
		log.Printf("Send Error: Failed to append message to room %s: %v", input.RoomID, err)
		return nil, err
	}
	metrics.MessageSent(string(input.SenderType))

	summary := repository.RoomSummary{
		LastMessage:       input.Content.Preview(),
		LastMessageSender: input.SenderType,
	}
	switch input.SenderType {
	case entity.SenderVisitor:
		summary.ClearTyping = entity.PartyVisitor
		summary.Reopen = room.Status == entity.RoomClosed
	case entity.SenderAdmin:
		summary.ClearTyping = entity.PartyAdmin
	}
	if err := uc.chatRepo.UpdateSummary(ctx, input.RoomID, summary); err != nil {
		log.Printf("Send Error: Message %s stored but summary of room %s not updated: %v", msg.ID, input.RoomID, err)
		return nil, err
	}

	if input.SenderType == entity.SenderVisitor {
		if _, err := uc.chatRepo.IncrementUnread(ctx, input.RoomID); err != nil {
			log.Printf("Send Error: Failed to increment unread count of room %s: %v", input.RoomID, err)
			return nil, err
		}
		uc.notifyAdmins(ctx, room, msg)
	}

	return msg, nil
}

func (uc *ChatUseCase) notifyAdmins(ctx context.Context, room *entity.ChatRoom, msg *entity.ChatMessage) {
	if uc.notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		if err := uc.notifier.NotifyNewMessage(ctx, room, msg); err != nil {
			log.Printf("Send: Failed to notify admins about message %s: %v", msg.ID, err)
		}
	}()
}

func (uc *ChatUseCase) ListMessages(ctx context.Context, roomID string) ([]*entity.ChatMessage, error) {
	return uc.chatRepo.ListMessages(ctx, roomID)
}

// SubscribeMessages delivers the room's full ordered message list on every
// change.
func (uc *ChatUseCase) SubscribeMessages(ctx context.Context, roomID string, fn repository.Listener[[]*entity.ChatMessage], onState repository.StateListener) (repository.Unsubscribe, error) {
	return uc.chatRepo.SubscribeMessages(ctx, roomID, fn, onState)
}

// MarkRead clears the room's unread counter and flags its unread visitor
// messages read in a single write.
func (uc *ChatUseCase) MarkRead(ctx context.Context, roomID string) error {
	exists, err := uc.chatRepo.RoomExists(ctx, roomID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound("Chat", nil)
	}

	messages, err := uc.chatRepo.ListMessages(ctx, roomID)
	if err != nil {
		return err
	}

	var unread []string
	for _, m := range messages {
		if m.SenderType == entity.SenderVisitor && !m.IsRead {
			unread = append(unread, m.ID)
		}
	}

	if err := uc.chatRepo.MarkRead(ctx, roomID, unread); err != nil {
		log.Printf("MarkRead Error: Failed to mark room %s read: %v", roomID, err)
		return err
	}
	metrics.ReadMarked()
	return nil
}

func (uc *ChatUseCase) checkVisitor(ctx context.Context, visitorID string) error {
	visitor, err := uc.visitorRepo.Ensure(ctx, visitorID)
	if err != nil {
		return err
	}
	if visitor.Blocked {
		return errors.Forbidden("Visitor is blocked", nil)
	}
	return nil
}
