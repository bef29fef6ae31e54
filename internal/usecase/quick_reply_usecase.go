package usecase

import (
	"context"
	"log"
	"strings"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/pkg/errors"
)

type QuickReplyUseCase struct {
	replyRepo repository.QuickReplyRepository
}

func NewQuickReplyUseCase(replyRepo repository.QuickReplyRepository) *QuickReplyUseCase {
	return &QuickReplyUseCase{
		replyRepo: replyRepo,
	}
}

type CreateQuickReplyInput struct {
	Title   string
	Content string
	Emoji   string
}

// List returns the quick replies, most used first. An empty collection is
// seeded with the default templates.
func (uc *QuickReplyUseCase) List(ctx context.Context) ([]*entity.QuickReply, error) {
	replies, err := uc.replyRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(replies) > 0 {
		return replies, nil
	}

	for _, d := range entity.DefaultQuickReplies {
		reply := d
		if err := uc.replyRepo.Create(ctx, &reply); err != nil {
			log.Printf("QuickReply: Failed to seed %q: %v", reply.Title, err)
			return nil, err
		}
	}
	return uc.replyRepo.List(ctx)
}

func (uc *QuickReplyUseCase) Create(ctx context.Context, input CreateQuickReplyInput) (*entity.QuickReply, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Content) == "" {
		return nil, errors.BadRequest("Title and content are required", nil)
	}
	if err := (entity.TextContent{Text: input.Content}).Validate(); err != nil {
		return nil, errors.BadRequest(err.Error(), err)
	}

	reply := &entity.QuickReply{
		Title:   input.Title,
		Content: input.Content,
		Emoji:   input.Emoji,
	}
	if err := uc.replyRepo.Create(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (uc *QuickReplyUseCase) Delete(ctx context.Context, id string) error {
	return uc.replyRepo.Delete(ctx, id)
}

// Use returns the reply and counts one more use of it.
func (uc *QuickReplyUseCase) Use(ctx context.Context, id string) (*entity.QuickReply, error) {
	reply, err := uc.replyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := uc.replyRepo.IncrementUsage(ctx, id); err != nil {
		log.Printf("QuickReply: Failed to count use of %s: %v", id, err)
	}
	return reply, nil
}
