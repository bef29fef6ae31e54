package repository

import (
	"context"

	"portfoliochat/internal/domain/entity"
)

type AdminRepository interface {
	SaveDevice(ctx context.Context, device *entity.AdminDevice) error
	TouchLastSeen(ctx context.Context, uid string) error
	ListDevices(ctx context.Context) ([]*entity.AdminDevice, error)
}

type QuickReplyRepository interface {
	List(ctx context.Context) ([]*entity.QuickReply, error)
	GetByID(ctx context.Context, id string) (*entity.QuickReply, error)
	Create(ctx context.Context, reply *entity.QuickReply) error
	Delete(ctx context.Context, id string) error
	IncrementUsage(ctx context.Context, id string) error
}
