package repository

import (
	"context"

	"portfoliochat/internal/domain/entity"
)

type VisitorRepository interface {
	// Ensure records the visitor on first contact and returns the stored record.
	Ensure(ctx context.Context, visitorID string) (*entity.Visitor, error)
	GetByID(ctx context.Context, visitorID string) (*entity.Visitor, error)
	SetBlocked(ctx context.Context, visitorID string, blocked bool) error
}
