package repository

import (
	"context"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/pkg/errors"
)

type storeVisitorRepository struct {
	store repository.RecordStore
}

func NewVisitorRepository(store repository.RecordStore) repository.VisitorRepository {
	return &storeVisitorRepository{
		store: store,
	}
}

func visitorPath(visitorID string) string {
	return "visitors/" + visitorID
}

func (r *storeVisitorRepository) Ensure(ctx context.Context, visitorID string) (*entity.Visitor, error) {
	if !validKey(visitorID) {
		return nil, errors.BadRequest("Invalid visitor id", nil)
	}

	snap, err := r.store.Get(ctx, visitorPath(visitorID))
	if err != nil {
		return nil, err
	}
	if snap.Exists() {
		return decodeVisitor(snap.Path, visitorID, snap.Raw)
	}

	err = r.store.Update(ctx, visitorPath(visitorID), map[string]interface{}{
		"blocked":     false,
		"firstSeenAt": repository.ServerTimestamp,
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, visitorID)
}

func (r *storeVisitorRepository) GetByID(ctx context.Context, visitorID string) (*entity.Visitor, error) {
	if !validKey(visitorID) {
		return nil, errors.BadRequest("Invalid visitor id", nil)
	}

	snap, err := r.store.Get(ctx, visitorPath(visitorID))
	if err != nil {
		return nil, err
	}
	if !snap.Exists() {
		return nil, errors.NotFound("Visitor", nil)
	}

	return decodeVisitor(snap.Path, visitorID, snap.Raw)
}

func (r *storeVisitorRepository) SetBlocked(ctx context.Context, visitorID string, blocked bool) error {
	if !validKey(visitorID) {
		return errors.BadRequest("Invalid visitor id", nil)
	}

	fields := map[string]interface{}{
		"blocked": blocked,
	}
	if blocked {
		fields["blockedAt"] = repository.ServerTimestamp
	} else {
		fields["blockedAt"] = nil
	}

	return r.store.Update(ctx, visitorPath(visitorID), fields)
}
