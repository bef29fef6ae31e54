package repository

import (
	"context"
	"encoding/json"
	"time"

	"firebase.google.com/go/v4/db"

	"portfoliochat/internal/domain/repository"
	"portfoliochat/internal/infrastructure/subscription"
	"portfoliochat/pkg/errors"
	"portfoliochat/pkg/logger"
)

type rtdbRecordStore struct {
	client       *db.Client
	pollInterval time.Duration
}

// NewRTDBRecordStore serves the RecordStore from a Firebase Realtime Database.
// Subscriptions poll with conditional reads every pollInterval.
func NewRTDBRecordStore(client *db.Client, pollInterval time.Duration) repository.RecordStore {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &rtdbRecordStore{
		client:       client,
		pollInterval: pollInterval,
	}
}

func (s *rtdbRecordStore) Push(ctx context.Context, path string, value interface{}) (string, error) {
	if _, err := splitPath(path); err != nil {
		return "", err
	}
	ref, err := s.client.NewRef(path).Push(ctx, value)
	if err != nil {
		return "", errors.Unavailable("Failed to push record", err)
	}
	return ref.Key, nil
}

func (s *rtdbRecordStore) Set(ctx context.Context, path string, value interface{}) error {
	if _, err := splitPath(path); err != nil {
		return err
	}
	if err := s.client.NewRef(path).Set(ctx, value); err != nil {
		return errors.Unavailable("Failed to write record", err)
	}
	return nil
}

func (s *rtdbRecordStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	if _, err := splitPath(path); err != nil {
		return err
	}
	for key := range fields {
		if segs, err := splitPath(key); err != nil || len(segs) == 0 {
			return errors.BadRequest("invalid update field "+key, err)
		}
	}
	if err := s.client.NewRef(path).Update(ctx, fields); err != nil {
		return errors.Unavailable("Failed to update record", err)
	}
	return nil
}

func (s *rtdbRecordStore) Get(ctx context.Context, path string) (repository.Snapshot, error) {
	if _, err := splitPath(path); err != nil {
		return repository.Snapshot{}, err
	}
	var raw json.RawMessage
	if err := s.client.NewRef(path).Get(ctx, &raw); err != nil {
		return repository.Snapshot{}, errors.Unavailable("Failed to read record", err)
	}
	return repository.Snapshot{Path: path, Raw: raw}, nil
}

func (s *rtdbRecordStore) Increment(ctx context.Context, path string, delta int) (int, error) {
	if _, err := splitPath(path); err != nil {
		return 0, err
	}

	var committed int
	err := s.client.NewRef(path).Transaction(ctx, func(tn db.TransactionNode) (interface{}, error) {
		var current *int
		if err := tn.Unmarshal(&current); err != nil {
			return nil, errors.Decode(path, "", err)
		}
		committed = delta
		if current != nil {
			committed += *current
		}
		return committed, nil
	})
	if err != nil {
		if errors.Is(err, "DECODE_ERROR") {
			return 0, err
		}
		return 0, errors.Unavailable("Failed to increment counter", err)
	}
	return committed, nil
}

func (s *rtdbRecordStore) Subscribe(ctx context.Context, path string, fn func(repository.Snapshot), onState repository.StateListener) (repository.Unsubscribe, error) {
	if _, err := splitPath(path); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	ref := s.client.NewRef(path)

	connect := func(ctx context.Context, ready func()) error {
		var raw json.RawMessage
		etag, err := ref.GetWithETag(ctx, &raw)
		if err != nil {
			return err
		}
		fn(repository.Snapshot{Path: path, Raw: raw})
		ready()

		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
			}

			var next json.RawMessage
			changed, newETag, err := ref.GetIfChanged(ctx, etag, &next)
			if err != nil {
				return err
			}
			if changed {
				etag = newETag
				fn(repository.Snapshot{Path: path, Raw: next})
			}
		}
	}

	go subscription.Run(subCtx, "rtdb:"+path, connect, onState)
	logger.Debug("Subscribed to %s (poll every %v)", path, s.pollInterval)

	return repository.Unsubscribe(cancel), nil
}
