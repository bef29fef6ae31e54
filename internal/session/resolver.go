package session

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"portfoliochat/pkg/logger"
)

const (
	visitorPrefix = "v_"
	randomChars   = 11
	base36        = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// RoomBackend is the part of the chat API the resolver needs.
type RoomBackend interface {
	CreateRoom(ctx context.Context, visitorID string) (string, error)
	// RoomExists is a one-shot check. It returns false, nil only when the
	// room is known to be gone.
	RoomExists(ctx context.Context, visitorID, roomID string) (bool, error)
}

// Resolver hands out the visitor's stable identity and current room, caching
// both in local storage.
type Resolver struct {
	storage Storage
	backend RoomBackend
	random  io.Reader
	now     func() time.Time
	mu      sync.Mutex
}

func NewResolver(storage Storage, backend RoomBackend) *Resolver {
	return &Resolver{
		storage: storage,
		backend: backend,
		random:  rand.Reader,
		now:     time.Now,
	}
}

// VisitorID returns the stored visitor id, generating and storing one on
// first use.
func (r *Resolver) VisitorID() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.visitorID()
}

func (r *Resolver) visitorID() (string, error) {
	id, ok, err := r.storage.Get(KeyVisitorID)
	if err != nil {
		return "", err
	}
	if ok && id != "" {
		return id, nil
	}

	id, err = NewVisitorID(r.random, r.now())
	if err != nil {
		return "", err
	}
	if err := r.storage.Set(KeyVisitorID, id); err != nil {
		return "", err
	}
	logger.Info("Session: new visitor %s", id)
	return id, nil
}

// RoomID returns the visitor's room. A cached id is checked against the
// backend first and replaced by a new room when it no longer exists. If the
// check itself fails the error is returned and the cached id is kept.
func (r *Resolver) RoomID(ctx context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	visitorID, err := r.visitorID()
	if err != nil {
		return "", err
	}

	cached, ok, err := r.storage.Get(KeyChatID)
	if err != nil {
		return "", err
	}
	if ok && cached != "" {
		exists, err := r.backend.RoomExists(ctx, visitorID, cached)
		if err != nil {
			return "", fmt.Errorf("check room %s: %w", cached, err)
		}
		if exists {
			return cached, nil
		}
		logger.Warn("Session: cached room %s no longer exists, starting a new one", cached)
		if err := r.storage.Delete(KeyChatID); err != nil {
			return "", err
		}
	}

	roomID, err := r.backend.CreateRoom(ctx, visitorID)
	if err != nil {
		return "", err
	}
	if err := r.storage.Set(KeyChatID, roomID); err != nil {
		return "", err
	}
	return roomID, nil
}

// Reset forgets the cached room so the next RoomID starts a new one. The
// visitor id is kept.
func (r *Resolver) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.storage.Delete(KeyChatID)
}

// NewVisitorID builds "v_" + 11 random base36 characters + the base36 unix
// time in milliseconds.
func NewVisitorID(random io.Reader, now time.Time) (string, error) {
	var b strings.Builder
	b.WriteString(visitorPrefix)

	buf := make([]byte, 1)
	for b.Len() < len(visitorPrefix)+randomChars {
		if _, err := io.ReadFull(random, buf); err != nil {
			return "", fmt.Errorf("generate visitor id: %w", err)
		}
		// 252 is the largest multiple of 36 below 256.
		if buf[0] >= 252 {
			continue
		}
		b.WriteByte(base36[buf[0]%36])
	}

	b.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	return b.String(), nil
}
