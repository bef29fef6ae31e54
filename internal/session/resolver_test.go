package session

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu       sync.Mutex
	rooms    map[string]string
	created  int
	checks   int
	checkErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{rooms: map[string]string{}}
}

func (b *fakeBackend) CreateRoom(ctx context.Context, visitorID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.created++
	id := fmt.Sprintf("room-%d", b.created)
	b.rooms[id] = visitorID
	return id, nil
}

func (b *fakeBackend) RoomExists(ctx context.Context, visitorID, roomID string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.checks++
	if b.checkErr != nil {
		return false, b.checkErr
	}
	_, ok := b.rooms[roomID]
	return ok, nil
}

func (b *fakeBackend) drop(roomID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.rooms, roomID)
}

var visitorIDPattern = regexp.MustCompile(`^v_[0-9a-z]{11}[0-9a-z]+$`)

func TestNewVisitorIDFormat(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	id, err := NewVisitorID(bytes.NewReader(bytes.Repeat([]byte{0, 1, 35, 36, 255}, 10)), now)
	require.NoError(t, err)

	assert.Regexp(t, visitorIDPattern, id)
	// 255 is rejected, 36 wraps to 0.
	assert.Equal(t, "v_01z001z001z", id[:13])
	ms, err := strconv.ParseInt(id[13:], 36, 64)
	require.NoError(t, err)
	assert.Equal(t, now.UnixMilli(), ms)
}

func TestNewVisitorIDFailsWhenRandomnessRunsOut(t *testing.T) {
	_, err := NewVisitorID(bytes.NewReader([]byte{1, 2}), time.Now())
	assert.Error(t, err)
}

func TestVisitorIDIsStable(t *testing.T) {
	storage := NewMemoryStorage()
	r := NewResolver(storage, newFakeBackend())

	first, err := r.VisitorID()
	require.NoError(t, err)
	assert.Regexp(t, visitorIDPattern, first)

	second, err := r.VisitorID()
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A new resolver over the same storage sees the same id.
	third, err := NewResolver(storage, newFakeBackend()).VisitorID()
	require.NoError(t, err)
	assert.Equal(t, first, third)
}

func TestRoomIDCreatesOnceAndReusesExistingRoom(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	r := NewResolver(NewMemoryStorage(), backend)

	first, err := r.RoomID(ctx)
	require.NoError(t, err)
	second, err := r.RoomID(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, backend.created)
	assert.Equal(t, 1, backend.checks)

	visitorID, err := r.VisitorID()
	require.NoError(t, err)
	assert.Equal(t, visitorID, backend.rooms[first])
}

func TestStaleRoomIDIsReplaced(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	backend := newFakeBackend()
	r := NewResolver(storage, backend)

	first, err := r.RoomID(ctx)
	require.NoError(t, err)
	backend.drop(first)

	second, err := r.RoomID(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	cached, ok, err := storage.Get(KeyChatID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, second, cached)
}

func TestTransportErrorKeepsCachedRoom(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	backend := newFakeBackend()
	r := NewResolver(storage, backend)

	first, err := r.RoomID(ctx)
	require.NoError(t, err)

	backend.checkErr = fmt.Errorf("connection refused")
	_, err = r.RoomID(ctx)
	assert.ErrorContains(t, err, "connection refused")

	cached, _, err := storage.Get(KeyChatID)
	require.NoError(t, err)
	assert.Equal(t, first, cached)
	assert.Equal(t, 1, backend.created)

	backend.checkErr = nil
	again, err := r.RoomID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)
}

func TestResetStartsNewRoomForSameVisitor(t *testing.T) {
	ctx := context.Background()
	backend := newFakeBackend()
	r := NewResolver(NewMemoryStorage(), backend)

	visitorID, err := r.VisitorID()
	require.NoError(t, err)
	first, err := r.RoomID(ctx)
	require.NoError(t, err)

	require.NoError(t, r.Reset())

	second, err := r.RoomID(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	after, err := r.VisitorID()
	require.NoError(t, err)
	assert.Equal(t, visitorID, after)
}

func TestFileStoragePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.toml")

	s := NewFileStorage(path)
	_, ok, err := s.Get(KeyVisitorID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(KeyVisitorID, "v_abc"))
	require.NoError(t, s.Set(KeyChatID, "room-1"))
	require.NoError(t, s.Delete(KeyChatID))

	reopened := NewFileStorage(path)
	v, ok, err := reopened.Get(KeyVisitorID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v_abc", v)

	_, ok, err = reopened.Get(KeyChatID)
	require.NoError(t, err)
	assert.False(t, ok)
}
