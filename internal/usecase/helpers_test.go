package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	adapterrepo "portfoliochat/internal/adapter/repository"
	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
)

// tickingClock advances one second on every read so server timestamps are
// distinct and increasing.
type tickingClock struct {
	ms atomic.Int64
}

func newTickingClock() *tickingClock {
	c := &tickingClock{}
	c.ms.Store(1700000000000)
	return c
}

func (c *tickingClock) Now() time.Time {
	return time.UnixMilli(c.ms.Add(1000))
}

type fakeNotifier struct {
	sent chan *entity.ChatMessage
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{sent: make(chan *entity.ChatMessage, 16)}
}

func (n *fakeNotifier) NotifyNewMessage(ctx context.Context, room *entity.ChatRoom, msg *entity.ChatMessage) error {
	n.sent <- msg
	return nil
}

type testEnv struct {
	store    repository.RecordStore
	chatRepo repository.ChatRepository
	visitors repository.VisitorRepository
	notifier *fakeNotifier
	chat     *ChatUseCase
	presence *PresenceUseCase
	roomList *RoomListUseCase
}

func newTestEnv() *testEnv {
	clock := newTickingClock()
	store := adapterrepo.NewMemoryRecordStore(adapterrepo.WithClock(clock.Now))
	chatRepo := adapterrepo.NewChatRepository(store)
	visitors := adapterrepo.NewVisitorRepository(store)
	notifier := newFakeNotifier()

	return &testEnv{
		store:    store,
		chatRepo: chatRepo,
		visitors: visitors,
		notifier: notifier,
		chat:     NewChatUseCase(chatRepo, visitors, notifier, nil, "Welcome!"),
		presence: NewPresenceUseCase(chatRepo),
		roomList: NewRoomListUseCase(chatRepo),
	}
}

// latest keeps the most recent value delivered to a listener.
type latest[T any] struct {
	mu  sync.Mutex
	val T
	err error
	n   int
}

func (l *latest[T]) listen(v T, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.val, l.err = v, err
	l.n++
}

func (l *latest[T]) get() (T, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.val, l.err
}
