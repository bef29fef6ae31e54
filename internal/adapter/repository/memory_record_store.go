package repository

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/pkg/errors"
)

// memoryRecordStore is an in-process RecordStore holding a JSON tree. It is
// used by local development and by the tests of every layer above it.
type memoryRecordStore struct {
	mu      sync.Mutex
	root    map[string]interface{}
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
	subs    map[*memorySub]struct{}
}

type memorySub struct {
	path    []string
	fn      func(repository.Snapshot)
	signal  chan struct{}
	done    chan struct{}
	once    sync.Once
	mu      sync.Mutex
	pending json.RawMessage
	last    json.RawMessage
}

type MemoryOption func(*memoryRecordStore)

// WithClock replaces the clock used for server timestamps and push keys.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *memoryRecordStore) { s.now = now }
}

func NewMemoryRecordStore(opts ...MemoryOption) repository.RecordStore {
	s := &memoryRecordStore{
		root:    map[string]interface{}{},
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
		subs:    map[*memorySub]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *memoryRecordStore) Push(ctx context.Context, path string, value interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	segs, err := splitPath(path)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(s.now()), s.entropy)
	if err != nil {
		return "", errors.Internal("Failed to generate push key", err)
	}
	key := id.String()

	if err := s.write(append(segs, key), value); err != nil {
		return "", err
	}
	s.notify(segs)
	return key, nil
}

func (s *memoryRecordStore) Set(ctx context.Context, path string, value interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	segs, err := splitPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(segs, value); err != nil {
		return err
	}
	s.notify(segs)
	return nil
}

func (s *memoryRecordStore) Update(ctx context.Context, path string, fields map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	segs, err := splitPath(path)
	if err != nil {
		return err
	}

	type write struct {
		path  []string
		value interface{}
	}
	writes := make([]write, 0, len(fields))

	s.mu.Lock()
	defer s.mu.Unlock()

	// Everything is validated before the tree is touched so a bad field
	// leaves the whole update unapplied.
	for key, v := range fields {
		sub, err := splitPath(key)
		if err != nil || len(sub) == 0 {
			return errors.BadRequest(fmt.Sprintf("invalid update field %q", key), err)
		}
		n, err := s.normalize(v)
		if err != nil {
			return err
		}
		writes = append(writes, write{path: append(append([]string{}, segs...), sub...), value: n})
	}

	for _, w := range writes {
		s.place(w.path, w.value)
	}
	s.notify(segs)
	return nil
}

func (s *memoryRecordStore) Get(ctx context.Context, path string) (repository.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return repository.Snapshot{}, err
	}
	segs, err := splitPath(path)
	if err != nil {
		return repository.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := json.Marshal(lookup(s.root, segs))
	if err != nil {
		return repository.Snapshot{}, errors.Internal("Failed to encode record", err)
	}
	return repository.Snapshot{Path: path, Raw: raw}, nil
}

func (s *memoryRecordStore) Increment(ctx context.Context, path string, delta int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	segs, err := splitPath(path)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := 0
	switch v := lookup(s.root, segs).(type) {
	case nil:
	case float64:
		current = int(v)
	default:
		return 0, errors.Decode(path, segs[len(segs)-1], fmt.Errorf("not a number: %v", v))
	}

	next := current + delta
	s.place(segs, float64(next))
	s.notify(segs)
	return next, nil
}

func (s *memoryRecordStore) Subscribe(ctx context.Context, path string, fn func(repository.Snapshot), onState repository.StateListener) (repository.Unsubscribe, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, err
	}

	sub := &memorySub{
		path:   segs,
		fn:     fn,
		signal: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.offer(sub)
	s.mu.Unlock()

	if onState != nil {
		onState(entity.ConnectionLive)
	}

	unsubscribe := func() {
		sub.once.Do(func() {
			close(sub.done)
			s.mu.Lock()
			delete(s.subs, sub)
			s.mu.Unlock()
		})
	}

	go func() {
		defer unsubscribe()
		sub.loop(ctx, path)
	}()

	return unsubscribe, nil
}

// loop delivers the latest pending value. Intermediate values written while a
// delivery is in progress are coalesced into the next one.
func (sub *memorySub) loop(ctx context.Context, path string) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.done:
			return
		case <-sub.signal:
		}

		sub.mu.Lock()
		raw := sub.pending
		sub.pending = nil
		sub.mu.Unlock()

		if raw == nil {
			continue
		}
		select {
		case <-sub.done:
			return
		default:
		}
		sub.fn(repository.Snapshot{Path: path, Raw: raw})
	}
}

// write normalizes value and stores it at segs. Callers hold s.mu.
func (s *memoryRecordStore) write(segs []string, value interface{}) error {
	n, err := s.normalize(value)
	if err != nil {
		return err
	}
	s.place(segs, n)
	return nil
}

// normalize turns value into plain JSON data and resolves server timestamps.
func (s *memoryRecordStore) normalize(value interface{}) (interface{}, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, errors.BadRequest("Value cannot be stored", err)
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Internal("Failed to normalize value", err)
	}
	ts := float64(s.now().UnixMilli())
	return resolveTimestamps(out, ts), nil
}

func resolveTimestamps(v interface{}, ts float64) interface{} {
	m, ok := v.(map[string]interface{})
	if !ok {
		return v
	}
	if len(m) == 1 && m[".sv"] == "timestamp" {
		return ts
	}
	for k, child := range m {
		if child == nil {
			delete(m, k)
			continue
		}
		m[k] = resolveTimestamps(child, ts)
	}
	return v
}

// place stores v at segs. A nil v deletes the node and any parents left empty.
func (s *memoryRecordStore) place(segs []string, v interface{}) {
	if len(segs) == 0 {
		if m, ok := v.(map[string]interface{}); ok {
			s.root = m
		} else {
			s.root = map[string]interface{}{}
		}
		return
	}

	if v == nil {
		removeAt(s.root, segs)
		return
	}
	if m, ok := v.(map[string]interface{}); ok && len(m) == 0 {
		removeAt(s.root, segs)
		return
	}

	node := s.root
	for _, seg := range segs[:len(segs)-1] {
		child, ok := node[seg].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			node[seg] = child
		}
		node = child
	}
	node[segs[len(segs)-1]] = v
}

func removeAt(node map[string]interface{}, segs []string) bool {
	if len(segs) == 1 {
		delete(node, segs[0])
		return len(node) == 0
	}
	child, ok := node[segs[0]].(map[string]interface{})
	if !ok {
		return false
	}
	if removeAt(child, segs[1:]) {
		delete(node, segs[0])
	}
	return len(node) == 0
}

func lookup(node interface{}, segs []string) interface{} {
	for _, seg := range segs {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil
		}
		node, ok = m[seg]
		if !ok {
			return nil
		}
	}
	if m, ok := node.(map[string]interface{}); ok && len(m) == 0 {
		return nil
	}
	return node
}

// notify queues the new value for every subscription whose path overlaps the
// written path. Callers hold s.mu.
func (s *memoryRecordStore) notify(written []string) {
	for sub := range s.subs {
		if overlaps(sub.path, written) {
			s.offer(sub)
		}
	}
}

func (s *memoryRecordStore) offer(sub *memorySub) {
	raw, err := json.Marshal(lookup(s.root, sub.path))
	if err != nil {
		return
	}

	sub.mu.Lock()
	if bytes.Equal(raw, sub.last) {
		sub.mu.Unlock()
		return
	}
	sub.last = raw
	sub.pending = raw
	sub.mu.Unlock()

	select {
	case sub.signal <- struct{}{}:
	default:
	}
}

func overlaps(a, b []string) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// splitPath validates a slash separated path. Segments may not contain the
// characters the hosted store reserves.
func splitPath(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}
	segs := strings.Split(path, "/")
	for _, seg := range segs {
		if !validKey(seg) {
			return nil, errors.BadRequest(fmt.Sprintf("invalid path %q", path), nil)
		}
	}
	return segs, nil
}

func validKey(key string) bool {
	if key == "" || len(key) > 768 {
		return false
	}
	return !strings.ContainsAny(key, ".$#[]/\x00")
}
