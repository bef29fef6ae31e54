package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/pkg/errors"
)

// memoryAdminRepository keeps admin devices in process when Firestore is not
// configured.
type memoryAdminRepository struct {
	mu      sync.RWMutex
	devices map[string]entity.AdminDevice
}

func NewMemoryAdminRepository() repository.AdminRepository {
	return &memoryAdminRepository{
		devices: map[string]entity.AdminDevice{},
	}
}

func (r *memoryAdminRepository) SaveDevice(ctx context.Context, device *entity.AdminDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	device.UpdatedAt = now
	device.LastSeen = now
	r.devices[device.UID] = *device
	return nil
}

func (r *memoryAdminRepository) TouchLastSeen(ctx context.Context, uid string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	device := r.devices[uid]
	device.UID = uid
	device.LastSeen = time.Now()
	r.devices[uid] = device
	return nil
}

func (r *memoryAdminRepository) ListDevices(ctx context.Context) ([]*entity.AdminDevice, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var devices []*entity.AdminDevice
	for _, d := range r.devices {
		if d.FCMToken == "" {
			continue
		}
		device := d
		devices = append(devices, &device)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].UID < devices[j].UID })
	return devices, nil
}

type memoryQuickReplyRepository struct {
	mu      sync.RWMutex
	replies map[string]entity.QuickReply
}

func NewMemoryQuickReplyRepository() repository.QuickReplyRepository {
	return &memoryQuickReplyRepository{
		replies: map[string]entity.QuickReply{},
	}
}

func (r *memoryQuickReplyRepository) List(ctx context.Context) ([]*entity.QuickReply, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	replies := make([]*entity.QuickReply, 0, len(r.replies))
	for _, q := range r.replies {
		reply := q
		replies = append(replies, &reply)
	}
	sort.Slice(replies, func(i, j int) bool {
		if replies[i].UsageCount != replies[j].UsageCount {
			return replies[i].UsageCount > replies[j].UsageCount
		}
		return replies[i].CreatedAt.Before(replies[j].CreatedAt)
	})
	return replies, nil
}

func (r *memoryQuickReplyRepository) GetByID(ctx context.Context, id string) (*entity.QuickReply, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reply, ok := r.replies[id]
	if !ok {
		return nil, errors.NotFound("Quick reply", nil)
	}
	return &reply, nil
}

func (r *memoryQuickReplyRepository) Create(ctx context.Context, reply *entity.QuickReply) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reply.ID == "" {
		reply.ID = uuid.New().String()
	}
	reply.CreatedAt = time.Now()
	r.replies[reply.ID] = *reply
	return nil
}

func (r *memoryQuickReplyRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.replies, id)
	return nil
}

func (r *memoryQuickReplyRepository) IncrementUsage(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reply, ok := r.replies[id]
	if !ok {
		return errors.NotFound("Quick reply", nil)
	}
	reply.UsageCount++
	r.replies[id] = reply
	return nil
}
