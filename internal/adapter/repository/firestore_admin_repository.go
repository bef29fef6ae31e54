package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/pkg/errors"
)

type firestoreAdminRepository struct {
	client *firestore.Client
}

func NewFirestoreAdminRepository(client *firestore.Client) repository.AdminRepository {
	return &firestoreAdminRepository{
		client: client,
	}
}

func (r *firestoreAdminRepository) SaveDevice(ctx context.Context, device *entity.AdminDevice) error {
	now := time.Now()
	device.UpdatedAt = now
	device.LastSeen = now

	_, err := r.client.Collection("admins").Doc(device.UID).Set(ctx, device)
	if err != nil {
		return errors.Internal("Failed to save admin device", err)
	}

	return nil
}

func (r *firestoreAdminRepository) TouchLastSeen(ctx context.Context, uid string) error {
	_, err := r.client.Collection("admins").Doc(uid).Set(ctx, map[string]interface{}{
		"uid":      uid,
		"lastSeen": time.Now(),
	}, firestore.MergeAll)
	if err != nil {
		return errors.Internal("Failed to update admin last seen", err)
	}

	return nil
}

func (r *firestoreAdminRepository) ListDevices(ctx context.Context) ([]*entity.AdminDevice, error) {
	iter := r.client.Collection("admins").Where("fcmToken", "!=", "").Documents(ctx)
	defer iter.Stop()

	var devices []*entity.AdminDevice
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list admin devices", err)
		}

		var device entity.AdminDevice
		if err := doc.DataTo(&device); err != nil {
			log.Printf("Error parsing admin device %s: %v", doc.Ref.ID, err)
			continue
		}
		if device.UID == "" {
			device.UID = doc.Ref.ID
		}
		devices = append(devices, &device)
	}

	return devices, nil
}
