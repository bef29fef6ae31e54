package usecase

import (
	"context"
	"log"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/pkg/errors"
)

type AdminUseCase struct {
	adminRepo   repository.AdminRepository
	visitorRepo repository.VisitorRepository
}

func NewAdminUseCase(adminRepo repository.AdminRepository, visitorRepo repository.VisitorRepository) *AdminUseCase {
	return &AdminUseCase{
		adminRepo:   adminRepo,
		visitorRepo: visitorRepo,
	}
}

type RegisterDeviceInput struct {
	FCMToken string
	Platform string
}

// RegisterDevice stores the admin's push token.
func (uc *AdminUseCase) RegisterDevice(ctx context.Context, uid string, input RegisterDeviceInput) (*entity.AdminDevice, error) {
	if input.FCMToken == "" {
		return nil, errors.BadRequest("FCM token is required", nil)
	}

	device := &entity.AdminDevice{
		UID:      uid,
		FCMToken: input.FCMToken,
		Platform: input.Platform,
	}
	if err := uc.adminRepo.SaveDevice(ctx, device); err != nil {
		log.Printf("RegisterDevice Error: admin %s: %v", uid, err)
		return nil, err
	}
	return device, nil
}

// TouchLastSeen records admin activity. Failures are only logged.
func (uc *AdminUseCase) TouchLastSeen(ctx context.Context, uid string) {
	if err := uc.adminRepo.TouchLastSeen(ctx, uid); err != nil {
		log.Printf("TouchLastSeen Error: admin %s: %v", uid, err)
	}
}

func (uc *AdminUseCase) SetVisitorBlocked(ctx context.Context, visitorID string, blocked bool) (*entity.Visitor, error) {
	if _, err := uc.visitorRepo.Ensure(ctx, visitorID); err != nil {
		return nil, err
	}
	if err := uc.visitorRepo.SetBlocked(ctx, visitorID, blocked); err != nil {
		return nil, err
	}
	return uc.visitorRepo.GetByID(ctx, visitorID)
}
