package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterrepo "portfoliochat/internal/adapter/repository"
	"portfoliochat/pkg/errors"
)

func TestRegisterDevice(t *testing.T) {
	ctx := context.Background()
	adminRepo := adapterrepo.NewMemoryAdminRepository()
	uc := NewAdminUseCase(adminRepo, adapterrepo.NewVisitorRepository(adapterrepo.NewMemoryRecordStore()))

	_, err := uc.RegisterDevice(ctx, "admin-1", RegisterDeviceInput{})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	device, err := uc.RegisterDevice(ctx, "admin-1", RegisterDeviceInput{FCMToken: "tok", Platform: "ios"})
	require.NoError(t, err)
	assert.False(t, device.LastSeen.IsZero())

	uc.TouchLastSeen(ctx, "admin-2")

	devices, err := adminRepo.ListDevices(ctx)
	require.NoError(t, err)
	require.Len(t, devices, 1)
	assert.Equal(t, "tok", devices[0].FCMToken)
}

func TestSetVisitorBlocked(t *testing.T) {
	ctx := context.Background()
	uc := NewAdminUseCase(adapterrepo.NewMemoryAdminRepository(), adapterrepo.NewVisitorRepository(adapterrepo.NewMemoryRecordStore()))

	v, err := uc.SetVisitorBlocked(ctx, "v_abc", true)
	require.NoError(t, err)
	assert.True(t, v.Blocked)

	v, err = uc.SetVisitorBlocked(ctx, "v_abc", false)
	require.NoError(t, err)
	assert.False(t, v.Blocked)
}
