package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterrepo "portfoliochat/internal/adapter/repository"
	"portfoliochat/internal/domain/entity"
	"portfoliochat/pkg/errors"
)

func TestQuickRepliesSeedDefaults(t *testing.T) {
	ctx := context.Background()
	uc := NewQuickReplyUseCase(adapterrepo.NewMemoryQuickReplyRepository())

	replies, err := uc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, replies, len(entity.DefaultQuickReplies))

	// Seeding happens once.
	replies, err = uc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, replies, len(entity.DefaultQuickReplies))
}

func TestQuickReplyUsageOrdersList(t *testing.T) {
	ctx := context.Background()
	uc := NewQuickReplyUseCase(adapterrepo.NewMemoryQuickReplyRepository())

	a, err := uc.Create(ctx, CreateQuickReplyInput{Title: "A", Content: "first"})
	require.NoError(t, err)
	b, err := uc.Create(ctx, CreateQuickReplyInput{Title: "B", Content: "second"})
	require.NoError(t, err)

	used, err := uc.Use(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", used.Content)

	replies, err := uc.List(ctx)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, b.ID, replies[0].ID)
	assert.Equal(t, 1, replies[0].UsageCount)

	require.NoError(t, uc.Delete(ctx, a.ID))
	_, err = uc.Use(ctx, a.ID)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestCreateQuickReplyValidation(t *testing.T) {
	uc := NewQuickReplyUseCase(adapterrepo.NewMemoryQuickReplyRepository())

	_, err := uc.Create(context.Background(), CreateQuickReplyInput{Title: "", Content: "x"})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}
