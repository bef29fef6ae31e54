package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/pkg/errors"
)

type fakeStorage struct{}

func (fakeStorage) GenerateSignedUploadURL(ctx context.Context, roomID, fileName, contentType string) (*entity.UploadTicket, error) {
	return &entity.UploadTicket{
		UploadURL:   "https://upload.example.com/" + roomID,
		PublicURL:   "https://cdn.example.com/" + roomID + "/" + fileName,
		ContentType: contentType,
	}, nil
}

func TestRequestUpload(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	room, err := env.chat.CreateRoom(ctx, "v_abc")
	require.NoError(t, err)
	uc := NewAttachmentUseCase(fakeStorage{}, env.chatRepo)

	ticket, err := uc.RequestUpload(ctx, RequestUploadInput{RoomID: room.ID, FileName: "cv.pdf", ContentType: "application/pdf", Size: 1024})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+room.ID+"/cv.pdf", ticket.PublicURL)

	_, err = uc.RequestUpload(ctx, RequestUploadInput{RoomID: room.ID, FileName: "big.pdf", ContentType: "application/pdf", Size: entity.MaxAttachmentSize + 1})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = uc.RequestUpload(ctx, RequestUploadInput{RoomID: "missing", FileName: "cv.pdf", ContentType: "application/pdf", Size: 1})
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestRequestUploadWithoutStorage(t *testing.T) {
	env := newTestEnv()
	uc := NewAttachmentUseCase(nil, env.chatRepo)

	_, err := uc.RequestUpload(context.Background(), RequestUploadInput{RoomID: "r", Size: 1})
	assert.True(t, errors.Is(err, "NOT_CONFIGURED"))
}
