package storage

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"portfoliochat/internal/domain/entity"
)

const uploadURLTTL = 15 * time.Minute

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
	"application/zip": ".zip",
	"text/plain":      ".txt",
}

type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

func NewCloudStorageClient(ctx context.Context, bucketName string, opts ...option.ClientOption) (*CloudStorageClient, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	storageClient := &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}

	if err := storageClient.setBucketCORS(ctx); err != nil {
		log.Printf("Warning: Failed to set CORS configuration: %v", err)
	}

	return storageClient, nil
}

// setBucketCORS allows browser uploads with PUT when the bucket has no CORS
// policy yet.
func (c *CloudStorageClient) setBucketCORS(ctx context.Context) error {
	bucket := c.client.Bucket(c.bucketName)

	bucketAttrs, err := bucket.Attrs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bucket attributes: %v", err)
	}
	if len(bucketAttrs.CORS) > 0 {
		return nil
	}

	_, err = bucket.Update(ctx, storage.BucketAttrsToUpdate{
		CORS: []storage.CORS{{
			MaxAge:          3600,
			Methods:         []string{http.MethodGet, http.MethodPut, http.MethodOptions},
			Origins:         []string{"*"},
			ResponseHeaders: []string{"Content-Type"},
		}},
	})
	if err != nil {
		return fmt.Errorf("failed to update bucket CORS: %v", err)
	}

	return nil
}

// GenerateSignedUploadURL issues a V4 signed PUT URL for one attachment of
// the room.
func (c *CloudStorageClient) GenerateSignedUploadURL(ctx context.Context, roomID, fileName, contentType string) (*entity.UploadTicket, error) {
	object, err := ObjectName(roomID, fileName, contentType)
	if err != nil {
		return nil, err
	}

	expires := time.Now().Add(uploadURLTTL)
	url, err := c.client.Bucket(c.bucketName).SignedURL(object, &storage.SignedURLOptions{
		Scheme:      storage.SigningSchemeV4,
		Method:      http.MethodPut,
		ContentType: contentType,
		Expires:     expires,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate signed URL: %v", err)
	}

	return &entity.UploadTicket{
		UploadURL:   url,
		PublicURL:   fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, object),
		ObjectName:  object,
		ContentType: contentType,
		ExpiresAt:   expires,
	}, nil
}

// ObjectName places an upload under chats/{roomID}/ with a unique name that
// keeps the original base name readable.
func ObjectName(roomID, fileName, contentType string) (string, error) {
	ext, ok := extensions[strings.ToLower(contentType)]
	if !ok {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	base := strings.TrimSuffix(path.Base(strings.ReplaceAll(fileName, "\\", "/")), path.Ext(fileName))
	if base == "" || base == "." || base == "/" {
		base = "file"
	}
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, base)
	if len(base) > 60 {
		base = base[:60]
	}

	return fmt.Sprintf("chats/%s/%s-%s%s", roomID, uuid.New().String(), base, ext), nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
