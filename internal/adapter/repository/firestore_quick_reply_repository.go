package repository

import (
	"context"
	"log"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
	"portfoliochat/pkg/errors"
)

type firestoreQuickReplyRepository struct {
	client *firestore.Client
}

func NewFirestoreQuickReplyRepository(client *firestore.Client) repository.QuickReplyRepository {
	return &firestoreQuickReplyRepository{
		client: client,
	}
}

func (r *firestoreQuickReplyRepository) List(ctx context.Context) ([]*entity.QuickReply, error) {
	iter := r.client.Collection("quickReplies").OrderBy("usageCount", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var replies []*entity.QuickReply
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to list quick replies", err)
		}

		var reply entity.QuickReply
		if err := doc.DataTo(&reply); err != nil {
			log.Printf("Error parsing quick reply %s: %v", doc.Ref.ID, err)
			continue
		}
		reply.ID = doc.Ref.ID
		replies = append(replies, &reply)
	}

	return replies, nil
}

func (r *firestoreQuickReplyRepository) GetByID(ctx context.Context, id string) (*entity.QuickReply, error) {
	doc, err := r.client.Collection("quickReplies").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Quick reply", err)
		}
		return nil, errors.Internal("Failed to get quick reply", err)
	}

	var reply entity.QuickReply
	if err := doc.DataTo(&reply); err != nil {
		return nil, errors.Internal("Failed to parse quick reply", err)
	}
	reply.ID = doc.Ref.ID

	return &reply, nil
}

func (r *firestoreQuickReplyRepository) Create(ctx context.Context, reply *entity.QuickReply) error {
	if reply.ID == "" {
		reply.ID = uuid.New().String()
	}
	reply.CreatedAt = time.Now()

	_, err := r.client.Collection("quickReplies").Doc(reply.ID).Set(ctx, reply)
	if err != nil {
		return errors.Internal("Failed to create quick reply", err)
	}

	return nil
}

func (r *firestoreQuickReplyRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection("quickReplies").Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete quick reply", err)
	}

	return nil
}

func (r *firestoreQuickReplyRepository) IncrementUsage(ctx context.Context, id string) error {
	_, err := r.client.Collection("quickReplies").Doc(id).Update(ctx, []firestore.Update{
		{Path: "usageCount", Value: firestore.Increment(1)},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Quick reply", err)
		}
		return errors.Internal("Failed to update quick reply usage", err)
	}

	return nil
}
