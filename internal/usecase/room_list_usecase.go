package usecase

import (
	"context"
	"sort"

	"github.com/samber/lo"

	"portfoliochat/internal/domain/entity"
	"portfoliochat/internal/domain/repository"
)

// RoomListUseCase serves the admin's list of every room, most recent first.
type RoomListUseCase struct {
	chatRepo repository.ChatRepository
}

func NewRoomListUseCase(chatRepo repository.ChatRepository) *RoomListUseCase {
	return &RoomListUseCase{
		chatRepo: chatRepo,
	}
}

// ListRooms returns one snapshot of the list. An empty status means all rooms.
// TotalUnread always covers every room, whatever the filter.
func (uc *RoomListUseCase) ListRooms(ctx context.Context, status entity.RoomStatus) (*entity.RoomList, error) {
	rooms, err := uc.chatRepo.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	list := BuildRoomList(rooms)
	if status != "" {
		list.Rooms = lo.Filter(list.Rooms, func(r *entity.ChatRoom, _ int) bool {
			return r.Status == status
		})
	}
	return list, nil
}

func (uc *RoomListUseCase) UnreadCount(ctx context.Context) (int, error) {
	rooms, err := uc.chatRepo.ListRooms(ctx)
	if err != nil {
		return 0, err
	}
	return TotalUnread(rooms), nil
}

// SubscribeRooms delivers a fresh RoomList on every change to any room.
func (uc *RoomListUseCase) SubscribeRooms(ctx context.Context, fn repository.Listener[*entity.RoomList], onState repository.StateListener) (repository.Unsubscribe, error) {
	return uc.chatRepo.SubscribeRooms(ctx, func(rooms []*entity.ChatRoom, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(BuildRoomList(rooms), nil)
	}, onState)
}

// BuildRoomList orders rooms by last activity, newest first, breaking ties by
// id, and totals their unread counts.
func BuildRoomList(rooms []*entity.ChatRoom) *entity.RoomList {
	sorted := make([]*entity.ChatRoom, len(rooms))
	copy(sorted, rooms)
	SortRooms(sorted)

	return &entity.RoomList{
		Rooms:       sorted,
		TotalUnread: TotalUnread(sorted),
	}
}

func SortRooms(rooms []*entity.ChatRoom) {
	sort.SliceStable(rooms, func(i, j int) bool {
		ai, aj := rooms[i].ActivityAt(), rooms[j].ActivityAt()
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		return rooms[i].ID < rooms[j].ID
	})
}

func TotalUnread(rooms []*entity.ChatRoom) int {
	return lo.SumBy(rooms, func(r *entity.ChatRoom) int {
		return r.UnreadCount
	})
}
