package repositories

import (
	stderrors "errors"
	"fmt"
	"sort"
	"time"

	"room-chat/auth"
	"room-chat/domain"
	"room-chat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/samber/lo"
)

const roomPrefix = "room:"

// RoomRepository persists room records in BadgerDB under "room:{id}".
// The stored value carries the password hash; callers must expose rooms
// only through domain.RoomSnapshot.
type RoomRepository struct {
	db *badger.DB
}

func NewRoomRepository(db *badger.DB) RoomRepository {
	return RoomRepository{db: db}
}

type diskRoom struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description,omitempty"`
	IsPrivate    bool      `json:"isPrivate"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	Owner        string    `json:"owner"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r RoomRepository) Create(room domain.Room) error {
	bytes, err := encode(fromRoom(room))
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(roomPrefix+room.ID), bytes)
	})
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return nil
}

func (r RoomRepository) FindByID(id string) (domain.Room, error) {
	var disk diskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(roomPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return decode(val, &disk)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Room{}, errors.ErrRoomNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}
	return toRoom(disk), nil
}

// List returns every room, newest first.
func (r RoomRepository) List() ([]domain.Room, error) {
	var disks []diskRoom
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(roomPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var disk diskRoom
			err := it.Item().Value(func(val []byte) error {
				return decode(val, &disk)
			})
			if err != nil {
				return err
			}
			disks = append(disks, disk)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
	}

	sort.Slice(disks, func(i, j int) bool {
		return disks[i].CreatedAt.After(disks[j].CreatedAt)
	})
	return lo.Map(disks, func(disk diskRoom, _ int) domain.Room {
		return toRoom(disk)
	}), nil
}

// VerifyPassword reports whether the candidate grants admission.
// A room without a hash accepts any candidate.
func (r RoomRepository) VerifyPassword(room domain.Room, candidate string) (bool, error) {
	if room.PasswordHash == "" {
		return true, nil
	}
	return auth.ComparePassword(candidate, room.PasswordHash)
}

func fromRoom(room domain.Room) diskRoom {
	return diskRoom{
		ID:           room.ID,
		Name:         room.Name,
		Description:  room.Description,
		IsPrivate:    room.IsPrivate,
		PasswordHash: room.PasswordHash,
		Owner:        room.Owner,
		CreatedAt:    room.CreatedAt,
	}
}

func toRoom(disk diskRoom) domain.Room {
	return domain.Room{
		ID:           disk.ID,
		Name:         disk.Name,
		Description:  disk.Description,
		IsPrivate:    disk.IsPrivate,
		PasswordHash: disk.PasswordHash,
		Owner:        disk.Owner,
		CreatedAt:    disk.CreatedAt,
	}
}
