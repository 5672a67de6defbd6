package repositories

import (
	"context"
	"time"

	"rendezvous/domain"

	"github.com/dgraph-io/badger/v4"
)

// ActivityRepository is the Badger read model of upcoming activities.
type ActivityRepository struct {
	index timeIndex
}

func NewActivityRepository(db *badger.DB) *ActivityRepository {
	return &ActivityRepository{index: timeIndex{db: db, kind: "activity"}}
}

type diskActivity struct {
	ID           string   `cbor:"1,keyasint"`
	Name         string   `cbor:"2,keyasint"`
	StartsAt     int64    `cbor:"3,keyasint"`
	Creator      string   `cbor:"4,keyasint"`
	Participants []string `cbor:"5,keyasint"`
}

// SaveActivity inserts or reschedules an activity.
func (a *ActivityRepository) SaveActivity(_ context.Context, activity domain.Activity) error {
	bytes, err := encode(diskActivity{
		ID:           activity.ID,
		Name:         activity.Name,
		StartsAt:     activity.StartsAt.UnixNano(),
		Creator:      activity.Creator,
		Participants: activity.Participants,
	})
	if err != nil {
		return err
	}
	return a.index.put(activity.ID, activity.StartsAt, bytes)
}

func (a *ActivityRepository) DeleteActivity(_ context.Context, id string) error {
	return a.index.remove(id)
}

// UpcomingActivities returns activities starting in [from, to], earliest first.
func (a *ActivityRepository) UpcomingActivities(_ context.Context, from, to time.Time) ([]domain.Activity, error) {
	var res []domain.Activity
	err := a.index.scan(from, to, func(item *badger.Item) error {
		var da diskActivity
		if err := decodeItem(item, &da); err != nil {
			return err
		}
		res = append(res, domain.Activity{
			ID:           da.ID,
			Name:         da.Name,
			StartsAt:     time.Unix(0, da.StartsAt),
			Creator:      da.Creator,
			Participants: da.Participants,
		})
		return nil
	})
	return res, err
}
