package realtime

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// NewPushKey returns a new child key. Keys made by one process sort in
// creation order, so ordering by key orders by creation.
func NewPushKey() string {
	return ulid.Make().String()
}

// PushKeyTime returns the creation time encoded in a push key.
func PushKeyTime(key string) (time.Time, bool) {
	id, err := ulid.ParseStrict(key)
	if err != nil {
		return time.Time{}, false
	}
	return ulid.Time(id.Time()), true
}
