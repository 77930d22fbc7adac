package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrEnvelopeInvalid = errors.New("stored data envelope failed validation")
)

// SchemaVersion is written into every persisted envelope. Bump on breaking
// changes to the habit schema.
const SchemaVersion = "1.0"

// StoredData is the persistence envelope wrapped around the habit collection.
// It is owned exclusively by the habit store; in-memory lists held by callers
// are copies, never the source of truth.
type StoredData struct {
	Habits      []Habit   `json:"habits"`
	LastUpdated time.Time `json:"last_updated"`
	Version     string    `json:"version"`
}

func NewEnvelope(habits []Habit) StoredData {
	if habits == nil {
		habits = []Habit{}
	}
	return StoredData{
		Habits:      habits,
		LastUpdated: time.Now().UTC(),
		Version:     SchemaVersion,
	}
}

// Validate applies the habit schema to every entry in the envelope.
func (d *StoredData) Validate() error {
	for i := range d.Habits {
		if err := d.Habits[i].Validate(); err != nil {
			return fmt.Errorf("%w: habit %d (%s): %v", ErrEnvelopeInvalid, i, d.Habits[i].ID, err)
		}
	}
	return nil
}
