// Package progress defines the per-entry status events emitted during a run.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Stage denotes the milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart     Stage = "RUN_START"
	StageRunDone      Stage = "RUN_DONE"
	StageFetchRetry   Stage = "FETCH_RETRY"
	StageEntrySkipped Stage = "ENTRY_SKIPPED"
	StageEntrySaved   Stage = "ENTRY_SAVED"
	StageEntryError   Stage = "ENTRY_ERROR"
)

// Event captures a single milestone of one run.
type Event struct {
	// RunID identifies the run using the 16-byte UUID form.
	RunID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which milestone occurred.
	Stage Stage
	// URL is the catalog entry URL for entry-scoped stages.
	URL string
	// Artifact is the filename written for ENTRY_SAVED.
	Artifact string
	// Attempt is the fetch attempt number for FETCH_RETRY.
	Attempt int
	// Bytes carries the size of the persisted artifact.
	Bytes int64
	// Dur captures elapsed time for entry completions and RUN_DONE.
	Dur time.Duration
	// Note attaches low-volume context such as error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == [16]byte{} {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StageFetchRetry, StageEntrySkipped, StageEntryError:
		if e.URL == "" {
			return fmt.Errorf("%s requires url", e.Stage)
		}
	case StageEntrySaved:
		if e.URL == "" {
			return errors.New("entry saved requires url")
		}
		if e.Artifact == "" {
			return errors.New("entry saved requires artifact")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// RunUUID converts the binary run ID to uuid.UUID.
func (e Event) RunUUID() uuid.UUID {
	return uuid.UUID(e.RunID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
