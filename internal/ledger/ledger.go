// Package ledger keeps judgments addressable by their judgment id so that
// fusion requests and outcome records can refer to earlier results.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/ppiankov/trustfuse/internal/model"
	"github.com/ppiankov/trustfuse/internal/seal"
)

// ErrInvalidID is returned for ids that are not judgment ids
var ErrInvalidID = errors.New("invalid judgment id")

// Store defines the interface for judgment storage
type Store interface {
	Get(id string) (*model.Judgment, bool)
	Put(j *model.Judgment, ttl time.Duration) (string, error)
	Delete(id string) error
	Clear() error
}

// ID returns the key a judgment is stored under. The key covers seals, so a
// stored judgment is never replaced by one that differs only in its seal.
func ID(j *model.Judgment) string {
	return seal.RecordID(j)
}

// Key namespaces a judgment id for shared key spaces
func Key(id string) string {
	return "trustfuse:v1:" + id
}

func checkID(id string) error {
	if !seal.IsWellFormed(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
