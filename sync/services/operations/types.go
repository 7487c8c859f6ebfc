// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package operations

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/agriscope/fieldsync/sync/coordinate"
)

// Operation names one of the four transfer directions.
type Operation string

const (
	OpRawDownload Operation = "raw-download"
	OpRawUpload   Operation = "raw-upload"
	OpMLDownload  Operation = "ml-download"
	OpMLUpload    Operation = "ml-upload"
)

// ErrUnknownOperation reports an operation name outside the four above.
var ErrUnknownOperation = errors.New("unknown operation")

// ErrUnknownConflictPolicy reports an unparsable conflict policy. It is
// raised during validation, before any discovery happens.
var ErrUnknownConflictPolicy = errors.New("unknown conflict policy")

// ErrDiscoveryFailed wraps failures of the discovery phases; nothing has
// been transferred when it is returned.
var ErrDiscoveryFailed = errors.New("discovery failed")

// ConflictPolicy decides what happens with units present on both sides
// with differing sizes.
type ConflictPolicy string

const (
	// PolicySkip reports conflicts without transferring them.
	PolicySkip ConflictPolicy = "skip"
	// PolicyOverwrite transfers conflicting units, replacing the target.
	PolicyOverwrite ConflictPolicy = "overwrite"
)

// ParsePolicy validates a policy string; empty falls back to skip.
func ParsePolicy(s string) (ConflictPolicy, error) {
	switch ConflictPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", PolicySkip:
		return PolicySkip, nil
	case PolicyOverwrite:
		return PolicyOverwrite, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownConflictPolicy, s)
	}
}

// Selection narrows an operation to a subset of units. Empty slices mean
// no filter. Bag names use the local convention regardless of direction.
type Selection struct {
	Bags      []string
	FileTypes []string
}

func (s Selection) wantsBag(localName string) bool {
	if len(s.Bags) == 0 {
		return true
	}
	for _, b := range s.Bags {
		if b == localName {
			return true
		}
	}
	return false
}

func (s Selection) wantsFileType(fileType string) bool {
	if len(s.FileTypes) == 0 {
		return true
	}
	for _, ft := range s.FileTypes {
		if ft == fileType {
			return true
		}
	}
	return false
}

// Job is one transfer request for one coordinate.
type Job struct {
	Operation  Operation
	Coordinate coordinate.Coordinate
	Policy     ConflictPolicy
	DryRun     bool
	Selection  Selection
}

// TransferItem is one planned file movement, fully resolved on both sides.
// Overwrite marks an item promoted from the conflict list: the target holds
// a differing copy that will be replaced.
type TransferItem struct {
	Name      string `json:"name"` // unit name in local convention
	LocalPath string `json:"localPath"`
	Bucket    string `json:"bucket"`
	RemoteKey string `json:"remoteKey"`
	Size      int64  `json:"size"`
	Overwrite bool   `json:"overwrite,omitempty"`
}

// Conflict is a unit present on both sides with differing sizes.
type Conflict struct {
	Name       string `json:"name"`
	LocalSize  int64  `json:"localSize"`
	RemoteSize int64  `json:"remoteSize"`
}

// TransferPlan is the output of the planning phase: what would move, what
// is contested, and what is already in sync.
type TransferPlan struct {
	Items      []TransferItem `json:"items"`
	Conflicts  []Conflict     `json:"conflicts,omitempty"`
	InSync     int            `json:"inSync"`
	TotalBytes int64          `json:"totalBytes"`
}

// ItemResult records the outcome of one item. Cancelled marks an item the
// run gave up on because the context ended: it never started, or was cut
// off mid-flight. Cancelled items carry no Error.
type ItemResult struct {
	Item      TransferItem  `json:"item"`
	Error     string        `json:"error,omitempty"`
	Cancelled bool          `json:"cancelled,omitempty"`
	Took      time.Duration `json:"took"`
}

// TransferResult is the full record of one executed (or dry-run) job.
type TransferResult struct {
	OperationID string                `json:"operationId"`
	Operation   Operation             `json:"operation"`
	Coordinate  coordinate.Coordinate `json:"coordinate"`
	DryRun      bool                  `json:"dryRun"`

	Planned     int        `json:"planned"`
	Transferred int        `json:"transferred"`
	Failed      int        `json:"failed"`
	Cancelled   int        `json:"cancelled"`
	InSync      int        `json:"inSync"`
	Conflicts   []Conflict `json:"conflicts,omitempty"`

	Items []ItemResult  `json:"items,omitempty"`
	Bytes int64         `json:"bytes"`
	Took  time.Duration `json:"took"`
}

// OverallSuccess: a run succeeds when nothing failed. A run with zero
// planned items is a successful no-op, and a cancelled run is a partial
// completion, not a failure.
func (r *TransferResult) OverallSuccess() bool { return r.Failed == 0 }

// NothingToDo reports whether planning found no items to move.
func (r *TransferResult) NothingToDo() bool { return r.Planned == 0 }
