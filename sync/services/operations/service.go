// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

// Package operations implements the four transfer directions between the
// local roots and the remote buckets. Every job runs through the same
// fixed phase sequence; only discovery, planning and the per-file mover
// differ per direction.
package operations

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/agriscope/fieldsync/sync/config"
	"github.com/agriscope/fieldsync/sync/coordinate"
	"github.com/agriscope/fieldsync/sync/services/localstate"
	"github.com/agriscope/fieldsync/sync/state"
)

// ObjectStore is the slice of the remote store the engine needs: the
// per-file transfer primitives only. The engine never lists the store
// itself; remote state comes from the inventory cache.
type ObjectStore interface {
	HeadSize(ctx context.Context, bucket, key string) (int64, error)
	DownloadFile(ctx context.Context, bucket, key, localPath string, hook *config.ProgressHook) error
	UploadPath(ctx context.Context, bucket, key, localPath string, hook *config.ProgressHook) error
}

// RemoteIndex is the engine's source of truth for the remote side. Ensure
// makes a snapshot answerable (refreshing when none is loaded or the cache
// is stale), the statuses answer from it, and MarkStale records that a
// transfer changed the remote side under the cache.
type RemoteIndex interface {
	Ensure(ctx context.Context) error
	RawStatus(coord coordinate.Coordinate) state.RawStatus
	MLStatus(coord coordinate.Coordinate) state.MLStatus
	MarkStale(reason string)
}

type Service struct {
	store   ObjectStore
	paths   *coordinate.PathBuilder
	scanner *localstate.Scanner
	cache   RemoteIndex
	cfg     config.TransferConfig
	logger  *zap.Logger
	locks   *keyedLocks

	progress *config.ProgressHook
}

// SetProgress installs a hook observing every transferred byte. Safe to
// leave unset; nil means silent transfers.
func (s *Service) SetProgress(hook *config.ProgressHook) { s.progress = hook }

func NewService(
	store ObjectStore,
	paths *coordinate.PathBuilder,
	scanner *localstate.Scanner,
	cache RemoteIndex,
	cfg config.TransferConfig,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		paths:   paths,
		scanner: scanner,
		cache:   cache,
		cfg:     cfg,
		logger:  logger,
		locks:   newKeyedLocks(),
	}
}

// remoteRawStatus answers remote raw discovery from the inventory cache.
func (s *Service) remoteRawStatus(ctx context.Context, coord coordinate.Coordinate) (state.RawStatus, error) {
	if err := s.cache.Ensure(ctx); err != nil {
		return state.RawStatus{}, err
	}
	return s.cache.RawStatus(coord), nil
}

// remoteMLStatus answers remote ML discovery from the inventory cache.
func (s *Service) remoteMLStatus(ctx context.Context, coord coordinate.Coordinate) (state.MLStatus, error) {
	if err := s.cache.Ensure(ctx); err != nil {
		return state.MLStatus{}, err
	}
	return s.cache.MLStatus(coord), nil
}

// kindOf maps an operation to the data family it moves.
func kindOf(op Operation) coordinate.Kind {
	switch op {
	case OpRawDownload, OpRawUpload:
		return coordinate.KindRaw
	default:
		return coordinate.KindML
	}
}

// Execute runs one job end to end and returns its result. Concurrent jobs
// on the same coordinate and kind are serialized; everything else runs in
// parallel.
func (s *Service) Execute(ctx context.Context, job Job) (*TransferResult, error) {
	var st strategy
	switch job.Operation {
	case OpRawDownload:
		st = &rawDownload{svc: s}
	case OpRawUpload:
		st = &rawUpload{svc: s}
	case OpMLDownload:
		st = &mlDownload{svc: s}
	case OpMLUpload:
		st = &mlUpload{svc: s}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, job.Operation)
	}
	return s.run(ctx, job, st)
}
