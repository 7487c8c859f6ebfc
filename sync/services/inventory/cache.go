// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

// Package inventory maintains a persisted snapshot of the remote object
// store so that status queries never hit the network. Only Refresh talks
// to the store; every other method answers from the in-memory snapshot.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agriscope/fieldsync/sync/config"
	"github.com/agriscope/fieldsync/sync/coordinate"
	"github.com/agriscope/fieldsync/sync/state"
)

// ErrRefreshFailed wraps any remote listing failure. The previous snapshot
// stays in place when a refresh fails.
var ErrRefreshFailed = errors.New("inventory refresh failed")

// listPageSize bounds one remote listing page during a refresh.
const listPageSize = 1000

// Lister is the slice of the object store the cache needs. The walk
// streams keys so a refresh never materializes a full bucket listing.
type Lister interface {
	WalkPrefix(ctx context.Context, bucket, prefix string, pageSize int32, fn func(key string, size int64) error) error
}

// CacheInfo summarizes the cache for status displays.
type CacheInfo struct {
	LastRefresh    time.Time `json:"lastRefresh"`
	Age            string    `json:"age"`
	Stale          bool      `json:"stale"`
	StaleReason    string    `json:"staleReason,omitempty"`
	FileSize       int64     `json:"fileSize"`
	RawCoordinates int       `json:"rawCoordinates"`
	MLCoordinates  int       `json:"mlCoordinates"`
}

type Service struct {
	store  Lister
	paths  *coordinate.PathBuilder
	file   string
	maxAge time.Duration
	logger *zap.Logger

	mu          sync.RWMutex
	snapshot    *Snapshot
	stale       bool
	staleReason string
}

// NewService builds the cache and adopts a persisted snapshot younger than
// the configured max age, when one exists. An unreadable or expired file is
// ignored; the first FullInventory call will refresh.
func NewService(store Lister, paths *coordinate.PathBuilder, cfg config.CacheConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:  store,
		paths:  paths,
		file:   cfg.File,
		maxAge: cfg.MaxAge,
		logger: logger,
	}
	s.loadPersisted()
	return s
}

func (s *Service) loadPersisted() {
	if s.file == "" {
		return
	}
	data, err := os.ReadFile(s.file)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn("could not read cache file", zap.String("path", s.file), zap.Error(err))
		}
		return
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("discarding unparsable cache file", zap.String("path", s.file), zap.Error(err))
		return
	}
	age := time.Since(snap.Meta.LastRefresh)
	if s.maxAge > 0 && age > s.maxAge {
		s.logger.Info("persisted cache expired",
			zap.Duration("age", age), zap.Duration("maxAge", s.maxAge))
		return
	}
	s.snapshot = &snap
	s.logger.Info("loaded persisted inventory",
		zap.Time("lastRefresh", snap.Meta.LastRefresh), zap.Duration("age", age))
}

// FullInventory returns the current snapshot, refreshing first when forced,
// when no snapshot exists yet, or when the cache is stale. The returned
// snapshot is read-only by convention.
func (s *Service) FullInventory(ctx context.Context, force bool) (*Snapshot, error) {
	s.mu.RLock()
	snap, needs := s.snapshot, s.stale
	s.mu.RUnlock()

	if force || snap == nil || needs {
		if err := s.Refresh(ctx); err != nil {
			if snap != nil {
				// degraded: answer from the retained snapshot
				s.logger.Warn("refresh failed, serving previous snapshot", zap.Error(err))
				return snap, err
			}
			return nil, err
		}
		s.mu.RLock()
		snap = s.snapshot
		s.mu.RUnlock()
	}
	return snap, nil
}

// Refresh rebuilds the snapshot from a full listing of both buckets,
// persists it, and swaps it in atomically. On any listing error the
// previous snapshot and its staleness are left untouched.
func (s *Service) Refresh(ctx context.Context) error {
	started := time.Now()

	rawBucket, err := s.paths.BucketName(coordinate.KindRaw)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	mlBucket, err := s.paths.BucketName(coordinate.KindML)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}

	snap := newSnapshot()
	snap.Meta.Buckets = map[string]string{
		string(coordinate.KindRaw): rawBucket,
		string(coordinate.KindML):  mlBucket,
	}

	rawObjects := 0
	err = s.store.WalkPrefix(ctx, rawBucket, "", listPageSize, func(key string, size int64) error {
		rawObjects++
		if !snap.addRawObject(key, size) {
			s.logger.Debug("skipping unrecognized raw key", zap.String("key", key))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: raw bucket: %v", ErrRefreshFailed, err)
	}

	mlObjects := 0
	err = s.store.WalkPrefix(ctx, mlBucket, "raw/", listPageSize, func(key string, size int64) error {
		mlObjects++
		if !snap.addMLObject(key, size) {
			s.logger.Debug("skipping unrecognized ml key", zap.String("key", key))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: ml bucket: %v", ErrRefreshFailed, err)
	}

	snap.Meta.LastRefresh = time.Now().UTC()

	if err := s.persist(snap); err != nil {
		// in-memory snapshot is still good, only the disk copy is behind
		s.logger.Warn("could not persist inventory", zap.Error(err))
	}

	s.mu.Lock()
	s.snapshot = snap
	s.stale = false
	s.staleReason = ""
	s.mu.Unlock()

	s.logger.Info("inventory refreshed",
		zap.Int("rawObjects", rawObjects),
		zap.Int("mlObjects", mlObjects),
		zap.Duration("took", time.Since(started)))
	return nil
}

// Ensure makes a queryable snapshot available without forcing a rebuild:
// it refreshes only when no snapshot is loaded yet or the cache is stale.
func (s *Service) Ensure(ctx context.Context) error {
	_, err := s.FullInventory(ctx, false)
	return err
}

func (s *Service) persist(snap *Snapshot) error {
	if s.file == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.file), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.file + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.file)
}

// MarkStale records that the snapshot no longer reflects the remote side.
// The snapshot stays answerable; the flag only clears on a successful
// refresh. Later reasons overwrite earlier ones, the flag never unsets.
func (s *Service) MarkStale(reason string) {
	s.mu.Lock()
	s.stale = true
	s.staleReason = reason
	s.mu.Unlock()
	s.logger.Debug("inventory marked stale", zap.String("reason", reason))
}

// Stale reports the current staleness flag and its reason.
func (s *Service) Stale() (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stale, s.staleReason
}

// RawStatus answers from the snapshot only; it never triggers a refresh.
// No snapshot means everything is absent.
func (s *Service) RawStatus(coord coordinate.Coordinate) state.RawStatus {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap == nil {
		return state.RawStatus{}
	}
	return rawStatus(snap.Raw.find(coord.Levels()))
}

// MLStatus answers from the snapshot only, same contract as RawStatus.
func (s *Service) MLStatus(coord coordinate.Coordinate) state.MLStatus {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap == nil {
		return state.MLStatus{}
	}
	return mlStatus(snap.ML.find(coord.Levels()))
}

// AllRawStatuses enumerates every remote raw coordinate in the snapshot.
func (s *Service) AllRawStatuses() map[coordinate.Coordinate]state.RawStatus {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	results := map[coordinate.Coordinate]state.RawStatus{}
	if snap == nil {
		return results
	}
	snap.Raw.walkLeaves(func(coord coordinate.Coordinate, leaf *Node) {
		results[coord] = rawStatus(leaf)
	})
	return results
}

// AllMLStatuses enumerates every remote ML coordinate in the snapshot.
func (s *Service) AllMLStatuses() map[coordinate.Coordinate]state.MLStatus {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()

	results := map[coordinate.Coordinate]state.MLStatus{}
	if snap == nil {
		return results
	}
	snap.ML.walkLeaves(func(coord coordinate.Coordinate, leaf *Node) {
		results[coord] = mlStatus(leaf)
	})
	return results
}

// HierarchyLevel lists the sorted child names below a partial path, for
// drill-down navigation. An absent path yields an empty slice.
func (s *Service) HierarchyLevel(kind coordinate.Kind, parents ...string) []string {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap == nil {
		return nil
	}
	node := snap.tree(kind).find(parents)
	if node == nil {
		return nil
	}
	names := make([]string, 0, len(node.Children))
	for name := range node.Children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PathExists reports whether a partial hierarchy path is present remotely.
func (s *Service) PathExists(kind coordinate.Kind, parents ...string) bool {
	s.mu.RLock()
	snap := s.snapshot
	s.mu.RUnlock()
	if snap == nil {
		return false
	}
	return snap.tree(kind).find(parents) != nil
}

// Info summarizes the cache state for status displays.
func (s *Service) Info() CacheInfo {
	s.mu.RLock()
	snap, stale, reason := s.snapshot, s.stale, s.staleReason
	s.mu.RUnlock()

	info := CacheInfo{Stale: stale, StaleReason: reason}
	if snap != nil {
		info.LastRefresh = snap.Meta.LastRefresh
		info.Age = time.Since(snap.Meta.LastRefresh).Round(time.Second).String()
		info.RawCoordinates = snap.Raw.countCoordinates()
		info.MLCoordinates = snap.ML.countCoordinates()
	}
	if s.file != "" {
		if st, err := os.Stat(s.file); err == nil {
			info.FileSize = st.Size()
		}
	}
	return info
}
