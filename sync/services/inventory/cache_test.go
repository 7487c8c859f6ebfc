// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package inventory_test

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/agriscope/fieldsync/sync/config"
	"github.com/agriscope/fieldsync/sync/coordinate"
	"github.com/agriscope/fieldsync/sync/services/inventory"
)

type remoteObject struct {
	key  string
	size int64
}

// fakeStore serves canned listings per bucket and counts walk calls.
type fakeStore struct {
	buckets map[string][]remoteObject
	err     error
	calls   int
}

func (f *fakeStore) WalkPrefix(_ context.Context, bucket, prefix string, _ int32, fn func(key string, size int64) error) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	for _, o := range f.buckets[bucket] {
		if !strings.HasPrefix(o.key, prefix) {
			continue
		}
		if err := fn(o.key, o.size); err != nil {
			return err
		}
	}
	return nil
}

func newPaths(t *testing.T) *coordinate.PathBuilder {
	t.Helper()
	root := t.TempDir()
	return coordinate.NewPathBuilder(
		filepath.Join(root, "raw"),
		filepath.Join(root, "ml"),
		filepath.Join(root, "processed"),
		map[coordinate.Kind]string{coordinate.KindRaw: "raw-bucket", coordinate.KindML: "ml-bucket"},
	)
}

func testStore() *fakeStore {
	return &fakeStore{buckets: map[string][]remoteObject{
		"raw-bucket": {
			{"c1/r1/f1/tw1/lb1/ts1/rosbag/_a_0.bag", 100},
			{"c1/r1/f1/tw1/lb1/ts1/rosbag/_a_1.bag", 200},
			{"c2/r2/f2/tw2/lb2/ts2/rosbag/_b_0.bag", 50},
			{"c1/r1/f1/tw1/lb1/ts1/notes.txt", 5}, // outside layout
			{"too/short/key.bag", 1},              // too shallow
		},
		"ml-bucket": {
			{"raw/c1/r1/f1/tw1/lb1/ts1/rosbag/_a_0/frames/f1.jpg", 10},
			{"raw/c1/r1/f1/tw1/lb1/ts1/rosbag/_a_0/frames/f2.jpg", 10},
			{"raw/c1/r1/f1/tw1/lb1/ts1/rosbag/_a_0/labels/f1.txt", 1},
			{"raw/c1/r1/f1/tw1/lb1/ts1/rosbag/_a_0/masks/x.png", 9}, // unknown type
		},
	}}
}

func mustCoord(t *testing.T, levels ...string) coordinate.Coordinate {
	t.Helper()
	c, err := coordinate.New(levels[0], levels[1], levels[2], levels[3], levels[4], levels[5])
	if err != nil {
		t.Fatalf("coordinate: %v", err)
	}
	return c
}

func TestRefreshBuildsSnapshot(t *testing.T) {
	store := testStore()
	svc := inventory.NewService(store, newPaths(t), config.CacheConfig{}, nil)

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	c1 := mustCoord(t, "c1", "r1", "f1", "tw1", "lb1", "ts1")
	raw := svc.RawStatus(c1)
	if !raw.Exists || raw.BagCount != 2 || raw.TotalSize != 300 {
		t.Fatalf("unexpected raw status: %+v", raw)
	}
	if raw.BagNames[0] != "_a_0.bag" {
		t.Fatalf("remote names must stay in remote convention: %v", raw.BagNames)
	}

	ml := svc.MLStatus(c1)
	if !ml.Exists || ml.SampleCount != 1 {
		t.Fatalf("unexpected ml status: %+v", ml)
	}
	if bag := ml.Bags["_a_0"]; bag == nil || len(bag.Frames) != 2 || len(bag.Labels) != 1 {
		t.Fatalf("unexpected ml breakdown: %+v", ml.Bags)
	}
}

// Keys that are deeper or shallower than the coordinate layout must be
// dropped entirely, never filed under the coordinate their first segments
// happen to spell.
func TestRefreshSkipsMisshapenKeys(t *testing.T) {
	store := &fakeStore{buckets: map[string][]remoteObject{
		"raw-bucket": {
			// one extra hierarchy segment before the rosbag marker
			{"c1/r1/f1/tw1/lb1/ts1/extra/rosbag/_x_0.bag", 10},
			// rosbag marker in the wrong position
			{"c1/r1/f1/tw1/lb1/rosbag/ts1/_x_0.bag", 10},
			{"too/short/key.bag", 1},
		},
		"ml-bucket": {
			// extra segment between bag and file type
			{"raw/c1/r1/f1/tw1/lb1/ts1/rosbag/_x_0/extra/frames/f1.jpg", 10},
			{"raw/c1/r1/f1/tw1/lb1/ts1/rosbag/_x_0/frames", 10},
		},
	}}
	svc := inventory.NewService(store, newPaths(t), config.CacheConfig{}, nil)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	c1 := mustCoord(t, "c1", "r1", "f1", "tw1", "lb1", "ts1")
	if raw := svc.RawStatus(c1); raw.Exists {
		t.Fatalf("misshapen raw key filed under its first six segments: %+v", raw)
	}
	if ml := svc.MLStatus(c1); ml.Exists || len(ml.Bags) != 0 {
		t.Fatalf("misshapen ml key filed under its first segments: %+v", ml)
	}
	info := svc.Info()
	if info.RawCoordinates != 0 || info.MLCoordinates != 0 {
		t.Fatalf("misshapen keys must not create coordinates: %+v", info)
	}
}

func TestQueriesNeverTouchTheStore(t *testing.T) {
	store := testStore()
	svc := inventory.NewService(store, newPaths(t), config.CacheConfig{}, nil)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	calls := store.calls

	c := mustCoord(t, "c2", "r2", "f2", "tw2", "lb2", "ts2")
	_ = svc.RawStatus(c)
	_ = svc.MLStatus(c)
	_ = svc.AllRawStatuses()
	_ = svc.AllMLStatuses()
	_ = svc.HierarchyLevel(coordinate.KindRaw)
	_ = svc.PathExists(coordinate.KindRaw, "c1")

	if store.calls != calls {
		t.Fatalf("query methods hit the store: %d extra calls", store.calls-calls)
	}
}

func TestRefreshFailureRetainsPrevious(t *testing.T) {
	store := testStore()
	svc := inventory.NewService(store, newPaths(t), config.CacheConfig{}, nil)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	store.err = errors.New("connection reset")
	err := svc.Refresh(context.Background())
	if !errors.Is(err, inventory.ErrRefreshFailed) {
		t.Fatalf("expected ErrRefreshFailed, got %v", err)
	}

	c1 := mustCoord(t, "c1", "r1", "f1", "tw1", "lb1", "ts1")
	if raw := svc.RawStatus(c1); !raw.Exists {
		t.Fatalf("previous snapshot lost after failed refresh")
	}
}

func TestMarkStaleTriggersRefresh(t *testing.T) {
	store := testStore()
	svc := inventory.NewService(store, newPaths(t), config.CacheConfig{}, nil)
	if _, err := svc.FullInventory(context.Background(), false); err != nil {
		t.Fatalf("initial inventory: %v", err)
	}
	calls := store.calls

	// not stale: answered from memory
	if _, err := svc.FullInventory(context.Background(), false); err != nil {
		t.Fatalf("cached inventory: %v", err)
	}
	if store.calls != calls {
		t.Fatalf("fresh cache must not refresh")
	}

	svc.MarkStale("uploaded 2 bags")
	if stale, reason := svc.Stale(); !stale || reason != "uploaded 2 bags" {
		t.Fatalf("stale flag not recorded: %v %q", stale, reason)
	}

	if _, err := svc.FullInventory(context.Background(), false); err != nil {
		t.Fatalf("stale inventory: %v", err)
	}
	if store.calls == calls {
		t.Fatalf("stale cache must refresh")
	}
	if stale, _ := svc.Stale(); stale {
		t.Fatalf("staleness must clear after a successful refresh")
	}
}

func TestPersistedSnapshotRoundTrip(t *testing.T) {
	store := testStore()
	cacheFile := filepath.Join(t.TempDir(), "inventory.json")
	paths := newPaths(t)

	svc := inventory.NewService(store, paths, config.CacheConfig{File: cacheFile, MaxAge: time.Hour}, nil)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// a fresh service must answer from disk without listing
	reloaded := inventory.NewService(&fakeStore{err: errors.New("offline")}, paths,
		config.CacheConfig{File: cacheFile, MaxAge: time.Hour}, nil)

	c1 := mustCoord(t, "c1", "r1", "f1", "tw1", "lb1", "ts1")
	raw := reloaded.RawStatus(c1)
	if !raw.Exists || raw.BagCount != 2 {
		t.Fatalf("persisted snapshot not loaded: %+v", raw)
	}
	ml := reloaded.MLStatus(c1)
	if ml.SampleCount != 1 {
		t.Fatalf("ml leaves lost in round trip: %+v", ml)
	}
}

func TestExpiredPersistedSnapshotIgnored(t *testing.T) {
	store := testStore()
	cacheFile := filepath.Join(t.TempDir(), "inventory.json")
	paths := newPaths(t)

	svc := inventory.NewService(store, paths, config.CacheConfig{File: cacheFile, MaxAge: time.Hour}, nil)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// max age of one nanosecond: the file on disk is already too old
	reloaded := inventory.NewService(store, paths,
		config.CacheConfig{File: cacheFile, MaxAge: time.Nanosecond}, nil)

	c1 := mustCoord(t, "c1", "r1", "f1", "tw1", "lb1", "ts1")
	if raw := reloaded.RawStatus(c1); raw.Exists {
		t.Fatalf("expired snapshot must not be adopted")
	}
}

func TestHierarchyNavigation(t *testing.T) {
	store := testStore()
	svc := inventory.NewService(store, newPaths(t), config.CacheConfig{}, nil)
	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	top := svc.HierarchyLevel(coordinate.KindRaw)
	if len(top) != 2 || top[0] != "c1" || top[1] != "c2" {
		t.Fatalf("unexpected top level: %v", top)
	}
	if got := svc.HierarchyLevel(coordinate.KindRaw, "c1", "r1"); len(got) != 1 || got[0] != "f1" {
		t.Fatalf("unexpected drill-down: %v", got)
	}
	if !svc.PathExists(coordinate.KindRaw, "c2", "r2") {
		t.Fatalf("existing path reported absent")
	}
	if svc.PathExists(coordinate.KindRaw, "c2", "r9") {
		t.Fatalf("absent path reported present")
	}

	info := svc.Info()
	if info.RawCoordinates != 2 || info.MLCoordinates != 1 {
		t.Fatalf("unexpected cache info: %+v", info)
	}
}
