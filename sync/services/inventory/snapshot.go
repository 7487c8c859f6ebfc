// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package inventory

import (
	"sort"
	"strings"
	"time"

	"github.com/agriscope/fieldsync/sync/coordinate"
	"github.com/agriscope/fieldsync/sync/state"
)

// Node is one level of the six-deep remote hierarchy. Interior nodes carry
// children; leaves (depth 6) carry the per-unit payload for their kind.
// Absent branches are simply missing, never null-filled.
type Node struct {
	Children map[string]*Node `json:"children,omitempty"`

	// raw leaf: bag name -> size
	Bags map[string]int64 `json:"bags,omitempty"`

	// ml leaf: bag name -> frame/label file maps
	BagFiles map[string]*state.BagFiles `json:"bagFiles,omitempty"`
}

func (n *Node) child(name string) *Node {
	if n.Children == nil {
		n.Children = map[string]*Node{}
	}
	c, ok := n.Children[name]
	if !ok {
		c = &Node{}
		n.Children[name] = c
	}
	return c
}

// find navigates levels without creating anything; nil when absent.
func (n *Node) find(levels []string) *Node {
	current := n
	for _, level := range levels {
		if current == nil || current.Children == nil {
			return nil
		}
		current = current.Children[level]
	}
	return current
}

// walkLeaves visits every depth-6 leaf with its coordinate.
func (n *Node) walkLeaves(fn func(coord coordinate.Coordinate, leaf *Node)) {
	var walk func(node *Node, levels []string)
	walk = func(node *Node, levels []string) {
		if len(levels) == 6 {
			coord, err := coordinate.New(levels[0], levels[1], levels[2], levels[3], levels[4], levels[5])
			if err == nil {
				fn(coord, node)
			}
			return
		}
		for name, child := range node.Children {
			walk(child, append(levels[:len(levels):len(levels)], name))
		}
	}
	if n != nil {
		walk(n, nil)
	}
}

func (n *Node) countCoordinates() int {
	count := 0
	n.walkLeaves(func(coordinate.Coordinate, *Node) { count++ })
	return count
}

// Metadata describes how and when the snapshot was built.
type Metadata struct {
	LastRefresh  time.Time         `json:"lastRefresh"`
	Buckets      map[string]string `json:"buckets,omitempty"`
	ObjectCounts map[string]int    `json:"objectCounts,omitempty"`
	Version      string            `json:"version"`
}

// Snapshot is one immutable-by-convention view of the whole remote
// namespace. The cache service swaps whole snapshots, never mutates one
// that has been published.
type Snapshot struct {
	Raw  *Node    `json:"raw,omitempty"`
	ML   *Node    `json:"ml,omitempty"`
	Meta Metadata `json:"metadata"`
}

const snapshotVersion = "1"

func newSnapshot() *Snapshot {
	return &Snapshot{
		Raw: &Node{},
		ML:  &Node{},
		Meta: Metadata{
			ObjectCounts: map[string]int{},
			Version:      snapshotVersion,
		},
	}
}

func (s *Snapshot) tree(kind coordinate.Kind) *Node {
	switch kind {
	case coordinate.KindRaw:
		return s.Raw
	case coordinate.KindML:
		return s.ML
	default:
		return nil
	}
}

// addRawObject files an object key of the raw bucket into the tree.
// Exactly: client/region/field/timeWindow/labelBatch/timestamp/rosbag/<bag>.bag
// Returns false for keys that do not match that shape — a deeper or
// shallower key must never be misfiled under a coordinate it is not part of.
func (s *Snapshot) addRawObject(key string, size int64) bool {
	parts := strings.Split(key, "/")
	if len(parts) != 8 || parts[6] != "rosbag" || !strings.HasSuffix(parts[7], ".bag") {
		return false
	}
	leaf := s.Raw
	for _, level := range parts[:6] {
		leaf = leaf.child(level)
	}
	if leaf.Bags == nil {
		leaf.Bags = map[string]int64{}
	}
	leaf.Bags[parts[7]] = size
	s.Meta.ObjectCounts[string(coordinate.KindRaw)]++
	return true
}

// addMLObject files an object key of the ml bucket into the tree.
// Exactly: raw/<6 levels>/rosbag/<bag>/<frames|labels>/<file>
func (s *Snapshot) addMLObject(key string, size int64) bool {
	parts := strings.Split(key, "/")
	if len(parts) != 11 || parts[0] != "raw" || parts[7] != "rosbag" {
		return false
	}
	bag, fileType, name := parts[8], parts[9], parts[10]
	if fileType != coordinate.FileTypeFrames && fileType != coordinate.FileTypeLabels {
		return false
	}
	leaf := s.ML
	for _, level := range parts[1:7] {
		leaf = leaf.child(level)
	}
	if leaf.BagFiles == nil {
		leaf.BagFiles = map[string]*state.BagFiles{}
	}
	files, ok := leaf.BagFiles[bag]
	if !ok {
		files = &state.BagFiles{Frames: map[string]int64{}, Labels: map[string]int64{}}
		leaf.BagFiles[bag] = files
	}
	files.Files(fileType)[name] = size
	s.Meta.ObjectCounts[string(coordinate.KindML)]++
	return true
}

// rawStatus derives a transient RawStatus from a leaf; maps are copied so
// callers never hold references into the snapshot.
func rawStatus(leaf *Node) state.RawStatus {
	if leaf == nil || len(leaf.Bags) == 0 {
		return state.RawStatus{}
	}
	status := state.RawStatus{BagSizes: make(map[string]int64, len(leaf.Bags))}
	for name, size := range leaf.Bags {
		status.BagNames = append(status.BagNames, name)
		status.BagSizes[name] = size
		status.TotalSize += size
	}
	sort.Strings(status.BagNames)
	status.BagCount = len(status.BagNames)
	status.Exists = true
	return status
}

func mlStatus(leaf *Node) state.MLStatus {
	if leaf == nil || len(leaf.BagFiles) == 0 {
		return state.MLStatus{}
	}
	status := state.MLStatus{Bags: make(map[string]*state.BagFiles, len(leaf.BagFiles))}
	for bag, files := range leaf.BagFiles {
		copied := &state.BagFiles{
			Frames: make(map[string]int64, len(files.Frames)),
			Labels: make(map[string]int64, len(files.Labels)),
		}
		for name, size := range files.Frames {
			copied.Frames[name] = size
			status.TotalSize += size
		}
		for name, size := range files.Labels {
			copied.Labels[name] = size
			status.TotalSize += size
			status.SampleCount++
		}
		status.Bags[bag] = copied
	}
	status.Exists = status.SampleCount > 0
	return status
}
