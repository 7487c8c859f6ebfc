// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package coordinate

import (
	"fmt"
	"path"
	"path/filepath"
)

// remoteUnitDir is the fixed segment that separates the coordinate levels
// from the bag name in remote object keys.
const remoteUnitDir = "rosbag"

// PathBuilder translates coordinates into local paths and remote object
// keys for every side/kind combination. It is pure: no I/O, only the roots
// and bucket names given at construction.
type PathBuilder struct {
	rawRoot       string
	mlRoot        string
	processedRoot string
	buckets       map[Kind]string
}

func NewPathBuilder(rawRoot, mlRoot, processedRoot string, buckets map[Kind]string) *PathBuilder {
	b := make(map[Kind]string, len(buckets))
	for k, v := range buckets {
		b[k] = v
	}
	return &PathBuilder{
		rawRoot:       rawRoot,
		mlRoot:        mlRoot,
		processedRoot: processedRoot,
		buckets:       b,
	}
}

// BucketName resolves the remote bucket for a kind.
func (pb *PathBuilder) BucketName(kind Kind) (string, error) {
	name, ok := pb.buckets[kind]
	if !ok || name == "" {
		return "", fmt.Errorf("no bucket configured for kind %q", kind)
	}
	return name, nil
}

func (pb *PathBuilder) RawRoot() string { return pb.rawRoot }

// MLRawRoot is the root under which ML coordinate hierarchies live.
func (pb *PathBuilder) MLRawRoot() string { return filepath.Join(pb.mlRoot, "raw") }

/* -------------------- local paths -------------------- */

// LocalDir returns the coordinate-level directory for a kind.
func (pb *PathBuilder) LocalDir(c Coordinate, kind Kind) (string, error) {
	switch kind {
	case KindRaw:
		return pb.LocalRawDir(c), nil
	case KindML:
		return pb.LocalMLDir(c), nil
	default:
		return "", fmt.Errorf("unknown kind %q", kind)
	}
}

func (pb *PathBuilder) LocalRawDir(c Coordinate) string {
	return filepath.Join(append([]string{pb.rawRoot}, c.Levels()...)...)
}

func (pb *PathBuilder) LocalRawBag(c Coordinate, bag string) string {
	return filepath.Join(pb.LocalRawDir(c), bag)
}

func (pb *PathBuilder) LocalMLDir(c Coordinate) string {
	return filepath.Join(append([]string{pb.mlRoot, "raw"}, c.Levels()...)...)
}

func (pb *PathBuilder) LocalMLFile(c Coordinate, bag, fileType, name string) string {
	return filepath.Join(pb.LocalMLDir(c), bag, fileType, name)
}

func (pb *PathBuilder) LocalProcessedDir(c Coordinate) string {
	return filepath.Join(append([]string{pb.processedRoot}, c.Levels()...)...)
}

/* -------------------- remote keys -------------------- */

// RemoteRawPrefix is the object-key prefix covering all raw bags of a
// coordinate, with trailing slash.
func (pb *PathBuilder) RemoteRawPrefix(c Coordinate) string {
	return c.Path() + "/" + remoteUnitDir + "/"
}

func (pb *PathBuilder) RemoteRawKey(c Coordinate, bag string) string {
	return pb.RemoteRawPrefix(c) + bag
}

func (pb *PathBuilder) RemoteMLPrefix(c Coordinate) string {
	return "raw/" + c.Path() + "/" + remoteUnitDir + "/"
}

func (pb *PathBuilder) RemoteMLKey(c Coordinate, bag, fileType, name string) string {
	return path.Join(pb.RemoteMLPrefix(c)+bag, fileType, name)
}
