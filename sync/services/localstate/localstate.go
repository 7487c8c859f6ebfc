// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

// Package localstate inspects the local filesystem beneath the configured
// roots. It never touches the network and never modifies anything.
package localstate

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/agriscope/fieldsync/sync/coordinate"
	"github.com/agriscope/fieldsync/sync/state"
)

// FilesystemError wraps a local I/O failure other than not-found.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return "filesystem error at " + e.Path + ": " + e.Err.Error()
}

func (e *FilesystemError) Unwrap() error { return e.Err }

type Scanner struct {
	paths  *coordinate.PathBuilder
	logger *zap.Logger
}

func NewScanner(paths *coordinate.PathBuilder, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{paths: paths, logger: logger}
}

// RawStatus reports the locally present bags of a coordinate. A missing
// coordinate directory is absence, not an error.
func (s *Scanner) RawStatus(coord coordinate.Coordinate) (state.RawStatus, error) {
	dir := s.paths.LocalRawDir(coord)

	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return state.RawStatus{}, nil
	}
	if err != nil {
		return state.RawStatus{}, &FilesystemError{Path: dir, Err: err}
	}

	status := state.RawStatus{BagSizes: map[string]int64{}}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".bag") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			s.logger.Warn("could not stat bag file",
				zap.String("path", filepath.Join(dir, entry.Name())), zap.Error(err))
			status.BagSizes[entry.Name()] = 0
			status.BagNames = append(status.BagNames, entry.Name())
			continue
		}
		status.BagNames = append(status.BagNames, entry.Name())
		status.BagSizes[entry.Name()] = info.Size()
		status.TotalSize += info.Size()
	}

	sort.Strings(status.BagNames)
	status.BagCount = len(status.BagNames)
	status.Exists = status.BagCount > 0
	if !status.Exists {
		return state.RawStatus{}, nil
	}
	return status, nil
}

// MLStatus reports the local ML export structure of a coordinate:
// <bag>/<frames|labels>/<file>. Files outside that shape are ignored.
func (s *Scanner) MLStatus(coord coordinate.Coordinate) (state.MLStatus, error) {
	dir := s.paths.LocalMLDir(coord)

	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return state.MLStatus{}, nil
	} else if err != nil {
		return state.MLStatus{}, &FilesystemError{Path: dir, Err: err}
	}

	status := state.MLStatus{Bags: map[string]*state.BagFiles{}}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return &FilesystemError{Path: path, Err: walkErr}
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 3 {
			return nil
		}
		bag, fileType, name := parts[0], parts[1], parts[2]
		if fileType != coordinate.FileTypeFrames && fileType != coordinate.FileTypeLabels {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			s.logger.Warn("could not stat ml file", zap.String("path", path), zap.Error(err))
			return nil
		}

		files, ok := status.Bags[bag]
		if !ok {
			files = &state.BagFiles{Frames: map[string]int64{}, Labels: map[string]int64{}}
			status.Bags[bag] = files
		}
		files.Files(fileType)[name] = info.Size()
		status.TotalSize += info.Size()
		if fileType == coordinate.FileTypeLabels {
			status.SampleCount++
		}
		return nil
	})
	if err != nil {
		return state.MLStatus{}, err
	}

	status.Exists = status.SampleCount > 0
	if len(status.Bags) == 0 {
		return state.MLStatus{}, nil
	}
	return status, nil
}

// AllRawStatuses walks the full raw hierarchy and returns a status per
// discovered coordinate. Partial hierarchies and stray files are skipped.
func (s *Scanner) AllRawStatuses() (map[coordinate.Coordinate]state.RawStatus, error) {
	coords, err := walkCoordinates(s.paths.RawRoot())
	if err != nil {
		return nil, err
	}

	results := make(map[coordinate.Coordinate]state.RawStatus, len(coords))
	for _, coord := range coords {
		status, err := s.RawStatus(coord)
		if err != nil {
			s.logger.Warn("skipping coordinate during raw discovery",
				zap.Stringer("coordinate", coord), zap.Error(err))
			continue
		}
		results[coord] = status
	}
	s.logger.Debug("raw discovery complete", zap.Int("coordinates", len(results)))
	return results, nil
}

// AllMLStatuses walks the full ML hierarchy, same contract as AllRawStatuses.
func (s *Scanner) AllMLStatuses() (map[coordinate.Coordinate]state.MLStatus, error) {
	coords, err := walkCoordinates(s.paths.MLRawRoot())
	if err != nil {
		return nil, err
	}

	results := make(map[coordinate.Coordinate]state.MLStatus, len(coords))
	for _, coord := range coords {
		status, err := s.MLStatus(coord)
		if err != nil {
			s.logger.Warn("skipping coordinate during ml discovery",
				zap.Stringer("coordinate", coord), zap.Error(err))
			continue
		}
		results[coord] = status
	}
	s.logger.Debug("ml discovery complete", zap.Int("coordinates", len(results)))
	return results, nil
}

// walkCoordinates descends exactly six directory levels below root and
// builds a coordinate from each complete path. A missing root yields an
// empty result.
func walkCoordinates(root string) ([]coordinate.Coordinate, error) {
	var coords []coordinate.Coordinate

	var walk func(dir string, levels []string) error
	walk = func(dir string, levels []string) error {
		if len(levels) == 6 {
			coord, err := coordinate.New(levels[0], levels[1], levels[2], levels[3], levels[4], levels[5])
			if err != nil {
				return nil
			}
			coords = append(coords, coord)
			return nil
		}
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return &FilesystemError{Path: dir, Err: err}
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			next := append(levels[:len(levels):len(levels)], entry.Name())
			if err := walk(filepath.Join(dir, entry.Name()), next); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(root, nil); err != nil {
		return nil, err
	}
	return coords, nil
}
