// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

// Package state holds the transient status models both storage sides
// produce. Unit names are always in the native convention of the side that
// produced the status; translation happens only when comparing sides.
package state

import "github.com/agriscope/fieldsync/sync/coordinate"

// RawStatus describes the bags of one coordinate on one side.
type RawStatus struct {
	Exists    bool             `json:"exists"`
	BagCount  int              `json:"bagCount"`
	BagNames  []string         `json:"bagNames,omitempty"`
	BagSizes  map[string]int64 `json:"bagSizes,omitempty"`
	TotalSize int64            `json:"totalSize"`
}

// BagFiles is the per-bag frame/label breakdown of the ML structure.
type BagFiles struct {
	Frames map[string]int64 `json:"frames,omitempty"`
	Labels map[string]int64 `json:"labels,omitempty"`
}

// Files returns the name->size map for a file type, nil for unknown types.
func (b *BagFiles) Files(fileType string) map[string]int64 {
	switch fileType {
	case coordinate.FileTypeFrames:
		return b.Frames
	case coordinate.FileTypeLabels:
		return b.Labels
	default:
		return nil
	}
}

// MLStatus describes the ML samples of one coordinate on one side.
// SampleCount counts label files: labels represent annotated samples.
type MLStatus struct {
	Exists      bool                 `json:"exists"`
	SampleCount int                  `json:"sampleCount"`
	Bags        map[string]*BagFiles `json:"bags,omitempty"`
	TotalSize   int64                `json:"totalSize"`
}
