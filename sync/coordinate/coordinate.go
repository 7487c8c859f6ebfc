// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package coordinate

import (
	"fmt"
	"strings"
)

// Kind selects the data family a path or name belongs to.
type Kind string

const (
	KindRaw Kind = "raw"
	KindML  Kind = "ml"
)

// ML file types nested under a bag directory.
const (
	FileTypeFrames = "frames"
	FileTypeLabels = "labels"
)

// MLFileTypes lists the supported ML file types in canonical order.
var MLFileTypes = []string{FileTypeFrames, FileTypeLabels}

// Coordinate is the six-field key addressing one logical run across both
// storage sides. It is a comparable value type and usable as a map key.
type Coordinate struct {
	Client     string `json:"client"`
	Region     string `json:"region"`
	Field      string `json:"field"`
	TimeWindow string `json:"timeWindow"`
	LabelBatch string `json:"labelBatch"`
	Timestamp  string `json:"timestamp"`
}

// New builds a Coordinate, rejecting empty fields.
func New(client, region, field, timeWindow, labelBatch, timestamp string) (Coordinate, error) {
	c := Coordinate{
		Client:     client,
		Region:     region,
		Field:      field,
		TimeWindow: timeWindow,
		LabelBatch: labelBatch,
		Timestamp:  timestamp,
	}
	for i, level := range c.Levels() {
		if level == "" {
			return Coordinate{}, fmt.Errorf("coordinate level %d is empty", i+1)
		}
	}
	return c, nil
}

// FromPath parses a slash-separated six-segment relative path.
func FromPath(p string) (Coordinate, error) {
	parts := strings.Split(strings.Trim(p, "/"), "/")
	if len(parts) != 6 {
		return Coordinate{}, fmt.Errorf("expected 6 path segments, got %d in %q", len(parts), p)
	}
	return New(parts[0], parts[1], parts[2], parts[3], parts[4], parts[5])
}

// Levels returns the fields in hierarchy order.
func (c Coordinate) Levels() []string {
	return []string{c.Client, c.Region, c.Field, c.TimeWindow, c.LabelBatch, c.Timestamp}
}

// Path returns the slash-joined hierarchical form.
func (c Coordinate) Path() string {
	return strings.Join(c.Levels(), "/")
}

func (c Coordinate) String() string {
	return c.Path()
}
