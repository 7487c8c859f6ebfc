// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package discovery

import (
	"testing"

	"github.com/agriscope/fieldsync/sync/coordinate"
	"github.com/agriscope/fieldsync/sync/state"
)

type stubScanner struct {
	raw map[coordinate.Coordinate]state.RawStatus
	ml  map[coordinate.Coordinate]state.MLStatus
}

func (s *stubScanner) RawStatus(c coordinate.Coordinate) (state.RawStatus, error) {
	return s.raw[c], nil
}
func (s *stubScanner) MLStatus(c coordinate.Coordinate) (state.MLStatus, error) {
	return s.ml[c], nil
}
func (s *stubScanner) AllRawStatuses() (map[coordinate.Coordinate]state.RawStatus, error) {
	return s.raw, nil
}
func (s *stubScanner) AllMLStatuses() (map[coordinate.Coordinate]state.MLStatus, error) {
	return s.ml, nil
}

type stubRemote struct {
	raw map[coordinate.Coordinate]state.RawStatus
	ml  map[coordinate.Coordinate]state.MLStatus
}

func (s *stubRemote) RawStatus(c coordinate.Coordinate) state.RawStatus { return s.raw[c] }
func (s *stubRemote) MLStatus(c coordinate.Coordinate) state.MLStatus   { return s.ml[c] }
func (s *stubRemote) AllRawStatuses() map[coordinate.Coordinate]state.RawStatus {
	return s.raw
}
func (s *stubRemote) AllMLStatuses() map[coordinate.Coordinate]state.MLStatus {
	return s.ml
}

func coord(t *testing.T, client string) coordinate.Coordinate {
	t.Helper()
	c, err := coordinate.New(client, "r1", "f1", "tw1", "lb1", "ts1")
	if err != nil {
		t.Fatalf("coordinate: %v", err)
	}
	return c
}

func TestAllCoordinatesUnion(t *testing.T) {
	onlyLocal := coord(t, "local")
	onlyRemote := coord(t, "remote")
	both := coord(t, "both")

	svc := NewService(
		&stubScanner{raw: map[coordinate.Coordinate]state.RawStatus{
			onlyLocal: {Exists: true, BagCount: 1},
			both:      {Exists: true, BagCount: 2},
		}},
		&stubRemote{raw: map[coordinate.Coordinate]state.RawStatus{
			onlyRemote: {Exists: true, BagCount: 3},
			both:       {Exists: true, BagCount: 2},
		}},
		nil,
	)

	all, err := svc.AllCoordinates(coordinate.KindRaw)
	if err != nil {
		t.Fatalf("AllCoordinates: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected the union of 3 coordinates, got %d", len(all))
	}
	if p := all[onlyLocal]; !p.Local || p.Remote {
		t.Fatalf("local-only presence wrong: %+v", p)
	}
	if p := all[onlyRemote]; p.Local || !p.Remote {
		t.Fatalf("remote-only presence wrong: %+v", p)
	}
	if p := all[both]; !p.Local || !p.Remote {
		t.Fatalf("both-sides presence wrong: %+v", p)
	}
}

func TestAllCoordinatesIgnoresEmptyStatuses(t *testing.T) {
	empty := coord(t, "empty")
	svc := NewService(
		&stubScanner{raw: map[coordinate.Coordinate]state.RawStatus{empty: {}}},
		&stubRemote{},
		nil,
	)
	all, err := svc.AllCoordinates(coordinate.KindRaw)
	if err != nil {
		t.Fatalf("AllCoordinates: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("empty statuses must not register a presence: %v", all)
	}
}

func TestAllCoordinatesUnknownKind(t *testing.T) {
	svc := NewService(&stubScanner{}, &stubRemote{}, nil)
	if _, err := svc.AllCoordinates(coordinate.Kind("video")); err == nil {
		t.Fatalf("unknown kind must error")
	}
}

func TestStatusCombinesSides(t *testing.T) {
	c := coord(t, "c1")
	svc := NewService(
		&stubScanner{
			raw: map[coordinate.Coordinate]state.RawStatus{c: {Exists: true, BagCount: 2}},
			ml:  map[coordinate.Coordinate]state.MLStatus{},
		},
		&stubRemote{
			raw: map[coordinate.Coordinate]state.RawStatus{c: {Exists: true, BagCount: 3}},
			ml:  map[coordinate.Coordinate]state.MLStatus{c: {Exists: true, SampleCount: 5}},
		},
		nil,
	)

	ov, err := svc.Status(c)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if ov.LocalRaw.BagCount != 2 || ov.RemoteRaw.BagCount != 3 {
		t.Fatalf("raw sides wrong: %+v", ov)
	}
	if ov.LocalML.Exists || ov.RemoteML.SampleCount != 5 {
		t.Fatalf("ml sides wrong: %+v", ov)
	}
}
