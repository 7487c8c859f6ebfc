// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

// Package discovery answers "what exists where" questions across both
// storage sides, combining the local scanner with the remote inventory
// cache. It never lists the remote store directly.
package discovery

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/agriscope/fieldsync/sync/coordinate"
	"github.com/agriscope/fieldsync/sync/state"
)

type localScanner interface {
	RawStatus(c coordinate.Coordinate) (state.RawStatus, error)
	MLStatus(c coordinate.Coordinate) (state.MLStatus, error)
	AllRawStatuses() (map[coordinate.Coordinate]state.RawStatus, error)
	AllMLStatuses() (map[coordinate.Coordinate]state.MLStatus, error)
}

type remoteIndex interface {
	RawStatus(c coordinate.Coordinate) state.RawStatus
	MLStatus(c coordinate.Coordinate) state.MLStatus
	AllRawStatuses() map[coordinate.Coordinate]state.RawStatus
	AllMLStatuses() map[coordinate.Coordinate]state.MLStatus
}

// Presence marks on which sides a coordinate has data of a kind.
type Presence struct {
	Local  bool `json:"local"`
	Remote bool `json:"remote"`
}

// Overview is the full both-sides status of one coordinate.
type Overview struct {
	Coordinate coordinate.Coordinate `json:"coordinate"`
	LocalRaw   state.RawStatus       `json:"localRaw"`
	RemoteRaw  state.RawStatus       `json:"remoteRaw"`
	LocalML    state.MLStatus        `json:"localML"`
	RemoteML   state.MLStatus        `json:"remoteML"`
}

type Service struct {
	scanner localScanner
	remote  remoteIndex
	logger  *zap.Logger
}

func NewService(scanner localScanner, remote remoteIndex, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{scanner: scanner, remote: remote, logger: logger}
}

// AllCoordinates returns the union of coordinates known on either side
// for a kind, with their per-side presence.
func (s *Service) AllCoordinates(kind coordinate.Kind) (map[coordinate.Coordinate]Presence, error) {
	result := map[coordinate.Coordinate]Presence{}

	switch kind {
	case coordinate.KindRaw:
		local, err := s.scanner.AllRawStatuses()
		if err != nil {
			return nil, err
		}
		for coord, st := range local {
			if st.Exists {
				result[coord] = Presence{Local: true}
			}
		}
		for coord, st := range s.remote.AllRawStatuses() {
			if !st.Exists {
				continue
			}
			p := result[coord]
			p.Remote = true
			result[coord] = p
		}
	case coordinate.KindML:
		local, err := s.scanner.AllMLStatuses()
		if err != nil {
			return nil, err
		}
		for coord, st := range local {
			if st.Exists {
				result[coord] = Presence{Local: true}
			}
		}
		for coord, st := range s.remote.AllMLStatuses() {
			if !st.Exists {
				continue
			}
			p := result[coord]
			p.Remote = true
			result[coord] = p
		}
	default:
		return nil, fmt.Errorf("unknown kind %q", kind)
	}

	s.logger.Debug("coordinate discovery complete",
		zap.String("kind", string(kind)), zap.Int("coordinates", len(result)))
	return result, nil
}

// Status builds the both-sides overview of one coordinate.
func (s *Service) Status(coord coordinate.Coordinate) (*Overview, error) {
	localRaw, err := s.scanner.RawStatus(coord)
	if err != nil {
		return nil, err
	}
	localML, err := s.scanner.MLStatus(coord)
	if err != nil {
		return nil, err
	}
	return &Overview{
		Coordinate: coord,
		LocalRaw:   localRaw,
		RemoteRaw:  s.remote.RawStatus(coord),
		LocalML:    localML,
		RemoteML:   s.remote.MLStatus(coord),
	}, nil
}
