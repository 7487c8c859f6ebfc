// SPDX-FileCopyrightText: © 2026 Agriscope Robotics
//
// SPDX-License-Identifier: Apache-2.0

package coordinate

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidNameFormat reports a unit name that does not match the naming
// convention of its declared side. Names never pass through untranslated.
var ErrInvalidNameFormat = errors.New("invalid name format")

// nameConvention holds the side-specific prefix tokens for one kind.
// Local bags carry a "rosbag" prefix the remote store omits.
type nameConvention struct {
	localPrefix  string
	remotePrefix string
}

var conventions = map[Kind]nameConvention{
	KindRaw: {localPrefix: "rosbag_", remotePrefix: "_"},
	KindML:  {localPrefix: "rosbag_", remotePrefix: "_"},
}

// LocalToRemote translates a unit name from the local convention to the
// remote one, e.g. "rosbag_2025-08-12-08-54-21_0.bag" -> "_2025-08-12-08-54-21_0.bag".
func LocalToRemote(kind Kind, name string) (string, error) {
	conv, ok := conventions[kind]
	if !ok {
		return "", fmt.Errorf("unknown kind %q", kind)
	}
	if !strings.HasPrefix(name, conv.localPrefix) {
		return "", fmt.Errorf("%w: local %s name %q lacks prefix %q", ErrInvalidNameFormat, kind, name, conv.localPrefix)
	}
	return conv.remotePrefix + strings.TrimPrefix(name, conv.localPrefix), nil
}

// RemoteToLocal is the inverse of LocalToRemote.
func RemoteToLocal(kind Kind, name string) (string, error) {
	conv, ok := conventions[kind]
	if !ok {
		return "", fmt.Errorf("unknown kind %q", kind)
	}
	if !strings.HasPrefix(name, conv.remotePrefix) {
		return "", fmt.Errorf("%w: remote %s name %q lacks prefix %q", ErrInvalidNameFormat, kind, name, conv.remotePrefix)
	}
	return conv.localPrefix + strings.TrimPrefix(name, conv.remotePrefix), nil
}
