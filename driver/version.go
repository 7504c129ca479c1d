// SPDX-License-Identifier: Unlicense OR MIT

package driver

import (
	"fmt"
	"strings"
)

// Version is a major.minor API version.
type Version struct {
	Major, Minor int
}

// ParseVersion parses GL_VERSION style strings: "4.6.0 NVIDIA 535.1",
// "OpenGL ES 3.2 Mesa", "WebGL 2.0" or a bare "3.2".
func ParseVersion(s string) (Version, error) {
	var v Version
	s = strings.TrimSpace(s)
	if _, err := fmt.Sscanf(s, "OpenGL ES %d.%d", &v.Major, &v.Minor); err == nil {
		return v, nil
	} else if _, err := fmt.Sscanf(s, "WebGL %d.%d", &v.Major, &v.Minor); err == nil {
		// WebGL major version v corresponds to OpenGL ES version v + 1
		v.Major++
		return v, nil
	} else if _, err := fmt.Sscanf(s, "%d.%d", &v.Major, &v.Minor); err == nil {
		return v, nil
	}
	return Version{}, fmt.Errorf("failed to parse version (%s)", s)
}

// AtLeast reports whether v >= o.
func (v Version) AtLeast(o Version) bool {
	return v.Major > o.Major || v.Major == o.Major && v.Minor >= o.Minor
}

// Less reports whether v < o.
func (v Version) Less(o Version) bool {
	return !v.AtLeast(o)
}

func (v Version) IsZero() bool {
	return v == Version{}
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}
