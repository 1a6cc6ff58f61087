// Package release resolves loose toolchain version strings against the
// remote release index.
package release

import (
	"fmt"
	"regexp"
	"strconv"

	"embedup/internal/platform/errors"
)

// Version is an extended four-component release identifier. The fourth
// "subpatch" component disambiguates multiple toolchain builds cut against
// one upstream compiler release.
type Version struct {
	Major    int
	Minor    int
	Patch    int
	Subpatch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", v.Major, v.Minor, v.Patch, v.Subpatch)
}

// Prefix renders the three-component form without the subpatch.
func (v Version) Prefix() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

var (
	reThreePart = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)$`)
	reFourPart  = regexp.MustCompile(`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)$`)
)

// ParseRequest classifies a user-supplied version string. It returns the
// parsed components and whether the subpatch was given explicitly.
func ParseRequest(s string) (Version, bool, error) {
	if m := reFourPart.FindStringSubmatch(s); m != nil {
		return Version{
			Major:    mustAtoi(m[1]),
			Minor:    mustAtoi(m[2]),
			Patch:    mustAtoi(m[3]),
			Subpatch: mustAtoi(m[4]),
		}, true, nil
	}
	if m := reThreePart.FindStringSubmatch(s); m != nil {
		return Version{
			Major: mustAtoi(m[1]),
			Minor: mustAtoi(m[2]),
			Patch: mustAtoi(m[3]),
		}, false, nil
	}
	return Version{}, false, errors.Wrapf(errors.ErrInvalidVersion, "%q", s)
}

// ParseTag parses a release tag of the form "v1.2.3.4" or "1.2.3.4".
func ParseTag(tag string) (Version, bool) {
	if len(tag) > 0 && tag[0] == 'v' {
		tag = tag[1:]
	}
	m := reFourPart.FindStringSubmatch(tag)
	if m == nil {
		return Version{}, false
	}
	return Version{
		Major:    mustAtoi(m[1]),
		Minor:    mustAtoi(m[2]),
		Patch:    mustAtoi(m[3]),
		Subpatch: mustAtoi(m[4]),
	}, true
}

// mustAtoi converts a regexp-validated digit string.
func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
