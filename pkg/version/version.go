// Package version parses GAMA release strings, which follow Python's
// packaging rules rather than semantic versioning: "21.0", "20.2.1.dev0"
// and "22.0.0rc1" are all valid releases.
package version

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/coreos/go-semver/semver"

	"github.com/YuminosukeSato/gamabench/pkg/errors"
)

var release = regexp.MustCompile(`^v?(\d+(?:\.\d+)*)` +
	`(?:[-_.]?(a|alpha|b|beta|c|rc|pre|preview)[-_.]?(\d*))?` +
	`(?:-(\d+)|[-_.]?(post|rev|r)[-_.]?(\d*))?` +
	`(?:[-_.]?(dev)[-_.]?(\d*))?` +
	`(?:\+([a-z0-9]+(?:[-_.][a-z0-9]+)*))?$`)

// submatch indices of release
const (
	reRelease = 1 + iota
	rePreTag
	rePreNum
	reImplicitPost
	rePostTag
	rePostNum
	reDevTag
	reDevNum
	reLocal
)

// Release is a parsed release. The first three release components map to
// Major.Minor.Patch; alpha, beta, rc and dev markers become a semver
// pre-release so they order before the final release.
type Release struct {
	semver.Version

	// After is set for post releases and for release components past the
	// third one, e.g. "20.2.0.1". Such a release orders after Version.
	After bool
}

// Parse parses s. Missing minor and patch components are zero.
func Parse(s string) (*Release, error) {
	m := release.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return nil, errors.Newf("invalid release %q", s)
	}

	parts := strings.Split(m[reRelease], ".")
	nums := make([]int64, max(len(parts), 3))
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid release %q", s)
		}
		nums[i] = n
	}

	r := &Release{Version: semver.Version{
		Major:    nums[0],
		Minor:    nums[1],
		Patch:    nums[2],
		Metadata: m[reLocal],
	}}
	for _, n := range nums[3:] {
		if n > 0 {
			r.After = true
		}
	}

	var pre []string
	if m[rePreTag] != "" {
		pre = append(pre, preTag(m[rePreTag]), number(m[rePreNum]))
	}
	if m[reImplicitPost] != "" || m[rePostTag] != "" {
		if pre == nil {
			r.After = true
		} else {
			pre = append(pre, "post", number(m[reImplicitPost]+m[rePostNum]))
		}
	}
	if m[reDevTag] != "" {
		pre = append(pre, "dev", number(m[reDevNum]))
	}
	if pre != nil {
		r.PreRelease = semver.PreRelease(strings.Join(pre, "."))
	}
	return r, nil
}

func preTag(tag string) string {
	switch tag {
	case "alpha":
		return "a"
	case "beta":
		return "b"
	case "c", "pre", "preview":
		return "rc"
	}
	return tag
}

func number(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// Compare returns -1, 0 or 1 as r orders before, equal to or after v, which
// must be a final release.
func (r *Release) Compare(v semver.Version) int {
	base := r.Version
	if r.After {
		// anything past x.y.z, even a pre-release of it, follows x.y.z
		base.PreRelease = ""
	}
	if c := base.Compare(v); c != 0 {
		return c
	}
	if r.After {
		return 1
	}
	return 0
}

// AtMost reports whether r is the release v or an earlier one. v must be
// in x.y.z form.
func (r *Release) AtMost(v string) bool {
	return r.Compare(*semver.New(v)) <= 0
}
