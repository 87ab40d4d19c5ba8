// pkg/parsers/rpmvercmp.go

package parsers

import (
	rpmversion "github.com/knqyf263/go-rpm-version"
)

// CompareVersions compares two RPM version or release strings the way rpm
// does and returns -1, 0 or 1.
func CompareVersions(a, b string) int {
	return rpmversion.NewVersion(a).Compare(rpmversion.NewVersion(b))
}

// evr returns the [epoch:]version-release form understood by rpmversion
func (r InstalledRpm) evr() rpmversion.Version {
	s := r.Version + "-" + r.Release
	if r.Epoch != "" {
		s = r.Epoch + ":" + s
	}
	return rpmversion.NewVersion(s)
}
