package versions

import "github.com/Masterminds/semver/v3"

// IsNewerRelease reports whether candidate is a strictly greater release than
// current. Anything that is not valid semver, such as dev builds, is never
// considered newer.
func IsNewerRelease(candidate, current string) bool {
	candidateSemver, errCandidate := semver.NewVersion(candidate)
	currentSemver, errCurrent := semver.NewVersion(current)
	if errCandidate != nil || errCurrent != nil {
		return false
	}

	return candidateSemver.GreaterThan(currentSemver)
}
