package registry

import (
	"sort"

	"github.com/Masterminds/semver/v3"
)

// PlanOptions configures the version search order.
type PlanOptions struct {
	// VersionHint, if non-empty, seeds an outward walk from its position
	// among the sorted stable versions.
	VersionHint string
	// IncludePrerelease allows pre-release versions into the plan. When
	// false (the default) they are excluded entirely.
	IncludePrerelease bool
}

// Plan is an ordered list of versions to check, most-likely-match first.
type Plan struct {
	Versions []string
}

// PlanVersions builds the C7 version search order: dist-tag targets first
// (deduplicated, declaration order), then a hint-relative weighted-distance
// walk if a version hint was supplied, then the remainder by descending
// publish time. Pre-release versions are excluded unless opted in, in which
// case stable versions precede pre-releases within each bucket.
func PlanVersions(meta Metadata, opts PlanOptions) Plan {
	parsed := parseVersions(meta.Versions)
	if !opts.IncludePrerelease {
		parsed = filterStable(parsed)
	}

	seen := make(map[string]bool)
	var order []string

	addVersion := func(v string) {
		if v == "" || seen[v] {
			return
		}
		if _, ok := parsed[v]; !ok {
			return
		}
		seen[v] = true
		order = append(order, v)
	}

	for _, tag := range meta.DistTagOrder {
		addVersion(meta.DistTags[tag])
	}

	if opts.VersionHint != "" {
		for _, v := range hintRelativeWalk(parsed, opts.VersionHint) {
			addVersion(v)
		}
	}

	for _, v := range byDescendingPublishTime(parsed, meta.VersionTimes) {
		addVersion(v)
	}

	return Plan{Versions: order}
}

func parseVersions(versions []string) map[string]*semver.Version {
	out := make(map[string]*semver.Version, len(versions))
	for _, v := range versions {
		sv, err := semver.NewVersion(v)
		if err != nil {
			continue // unparseable version strings are dropped from the plan
		}
		out[v] = sv
	}
	return out
}

func filterStable(parsed map[string]*semver.Version) map[string]*semver.Version {
	out := make(map[string]*semver.Version, len(parsed))
	for v, sv := range parsed {
		if isStable(sv) {
			out[v] = sv
		}
	}
	return out
}

func isStable(sv *semver.Version) bool {
	return sv.Prerelease() == ""
}

// hintRelativeWalk orders versions by weighted (major,minor,patch) distance
// from the hint, closest first. The hint itself need not be a published
// version; the weighting favors same-major, then same-minor, over raw
// numeric distance so that "1.2.5" sits closer to hint "1.2.0" than
// "1.3.0" does, even though patch distance alone would say otherwise.
func hintRelativeWalk(parsed map[string]*semver.Version, hint string) []string {
	hintVer, err := semver.NewVersion(hint)
	if err != nil {
		return nil
	}

	type scored struct {
		version string
		dist    float64
	}
	var list []scored
	for v, sv := range parsed {
		list = append(list, scored{version: v, dist: weightedDistance(hintVer, sv)})
	}
	sort.Slice(list, func(i, j int) bool {
		si, sj := isStable(parsed[list[i].version]), isStable(parsed[list[j].version])
		if si != sj {
			return si // stable versions precede pre-releases within the hint-walk bucket
		}
		if list[i].dist != list[j].dist {
			return list[i].dist < list[j].dist
		}
		return list[i].version < list[j].version
	})

	out := make([]string, len(list))
	for i, s := range list {
		out[i] = s.version
	}
	return out
}

// weightedDistance scores how far candidate is from hint, weighting a major
// version mismatch far more heavily than a minor mismatch, and a minor
// mismatch more heavily than a patch mismatch.
func weightedDistance(hint, candidate *semver.Version) float64 {
	const majorWeight = 1_000_000.0
	const minorWeight = 1_000.0
	const patchWeight = 1.0

	majorDiff := absInt64(int64(hint.Major()) - int64(candidate.Major()))
	minorDiff := absInt64(int64(hint.Minor()) - int64(candidate.Minor()))
	patchDiff := absInt64(int64(hint.Patch()) - int64(candidate.Patch()))

	return float64(majorDiff)*majorWeight + float64(minorDiff)*minorWeight + float64(patchDiff)*patchWeight
}

func absInt64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// byDescendingPublishTime orders the remaining versions by descending
// publish time, falling back to descending semver order for versions with
// no recorded publish time (placed after every dated version).
func byDescendingPublishTime(parsed map[string]*semver.Version, times map[string]string) []string {
	var dated, undated []string
	for v := range parsed {
		if _, ok := times[v]; ok {
			dated = append(dated, v)
		} else {
			undated = append(undated, v)
		}
	}

	sort.Slice(dated, func(i, j int) bool {
		si, sj := isStable(parsed[dated[i]]), isStable(parsed[dated[j]])
		if si != sj {
			return si
		}
		ti, tj := times[dated[i]], times[dated[j]]
		if ti != tj {
			return ti > tj // RFC3339 timestamps sort lexicographically
		}
		return dated[i] > dated[j]
	})
	sort.Slice(undated, func(i, j int) bool {
		si, sj := isStable(parsed[undated[i]]), isStable(parsed[undated[j]])
		if si != sj {
			return si
		}
		return parsed[undated[i]].GreaterThan(parsed[undated[j]])
	})

	return append(dated, undated...)
}
