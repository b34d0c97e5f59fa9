package ctr

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// The build needs -Z flags, which only nightly (or dev) compilers accept,
// and the 3DS target landed in nightlies after these floors.
var (
	minimumRustcVersion = Version{1, 56, 0}
	minimumCommitDate   = CommitDate{2021, 10, 1}
)

// Channel is the rustc release channel, ordered from most to least stable.
type Channel int

const (
	ChannelStable Channel = iota
	ChannelBeta
	ChannelNightly
	ChannelDev
)

func (c Channel) String() string {
	switch c {
	case ChannelStable:
		return "stable"
	case ChannelBeta:
		return "beta"
	case ChannelNightly:
		return "nightly"
	case ChannelDev:
		return "dev"
	}
	return "unknown"
}

// Version is a rustc semantic version triple.
type Version struct {
	Major, Minor, Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 ordering v against o.
func (v Version) Compare(o Version) int {
	pairs := [][2]int{{v.Major, o.Major}, {v.Minor, o.Minor}, {v.Patch, o.Patch}}
	for _, p := range pairs {
		if p[0] != p[1] {
			if p[0] < p[1] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// CommitDate is the day a nightly was cut, ordered lexicographically on
// (year, month, day).
type CommitDate struct {
	Year, Month, Day int
}

// ParseCommitDate reads a YYYY-MM-DD string. Exactly three dash-separated
// integer fields are accepted.
func ParseCommitDate(s string) (CommitDate, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return CommitDate{}, fmt.Errorf("malformed commit date %q", s)
	}
	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return CommitDate{}, fmt.Errorf("malformed commit date %q", s)
		}
		fields[i] = n
	}
	return CommitDate{Year: fields[0], Month: fields[1], Day: fields[2]}, nil
}

func (d CommitDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Before reports whether d is strictly earlier than o.
func (d CommitDate) Before(o CommitDate) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// VersionMeta is the compiler's self-reported identity: semver, channel,
// and the nightly's commit date when the build exposes one.
type VersionMeta struct {
	Semver     Version
	Channel    Channel
	CommitDate *CommitDate
}

// queryVersionMeta spawns `rustc -vV` (honoring the RUSTC override, as
// cargo itself does) and parses its output.
func queryVersionMeta() (*VersionMeta, error) {
	rustc := os.Getenv("RUSTC")
	if rustc == "" {
		rustc = "rustc"
	}
	out, err := exec.Command(rustc, "-vV").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to query rustc version metadata: %v", err)
	}
	return parseVersionMeta(string(out))
}

// parseVersionMeta extracts the release and commit-date lines from
// `rustc -vV` output. A commit date of "unknown" is treated as absent.
func parseVersionMeta(out string) (*VersionMeta, error) {
	meta := &VersionMeta{}
	sawRelease := false
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if rel, ok := strings.CutPrefix(line, "release: "); ok {
			semver, channel, err := parseRelease(rel)
			if err != nil {
				return nil, err
			}
			meta.Semver = semver
			meta.Channel = channel
			sawRelease = true
		} else if date, ok := strings.CutPrefix(line, "commit-date: "); ok {
			if date == "" || date == "unknown" {
				continue
			}
			parsed, err := ParseCommitDate(date)
			if err != nil {
				return nil, errors.New("could not parse `rustc --version` commit date")
			}
			meta.CommitDate = &parsed
		}
	}
	if !sawRelease {
		return nil, errors.New("no release line in `rustc -vV` output")
	}
	return meta, nil
}

// parseRelease splits "1.56.0-nightly" into the semver triple and the
// channel tag. No suffix means stable; beta builds carry a point release
// ("beta.3") that does not affect the channel.
func parseRelease(s string) (Version, Channel, error) {
	num, suffix, _ := strings.Cut(s, "-")
	parts := strings.Split(num, ".")
	if len(parts) != 3 {
		return Version{}, ChannelStable, fmt.Errorf("malformed rustc version %q", s)
	}
	var fields [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, ChannelStable, fmt.Errorf("malformed rustc version %q", s)
		}
		fields[i] = n
	}
	v := Version{Major: fields[0], Minor: fields[1], Patch: fields[2]}

	switch {
	case suffix == "":
		return v, ChannelStable, nil
	case suffix == "nightly":
		return v, ChannelNightly, nil
	case suffix == "dev":
		return v, ChannelDev, nil
	case suffix == "beta" || strings.HasPrefix(suffix, "beta."):
		return v, ChannelBeta, nil
	}
	return Version{}, ChannelStable, fmt.Errorf("unknown rustc channel %q", suffix)
}

// checkVersionMeta applies the channel and age floors. It returns the
// user-facing diagnostic lines when the compiler is rejected, nil when it
// passes. Both the semver floor and, when a commit date is known, the date
// floor must hold.
func checkVersionMeta(meta *VersionMeta) []string {
	if meta.Channel < ChannelNightly {
		return []string{
			"cargo-3ds requires a nightly rustc version.",
			"Please run `rustup override set nightly` to use nightly in the current directory.",
		}
	}

	oldVersion := meta.Semver.Compare(minimumRustcVersion) < 0
	oldCommit := meta.CommitDate != nil && meta.CommitDate.Before(minimumCommitDate)
	if oldVersion || oldCommit {
		return []string{
			fmt.Sprintf("cargo-3ds requires rustc nightly version >= %s", minimumCommitDate),
			"Please run `rustup update nightly` to upgrade your nightly version",
		}
	}
	return nil
}

// checkRustVersion gates the pipeline on the host compiler. Diagnostics go
// to stdout; a false return means the run must stop with status 1.
func checkRustVersion() bool {
	meta, err := queryVersionMeta()
	if err != nil {
		fmt.Println(err)
		return false
	}
	lines := checkVersionMeta(meta)
	for _, line := range lines {
		fmt.Println(line)
	}
	return len(lines) == 0
}
