package search

import (
	"fmt"
	"strings"
)

// JoinPolicy controls which line is kept as the hyphen-join candidate
// after a line has been scanned.
type JoinPolicy int

const (
	// CarryForward always keeps the just-scanned line as the join candidate,
	// whether or not it matched. A line that matched directly can still
	// produce a joined hit with the line after it.
	CarryForward JoinPolicy = iota

	// ClearOnMatch drops the join candidate after any direct or joined hit,
	// so a matched line never serves as the hyphen source for the next line.
	ClearOnMatch
)

// String returns the configuration name of the policy.
func (p JoinPolicy) String() string {
	switch p {
	case CarryForward:
		return "carry-forward"
	case ClearOnMatch:
		return "clear-on-match"
	}
	return fmt.Sprintf("JoinPolicy(%d)", int(p))
}

// ParseJoinPolicy parses a policy name as produced by String.
// The empty string selects CarryForward.
func ParseJoinPolicy(name string) (JoinPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "carry-forward":
		return CarryForward, nil
	case "clear-on-match":
		return ClearOnMatch, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownJoinPolicy, name)
}

func (p JoinPolicy) valid() bool {
	return p == CarryForward || p == ClearOnMatch
}
