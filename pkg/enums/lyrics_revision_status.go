package enums

import "fmt"

// LyricsRevisionStatus tracks one round of the customer lyrics review.
type LyricsRevisionStatus string

const (
	LyricsRevisionStatusPending       LyricsRevisionStatus = "pending"
	LyricsRevisionStatusApproved      LyricsRevisionStatus = "approved"
	LyricsRevisionStatusNeedsRevision LyricsRevisionStatus = "needs_revision"
)

var validLyricsRevisionStatuses = []LyricsRevisionStatus{
	LyricsRevisionStatusPending,
	LyricsRevisionStatusApproved,
	LyricsRevisionStatusNeedsRevision,
}

// String implements fmt.Stringer.
func (l LyricsRevisionStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LyricsRevisionStatus.
func (l LyricsRevisionStatus) IsValid() bool {
	for _, candidate := range validLyricsRevisionStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLyricsRevisionStatus converts raw input into a LyricsRevisionStatus.
func ParseLyricsRevisionStatus(value string) (LyricsRevisionStatus, error) {
	for _, candidate := range validLyricsRevisionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lyrics revision status %q", value)
}
