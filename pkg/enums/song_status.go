package enums

import "fmt"

// SongStatus tracks the creative brief coarsely alongside its order.
type SongStatus string

const (
	SongStatusCommissioned SongStatus = "commissioned"
	SongStatusInProduction SongStatus = "in_production"
	SongStatusCompleted    SongStatus = "completed"
)

var validSongStatuses = []SongStatus{
	SongStatusCommissioned,
	SongStatusInProduction,
	SongStatusCompleted,
}

// String implements fmt.Stringer.
func (s SongStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SongStatus.
func (s SongStatus) IsValid() bool {
	for _, candidate := range validSongStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSongStatus converts raw input into a SongStatus.
func ParseSongStatus(value string) (SongStatus, error) {
	for _, candidate := range validSongStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid song status %q", value)
}
