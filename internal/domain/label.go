package domain

import (
	"fmt"
	"unicode/utf8"
)

// Label computes the status text appended to a record's display name
func Label(r *PlayerRecord, s Settings) string {
	if r.Rebelled {
		return s.RebelledLabel
	}
	tag := s.SuspectedLabel
	if r.Points < s.SuspicionThreshold {
		tag = s.CompliantLabel
	}
	return fmt.Sprintf("(%d/%d)%s", r.Points, s.RebellionThreshold, tag)
}

// DisplayName joins base and label within maxLen runes. The base is cut
// first; when the label alone does not leave room, the label is returned.
func DisplayName(base, label string, maxLen int) string {
	labelLen := utf8.RuneCountInString(label)
	if utf8.RuneCountInString(base)+labelLen <= maxLen {
		return base + label
	}
	room := maxLen - labelLen
	if room <= 0 {
		return label
	}
	return string([]rune(base)[:room]) + label
}
