package domain

import "strings"

// ItemType identifies an inventory item kind as reported by the host
type ItemType string

// DefaultRestrictedItems are the firearms Class-D personnel must not carry
var DefaultRestrictedItems = []ItemType{
	"GunCOM15",
	"GunCOM18",
	"GunE11SR",
	"GunCrossvec",
	"GunFSP9",
	"GunLogicer",
	"GunRevolver",
	"GunShotgun",
	"GunAK",
	"GunCom45",
}

// ItemSet is a set of item types
type ItemSet map[ItemType]struct{}

// NewItemSet builds a set from the given items
func NewItemSet(items ...ItemType) ItemSet {
	set := make(ItemSet, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}

// ParseItemSet parses a comma-separated item list, ignoring blanks
func ParseItemSet(list string) ItemSet {
	set := make(ItemSet)
	for _, part := range strings.Split(list, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		set[ItemType(part)] = struct{}{}
	}
	return set
}

// Contains reports whether the item is in the set
func (s ItemSet) Contains(item ItemType) bool {
	_, ok := s[item]
	return ok
}

// ContainsAny reports whether any of the items is in the set
func (s ItemSet) ContainsAny(items []ItemType) bool {
	for _, item := range items {
		if s.Contains(item) {
			return true
		}
	}
	return false
}
