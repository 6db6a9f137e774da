package pde

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// lowerFolder performs a Unicode-aware lower-case fold so wire decoding
// rejects anything that isn't byte-for-byte already in the exact lowercase
// form spec.md §3 requires — not just ASCII-insensitive matching.
var lowerFolder = cases.Lower(language.Und)

func isExactLower(s string) bool {
	return lowerFolder.String(s) == s
}

// ModeFromWire decodes a raw mode string. Anything other than the exact
// lowercase tokens "strict" or "hardened" decodes to ModeAbsent, which
// downstream treats as fail-closed (spec.md §3).
func ModeFromWire(raw string) Mode {
	if !isExactLower(raw) {
		return ModeAbsent
	}
	switch raw {
	case "strict":
		return ModeStrict
	case "hardened":
		return ModeHardened
	default:
		return ModeAbsent
	}
}

// ClassFromWire decodes a raw compatibility-class string. Any string other
// than the two known tokens — including empty — maps to ClassUnknown
// (spec.md §3).
func ClassFromWire(raw string) Class {
	if !isExactLower(raw) {
		return ClassUnknown
	}
	switch raw {
	case "known_compatible":
		return ClassKnownCompatible
	case "known_incompatible":
		return ClassKnownIncompatible
	default:
		return ClassUnknown
	}
}
