package config

import "chipforge/internal/erc"

// Profile is a named ERC strictness level
type Profile string

const (
	ProfileLenient  Profile = "lenient"  // bus rules only, no connectivity pass
	ProfileStandard Profile = "standard" // connectivity findings as warnings
	ProfileStrict   Profile = "strict"   // connectivity findings as errors
)

// ParseProfile converts a string to Profile, defaulting to ProfileStandard
func ParseProfile(s string) Profile {
	switch s {
	case "lenient":
		return ProfileLenient
	case "standard":
		return ProfileStandard
	case "strict":
		return ProfileStrict
	default:
		return ProfileStandard
	}
}

// ProfileOptions maps profiles to their engine options
var ProfileOptions = map[Profile]erc.Options{
	ProfileLenient:  {Strict: false, Connectivity: false},
	ProfileStandard: {Strict: false, Connectivity: true},
	ProfileStrict:   {Strict: true, Connectivity: true},
}

// Options returns the engine options for a profile
func (p Profile) Options() erc.Options {
	if opts, ok := ProfileOptions[p]; ok {
		return opts
	}
	return ProfileOptions[ProfileStandard]
}
