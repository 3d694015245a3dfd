package domain

// QueryIntent is the classified purpose of a user question. It selects the
// prompt-assembly mode and whether retrieval runs at all.
type QueryIntent int

const (
	// IntentAnalytical is the default: explain or investigate using
	// retrieved records plus aggregate statistics.
	IntentAnalytical QueryIntent = iota
	// IntentNameLookup answers only with the profile name.
	IntentNameLookup
	// IntentPersonalProfile answers from profile fields, no retrieval.
	IntentPersonalProfile
	// IntentStatistical answers from aggregate counts only.
	IntentStatistical
)

func (i QueryIntent) String() string {
	switch i {
	case IntentNameLookup:
		return "name_lookup"
	case IntentPersonalProfile:
		return "personal_profile"
	case IntentStatistical:
		return "statistical"
	default:
		return "analytical"
	}
}

// NeedsRetrieval reports whether this intent uses top-K vector retrieval.
func (i QueryIntent) NeedsRetrieval() bool {
	return i == IntentStatistical || i == IntentAnalytical
}
