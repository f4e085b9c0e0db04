package model

// LogLine is a single raw line read from a log source.
type LogLine struct {
	Text   string `json:"text"`
	Source string `json:"source"` // originating file or source name
	Number int    `json:"number"` // 1-based line number within Source
}

// ParsedRecord holds the candidate fields extracted from a LogLine before validation.
type ParsedRecord struct {
	Path    string `json:"path"`
	Address string `json:"address"`
}

// OutcomeKind classifies what happened to a parsed record.
type OutcomeKind int

const (
	Accepted OutcomeKind = iota
	RejectedFormat
	RejectedAddress
	RejectedPath
)

// Outcome is the result of running one record through the configured validators.
// Err carries the validator's named failure for rejected records.
type Outcome struct {
	Kind OutcomeKind
	Err  error
}

// Accepted reports whether the record may enter the page view index.
func (o Outcome) Accepted() bool { return o.Kind == Accepted }

// Reason maps a rejected outcome to its warning reason.
func (o Outcome) Reason() (Reason, bool) {
	switch o.Kind {
	case RejectedAddress:
		return ReasonInvalidAddress, true
	case RejectedPath:
		return ReasonInvalidPath, true
	case RejectedFormat:
		return ReasonInvalidFormat, true
	default:
		return 0, false
	}
}
