package model

import "fmt"

// Reason is why a record was rejected. The declaration order is the reporting order.
type Reason int

const (
	ReasonInvalidAddress Reason = iota
	ReasonInvalidPath
	ReasonInvalidFormat

	reasonCount
)

// NumReasons is the number of distinct warning reasons.
const NumReasons = int(reasonCount)

var reasonNames = [...]string{
	ReasonInvalidAddress: "invalid_address",
	ReasonInvalidPath:    "invalid_path",
	ReasonInvalidFormat:  "invalid_format",
}

// Reasons returns every reason in reporting order.
func Reasons() []Reason {
	return []Reason{ReasonInvalidAddress, ReasonInvalidPath, ReasonInvalidFormat}
}

func (r Reason) String() string {
	if r < 0 || r >= reasonCount {
		return fmt.Sprintf("reason(%d)", int(r))
	}
	return reasonNames[r]
}

// MarshalText renders the reason as its snake_case name in JSON and YAML output.
func (r Reason) MarshalText() ([]byte, error) {
	if r < 0 || r >= reasonCount {
		return nil, fmt.Errorf("unknown warning reason %d", int(r))
	}
	return []byte(reasonNames[r]), nil
}

// UnmarshalText parses a snake_case reason name.
func (r *Reason) UnmarshalText(text []byte) error {
	for i, name := range reasonNames {
		if name == string(text) {
			*r = Reason(i)
			return nil
		}
	}
	return fmt.Errorf("unknown warning reason %q", text)
}

// WarningRecord is the aggregate count of one rejection reason in one file.
type WarningRecord struct {
	File   string `json:"file" yaml:"file"`
	Reason Reason `json:"reason" yaml:"reason"`
	Count  int    `json:"count" yaml:"count"`
}
