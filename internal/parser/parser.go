package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/atikulmunna/pageview/internal/model"
)

// ErrUnparsable is wrapped by every parse failure.
var ErrUnparsable = errors.New("unparsable log line")

// Parser extracts the path and client address fields from a raw log line.
type Parser interface {
	Parse(raw string, source string) (model.ParsedRecord, error)
}

// Format names a supported log line layout.
type Format string

const (
	FormatFields Format = "fields"
	FormatCLF    Format = "clf"
	FormatJSON   Format = "json"
	FormatRegex  Format = "regex"
	FormatAuto   Format = "auto"
)

// Formats lists every supported format name.
func Formats() []Format {
	return []Format{FormatFields, FormatCLF, FormatJSON, FormatRegex, FormatAuto}
}

// New builds the parser for the named format. pattern is only used by FormatRegex.
func New(format Format, pattern string) (Parser, error) {
	switch Format(strings.ToLower(string(format))) {
	case "", FormatFields:
		return NewFieldsParser(), nil
	case FormatCLF:
		return NewCLFParser(), nil
	case FormatJSON:
		return NewJSONParser(), nil
	case FormatRegex:
		return NewRegexParser(pattern)
	case FormatAuto:
		return NewAutoParser(), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}
}

// ---------------------------------------------------------------------------
// Fields Parser
// ---------------------------------------------------------------------------

// FieldsParser handles the plain "<path> <address>" layout.
// Fields after the second one (timestamps, user agents) are ignored.
type FieldsParser struct{}

func NewFieldsParser() *FieldsParser { return &FieldsParser{} }

func (p *FieldsParser) Parse(raw string, source string) (model.ParsedRecord, error) {
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return model.ParsedRecord{}, fail(source, "expected <path> <address>, got %d field(s)", len(fields))
	}
	return model.ParsedRecord{Path: fields[0], Address: fields[1]}, nil
}

// ---------------------------------------------------------------------------
// CLF Parser (Common Log Format)
// ---------------------------------------------------------------------------

// CLFParser handles Apache/Nginx Common and Combined Log Format lines.
// Format: host ident authuser [date] "request" status bytes
type CLFParser struct {
	re *regexp.Regexp
}

func NewCLFParser() *CLFParser {
	return &CLFParser{
		re: regexp.MustCompile(`^(\S+) (\S+) (\S+) \[([^\]]+)\] "([^"]*)" (\d{3}) (\S+)`),
	}
}

func (p *CLFParser) Parse(raw string, source string) (model.ParsedRecord, error) {
	matches := p.re.FindStringSubmatch(raw)
	if matches == nil {
		return model.ParsedRecord{}, fail(source, "not a common log format line")
	}

	// The request line is "METHOD target PROTOCOL"; HTTP/0.9 omits the protocol.
	request := strings.Fields(matches[5])
	if len(request) < 2 {
		return model.ParsedRecord{}, fail(source, "request line %q has no target", matches[5])
	}

	return model.ParsedRecord{Path: request[1], Address: matches[1]}, nil
}

// ---------------------------------------------------------------------------
// JSON Parser
// ---------------------------------------------------------------------------

var (
	jsonPathKeys    = []string{"path", "uri", "url", "request_uri"}
	jsonAddressKeys = []string{"address", "ip", "remote_addr", "client_ip"}
)

// JSONParser handles JSON-formatted access log lines.
type JSONParser struct{}

func NewJSONParser() *JSONParser { return &JSONParser{} }

func (p *JSONParser) Parse(raw string, source string) (model.ParsedRecord, error) {
	var data map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return model.ParsedRecord{}, fail(source, "invalid JSON: %v", err)
	}

	path, ok := strField(data, jsonPathKeys...)
	if !ok {
		return model.ParsedRecord{}, fail(source, "no path field (%s)", strings.Join(jsonPathKeys, ", "))
	}
	addr, ok := strField(data, jsonAddressKeys...)
	if !ok {
		return model.ParsedRecord{}, fail(source, "no address field (%s)", strings.Join(jsonAddressKeys, ", "))
	}

	return model.ParsedRecord{Path: path, Address: addr}, nil
}

// ---------------------------------------------------------------------------
// Regex Parser (user-defined patterns)
// ---------------------------------------------------------------------------

// RegexParser uses a user-supplied regex with the named capture groups path and address.
type RegexParser struct {
	re      *regexp.Regexp
	pathIdx int
	addrIdx int
}

func NewRegexParser(pattern string) (*RegexParser, error) {
	if pattern == "" {
		return nil, errors.New("regex format requires a pattern")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid regex pattern: %w", err)
	}

	p := &RegexParser{re: re, pathIdx: re.SubexpIndex("path"), addrIdx: re.SubexpIndex("address")}
	if p.pathIdx < 0 || p.addrIdx < 0 {
		return nil, fmt.Errorf("regex pattern %q must define the named groups (?P<path>...) and (?P<address>...)", pattern)
	}
	return p, nil
}

func (p *RegexParser) Parse(raw string, source string) (model.ParsedRecord, error) {
	matches := p.re.FindStringSubmatch(raw)
	if matches == nil {
		return model.ParsedRecord{}, fail(source, "line does not match pattern")
	}
	return model.ParsedRecord{Path: matches[p.pathIdx], Address: matches[p.addrIdx]}, nil
}

// ---------------------------------------------------------------------------
// Auto Parser (format auto-detection)
// ---------------------------------------------------------------------------

// AutoParser tries parsers in order: JSON → CLF → fields.
type AutoParser struct {
	jsonParser   *JSONParser
	clfParser    *CLFParser
	fieldsParser *FieldsParser
}

func NewAutoParser() *AutoParser {
	return &AutoParser{
		jsonParser:   NewJSONParser(),
		clfParser:    NewCLFParser(),
		fieldsParser: NewFieldsParser(),
	}
}

func (p *AutoParser) Parse(raw string, source string) (model.ParsedRecord, error) {
	trimmed := strings.TrimSpace(raw)

	if len(trimmed) > 0 && trimmed[0] == '{' {
		return p.jsonParser.Parse(trimmed, source)
	}

	if rec, err := p.clfParser.Parse(raw, source); err == nil {
		return rec, nil
	}

	return p.fieldsParser.Parse(raw, source)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// fail builds a parse error that wraps ErrUnparsable.
func fail(source, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s: %s", ErrUnparsable, source, fmt.Sprintf(format, args...))
}

// strField returns the first non-empty string value among keys.
func strField(data map[string]interface{}, keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := data[k]; ok && v != nil {
			s := fmt.Sprintf("%v", v)
			if s != "" {
				return s, true
			}
		}
	}
	return "", false
}
