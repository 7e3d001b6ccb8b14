package model

import "fmt"

// Outcome classifies what happened when a URL was fetched.
type Outcome int

const (
	// OutcomePending means the URL was scored but its fetch did not finish,
	// which only happens when a crawl is cancelled.
	OutcomePending Outcome = iota

	// OutcomeOK means the URL returned an HTML document that was explored.
	OutcomeOK

	// OutcomeHTTPError means the server answered with a non-200 status.
	OutcomeHTTPError

	// OutcomeNotHTML means the response was not an HTML document.
	// The URL keeps its score but is not explored.
	OutcomeNotHTML

	// OutcomeTransport means the request failed before a response arrived
	// (DNS, connection, timeout or body read).
	OutcomeTransport
)

// String returns the name used in logs, reports and the history database.
func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeOK:
		return "ok"
	case OutcomeHTTPError:
		return "http_error"
	case OutcomeNotHTML:
		return "not_html"
	case OutcomeTransport:
		return "transport_error"
	default:
		return "unknown"
	}
}

// Explored reports whether links were extracted from the URL.
func (o Outcome) Explored() bool {
	return o == OutcomeOK
}

// ParseOutcome converts a name produced by String back to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	for _, o := range Outcomes() {
		if o.String() == s {
			return o, nil
		}
	}
	return OutcomePending, fmt.Errorf("unknown outcome %q", s)
}

// Outcomes returns every outcome in declaration order.
func Outcomes() []Outcome {
	return []Outcome{OutcomePending, OutcomeOK, OutcomeHTTPError, OutcomeNotHTML, OutcomeTransport}
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	parsed, err := ParseOutcome(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}
