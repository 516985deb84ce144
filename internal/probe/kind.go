package probe

import "fmt"

// Kind is the outcome of a single probe attempt.
type Kind int

const (
	KindUnknownError Kind = iota
	KindSuccess
	KindHTTPError
	KindTimeout
	KindConnectionError
	KindMissingCredential
)

var kindNames = map[Kind]string{
	KindUnknownError:      "unknown_error",
	KindSuccess:           "success",
	KindHTTPError:         "http_error",
	KindTimeout:           "timeout",
	KindConnectionError:   "connection_error",
	KindMissingCredential: "missing_credential",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Transport reports whether the outcome means no HTTP response was received.
func (k Kind) Transport() bool {
	return k == KindTimeout || k == KindConnectionError
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown probe kind %q", string(b))
}
