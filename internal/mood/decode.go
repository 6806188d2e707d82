package mood

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var (
	// ErrInferenceBackend wraps failures calling the classifier.
	ErrInferenceBackend = errors.New("mood inference backend failed")

	// ErrMalformedResponse matches any *DecodeError.
	ErrMalformedResponse = errors.New("malformed inference response")
)

var validate = validator.New()

// DecodeError reports a classifier payload that is not a valid Analysis.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding inference response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrMalformedResponse) true.
func (e *DecodeError) Is(target error) bool {
	return target == ErrMalformedResponse
}

// Decode parses a classifier payload into an Analysis. Any text before the
// first '{' is discarded. The result must carry every required field, and
// the energy, tempo and valence hints must use their known vocabularies.
func Decode(raw []byte) (Analysis, error) {
	body := bytes.TrimSpace(raw)
	start := bytes.IndexByte(body, '{')
	if start < 0 {
		return Analysis{}, &DecodeError{Raw: string(raw), Err: errors.New("no JSON object in response")}
	}
	body = body[start:]

	var a Analysis
	if err := json.Unmarshal(body, &a); err != nil {
		return Analysis{}, &DecodeError{Raw: string(raw), Err: err}
	}
	if err := validate.Struct(a); err != nil {
		return Analysis{}, &DecodeError{Raw: string(raw), Err: err}
	}
	return a, nil
}
