package domain

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Payload is the full form tree returned when a form session is started or resumed.
type Payload struct {
	Tree      []Descriptor `json:"tree" yaml:"tree"`
	SeqID     int          `json:"seq_id" yaml:"seq_id"`
	SessionID string       `json:"session_id" yaml:"session_id"`
	Title     string       `json:"title,omitempty" yaml:"title,omitempty"`
	Langs     []string     `json:"langs,omitempty" yaml:"langs,omitempty"`
}

// ResponseStatus is the outcome of a server round-trip.
type ResponseStatus string

const (
	StatusAccepted        ResponseStatus = "accepted"
	StatusValidationError ResponseStatus = "validation-error"
	StatusError           ResponseStatus = "error"
)

// Response is what the server sends back after an answer or any other session action.
// A response may carry a new tree, a validation error for the question that issued the
// request, or per-question errors keyed by index.
type Response struct {
	Status ResponseStatus `json:"status,omitempty"`
	// Type qualifies a validation error (e.g. "constraint", "required").
	Type   string            `json:"type,omitempty"`
	Reason string            `json:"reason,omitempty"`
	SeqID  int               `json:"seq_id,omitempty"`
	Tree   []Descriptor      `json:"tree,omitempty"`
	Errors map[string]string `json:"errors,omitempty"`

	// HasTree is set when the decoded document contained a tree, even an empty one.
	HasTree bool `json:"-"`
}

// Recognized reports whether the response carries anything the runtime acts upon.
func (r *Response) Recognized() bool {
	switch r.Status {
	case StatusAccepted, StatusValidationError, StatusError:
		return true
	}
	return r.HasTree || len(r.Errors) > 0
}

// ParsePayload decodes a payload document.
func ParsePayload(data []byte) (*Payload, error) {
	raw, err := unmarshalObject(data)
	if err != nil {
		return nil, err
	}
	return DecodePayload(raw)
}

// DecodePayload decodes a loosely typed payload (e.g. from YAML frontmatter or a JSON map).
func DecodePayload(raw map[string]any) (*Payload, error) {
	var p Payload
	if err := decode(raw, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ParseResponse decodes a server response document.
func ParseResponse(data []byte) (*Response, error) {
	raw, err := unmarshalObject(data)
	if err != nil {
		return nil, err
	}
	return DecodeResponse(raw)
}

// DecodeResponse decodes a loosely typed server response.
func DecodeResponse(raw map[string]any) (*Response, error) {
	var r Response
	if err := decode(raw, &r); err != nil {
		return nil, err
	}
	_, r.HasTree = raw["tree"]
	return &r, nil
}

func unmarshalObject(data []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidPayload)
	}
	return raw, nil
}

// decode uses the json tags so the same structs serve both encoding/json and loose maps.
// Weak typing lets numeric indices and string sequence ids through.
func decode(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(input); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
