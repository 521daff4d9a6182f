package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/drmind/mindtalk-cli/internal/output"
)

// Kind discriminates a decoded response body.
type Kind int

const (
	// KindPlain is a body without a result envelope; its payload is the body itself.
	KindPlain Kind = iota
	// KindSuccess is an envelope whose resultCode starts with "S-".
	KindSuccess
	// KindFailure is an envelope whose resultCode starts with "F-".
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Envelope is a response body decoded once at the transport boundary.
type Envelope struct {
	Kind       Kind
	ResultCode string
	Msg        string
	// Data is the caller-facing payload. Success envelopes whose data is a
	// string, null or missing carry an empty object.
	Data json.RawMessage
}

var emptyObject = json.RawMessage(`{}`)

// DecodeEnvelope classifies a response body. An empty body decodes as a
// plain empty object.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return &Envelope{Kind: KindPlain, Data: emptyObject}, nil
	}
	if !gjson.ValidBytes(body) {
		return nil, output.ErrAPI(0, "Malformed response body")
	}

	root := gjson.ParseBytes(body)
	code := root.Get("resultCode")
	if !root.IsObject() || code.Type != gjson.String {
		return &Envelope{Kind: KindPlain, Data: json.RawMessage(body)}, nil
	}

	env := &Envelope{
		ResultCode: code.String(),
		Msg:        root.Get("msg").String(),
	}
	switch {
	case strings.HasPrefix(env.ResultCode, "S-"):
		env.Kind = KindSuccess
		env.Data = successData(root.Get("data"))
	case strings.HasPrefix(env.ResultCode, "F-"):
		env.Kind = KindFailure
	default:
		return nil, output.ErrAPI(0, "Unrecognized result code "+env.ResultCode)
	}
	return env, nil
}

func successData(data gjson.Result) json.RawMessage {
	if data.IsObject() || data.IsArray() {
		return json.RawMessage(data.Raw)
	}
	return emptyObject
}

// Payload returns the caller-facing payload, or a business error for a
// failure envelope.
func (e *Envelope) Payload() (json.RawMessage, error) {
	if e.Kind == KindFailure {
		return nil, output.ErrBusiness(e.ResultCode, e.Msg)
	}
	return e.Data, nil
}

// errorMessage extracts a human-readable message from an error body:
// an envelope msg, or a plain {"error"} / {"message"} object.
func errorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	root := gjson.ParseBytes(body)
	for _, path := range []string{"msg", "error", "message"} {
		if v := root.Get(path); v.Type == gjson.String && v.String() != "" {
			return v.String()
		}
	}
	return ""
}
