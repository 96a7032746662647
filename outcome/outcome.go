// Package outcome encodes dispatch outcomes as CloudEvents so journal sinks share one wire format.
package outcome

import (
	"encoding/json"
	"fmt"
	"strings"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/next-trace/scg-cqrs/contract/cqrs"
	berr "github.com/next-trace/scg-cqrs/contract/errors"
)

// Event types and defaults.
const (
	TypeCompleted = "cqrs.dispatch.completed"
	TypeFailed    = "cqrs.dispatch.failed"

	DefaultSource = "scg-cqrs"

	// ContentType is the media type of Marshal output (structured mode).
	ContentType = "application/cloudevents+json"
)

// Extension attribute names. CloudEvents allows only lowercase alphanumerics.
const (
	ExtKind = "cqrskind"
	ExtCode = "cqrscode"
)

// Encode converts o into a CloudEvent. The event id is the dispatch id and the subject is the message name.
func Encode(o cqrs.Outcome, source string) (cloudevents.Event, error) {
	if source == "" {
		source = DefaultSource
	}

	e := cloudevents.NewEvent()
	e.SetID(o.ID)
	e.SetSource(source)
	e.SetType(EventType(o.Status))
	e.SetSubject(o.Message)
	e.SetTime(o.StartedAt)
	e.SetExtension(ExtKind, o.Kind.String())

	if o.Code != "" {
		e.SetExtension(ExtCode, o.Code)
	}

	if err := e.SetData(cloudevents.ApplicationJSON, o); err != nil {
		return e, fmt.Errorf("encode outcome %s: %w: %w", o.ID, berr.ErrSerializationFailed, err)
	}

	if err := e.Validate(); err != nil {
		return e, fmt.Errorf("encode outcome %s: %w: %w", o.ID, berr.ErrSerializationFailed, err)
	}

	return e, nil
}

// Decode extracts the Outcome carried by e.
func Decode(e cloudevents.Event) (cqrs.Outcome, error) {
	var o cqrs.Outcome

	switch e.Type() {
	case TypeCompleted, TypeFailed:
	default:
		return o, fmt.Errorf("decode outcome %s: unexpected type %q: %w", e.ID(), e.Type(), berr.ErrSerializationFailed)
	}

	if err := e.DataAs(&o); err != nil {
		return o, fmt.Errorf("decode outcome %s: %w: %w", e.ID(), berr.ErrSerializationFailed, err)
	}

	return o, nil
}

// Marshal encodes o as a structured-mode CloudEvent JSON document.
func Marshal(o cqrs.Outcome, source string) ([]byte, error) {
	e, err := Encode(o, source)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal outcome %s: %w: %w", o.ID, berr.ErrSerializationFailed, err)
	}

	return b, nil
}

// Unmarshal is the inverse of Marshal.
func Unmarshal(b []byte) (cqrs.Outcome, error) {
	var e cloudevents.Event
	if err := json.Unmarshal(b, &e); err != nil {
		return cqrs.Outcome{}, fmt.Errorf("unmarshal outcome: %w: %w", berr.ErrSerializationFailed, err)
	}

	return Decode(e)
}

// EventType maps a dispatch status to its CloudEvents type.
func EventType(s cqrs.Status) string {
	if s == cqrs.StatusFailed {
		return TypeFailed
	}

	return TypeCompleted
}

var tokenSafe = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_", "#", "_")

// Subject returns "<prefix>.<kind>.<message>". Characters that NATS and AMQP treat as token
// separators or wildcards are replaced in the message name.
func Subject(prefix string, o cqrs.Outcome) string {
	msg := tokenSafe.Replace(o.Message)
	if prefix == "" {
		return o.Kind.String() + "." + msg
	}

	return prefix + "." + o.Kind.String() + "." + msg
}
