package trace

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainTrace prefixes trace digests. The version suffix allows changing
// the step encoding later.
const DomainTrace = "arcflow/trace/v1"

// Outcome is the result of one propagator execution.
type Outcome string

const (
	OutcomeOK            Outcome = "ok"
	OutcomeContradiction Outcome = "contradiction"
)

// Step is one propagator execution.
type Step struct {
	// Seq is the logical clock value, strictly increasing within a run.
	Seq int64 `json:"seq"`

	Prop string `json:"prop"`

	// Var is the variable of the fired arc, empty for a coarse propagation.
	Var string `json:"var,omitempty"`

	// Mask is the event mask the propagator was called with.
	Mask string `json:"mask"`

	// Changed reports whether the execution modified any domain.
	Changed bool `json:"changed"`

	Outcome Outcome `json:"outcome"`
	Message string  `json:"message,omitempty"`
}

// Object returns the canonical representation of s.
func (s Step) Object() Object {
	obj := Object{
		"seq":     Int(s.Seq),
		"prop":    String(s.Prop),
		"mask":    String(s.Mask),
		"changed": Bool(s.Changed),
		"outcome": String(s.Outcome),
	}
	if s.Var != "" {
		obj["var"] = String(s.Var)
	}
	if s.Message != "" {
		obj["message"] = String(s.Message)
	}
	return obj
}

// Lines renders steps as canonical JSON, one step per line.
func Lines(steps []Step) ([]byte, error) {
	var buf bytes.Buffer
	for i, s := range steps {
		line, err := MarshalCanonical(s.Object())
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Digest is the SHA-256 of the canonical step array with domain
// separation: SHA256(domain + 0x00 + data).
func Digest(steps []Step) (string, error) {
	arr := make(Array, len(steps))
	for i, s := range steps {
		arr[i] = s.Object()
	}
	data, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(DomainTrace))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Names returns the propagator name of every step, in order.
func Names(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Prop
	}
	return out
}
