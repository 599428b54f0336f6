package jobenv

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/platform"
)

// ValueKind discriminates the shapes a job input value can take. The shape is
// decided once, at parse time, so downstream code never re-inspects raw JSON.
type ValueKind int

const (
	KindScalar ValueKind = iota
	KindList
	KindFileRef
)

// Value is one job input value: a plain scalar (string, number, bool, null or
// an untagged object), a list of values, or a remote file reference.
type Value struct {
	Kind   ValueKind
	Scalar any
	List   []Value
	Link   platform.FileLink
}

// MarshalJSON re-encodes the value in its original JSON shape. File
// references serialize to their canonical link form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindList:
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	case KindFileRef:
		return json.Marshal(v.Link)
	default:
		return json.Marshal(v.Scalar)
	}
}

// IsString reports whether the value is a string scalar, and returns it.
func (v Value) IsString() (string, bool) {
	if v.Kind != KindScalar {
		return "", false
	}
	s, ok := v.Scalar.(string)
	return s, ok
}

// JobInput is a parsed job input document: input key to value. Immutable once
// loaded.
type JobInput map[string]Value

// ParseJobInput decodes a job input document. Numbers are kept in their
// literal decimal form so re-encoding round-trips them exactly.
func ParseJobInput(r io.Reader) (JobInput, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse job input: %w", err)
	}

	input := make(JobInput, len(raw))
	for key, value := range raw {
		input[key] = classifyValue(value)
	}
	return input, nil
}

// LoadJobInput reads and parses the job input document at path.
func LoadJobInput(path string) (JobInput, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open job input file: %w", err)
	}
	defer file.Close()

	input, err := ParseJobInput(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return input, nil
}

func classifyValue(raw any) Value {
	switch v := raw.(type) {
	case []any:
		list := make([]Value, 0, len(v))
		for _, elem := range v {
			list = append(list, classifyValue(elem))
		}
		return Value{Kind: KindList, List: list}
	case map[string]any:
		if link, ok := platform.LinkFromValue(v); ok {
			return Value{Kind: KindFileRef, Link: link}
		}
		return Value{Kind: KindScalar, Scalar: v}
	default:
		return Value{Kind: KindScalar, Scalar: v}
	}
}
