package jobenv

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func parseInput(t *testing.T, doc string) JobInput {
	t.Helper()
	input, err := ParseJobInput(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ParseJobInput() returned error: %v", err)
	}
	return input
}

func TestParseJobInputClassification(t *testing.T) {
	input := parseInput(t, `{
		"name": "blast",
		"evalue": 0.01,
		"verbose": true,
		"nothing": null,
		"options": {"word_size": 11},
		"seq": {"$stratus_link": {"project": "project-1111", "id": "file-2222"}},
		"reads": [{"$stratus_link": "file-3333"}, "inline"],
		"nested": [[1, 2]]
	}`)

	if v := input["name"]; v.Kind != KindScalar {
		t.Errorf("name: kind = %v, want scalar", v.Kind)
	} else if s, ok := v.IsString(); !ok || s != "blast" {
		t.Errorf("name: IsString() = %q, %v", s, ok)
	}

	if v := input["evalue"]; v.Kind != KindScalar {
		t.Errorf("evalue: kind = %v, want scalar", v.Kind)
	} else if n, ok := v.Scalar.(json.Number); !ok || n.String() != "0.01" {
		t.Errorf("evalue: scalar = %#v, want json.Number 0.01", v.Scalar)
	}

	if v := input["verbose"]; v.Kind != KindScalar || v.Scalar != true {
		t.Errorf("verbose: %#v, want scalar true", v)
	}

	if v := input["nothing"]; v.Kind != KindScalar || v.Scalar != nil {
		t.Errorf("nothing: %#v, want scalar nil", v)
	}

	if v := input["options"]; v.Kind != KindScalar {
		t.Errorf("options: kind = %v, untagged objects are plain scalars", v.Kind)
	}

	if v := input["seq"]; v.Kind != KindFileRef {
		t.Errorf("seq: kind = %v, want file reference", v.Kind)
	} else if v.Link.ID != "file-2222" || v.Link.Project != "project-1111" {
		t.Errorf("seq: link = %+v", v.Link)
	}

	reads := input["reads"]
	if reads.Kind != KindList || len(reads.List) != 2 {
		t.Fatalf("reads: %#v, want list of 2", reads)
	}
	if reads.List[0].Kind != KindFileRef || reads.List[0].Link.ID != "file-3333" {
		t.Errorf("reads[0]: %#v, want shorthand file reference", reads.List[0])
	}
	if reads.List[1].Kind != KindScalar {
		t.Errorf("reads[1]: kind = %v, want scalar", reads.List[1].Kind)
	}

	nested := input["nested"]
	if nested.Kind != KindList || len(nested.List) != 1 || nested.List[0].Kind != KindList {
		t.Errorf("nested: %#v, inner arrays stay lists", nested)
	}
}

func TestValueMarshalRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		doc  string
		want string
	}{
		{"number keeps literal form", `{"v": 0.01}`, `0.01`},
		{"big integer unmangled", `{"v": 9007199254740993}`, `9007199254740993`},
		{"string", `{"v": "hi"}`, `"hi"`},
		{"empty list", `{"v": []}`, `[]`},
		{"list of numbers", `{"v": [1, 2.5]}`, `[1,2.5]`},
		{"shorthand link", `{"v": {"$stratus_link": "file-1"}}`, `{"$stratus_link":"file-1"}`},
		{"full link", `{"v": {"$stratus_link": {"project": "project-1", "id": "file-1"}}}`,
			`{"$stratus_link":{"project":"project-1","id":"file-1"}}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			input := parseInput(t, c.doc)
			got, err := json.Marshal(input["v"])
			if err != nil {
				t.Fatalf("Marshal returned error: %v", err)
			}
			if string(got) != c.want {
				t.Errorf("Marshal = %s, want %s", got, c.want)
			}
		})
	}
}

func TestParseJobInputErrors(t *testing.T) {
	t.Run("invalid JSON", func(t *testing.T) {
		if _, err := ParseJobInput(strings.NewReader("{not json")); err == nil {
			t.Error("ParseJobInput() should fail on invalid JSON")
		}
	})

	t.Run("non-object document", func(t *testing.T) {
		if _, err := ParseJobInput(strings.NewReader(`[1, 2]`)); err == nil {
			t.Error("ParseJobInput() should fail on a non-object document")
		}
	})
}

func TestLoadJobInput(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "jobenv_test_*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadJobInput(filepath.Join(tmpDir, "absent.json"))
		if err == nil {
			t.Fatal("LoadJobInput() should fail for a missing file")
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("error should carry the not-exist cause: %v", err)
		}
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(tmpDir, "job_input.json")
		if err := os.WriteFile(path, []byte(`{"a": 1}`), 0644); err != nil {
			t.Fatalf("Failed to write input: %v", err)
		}
		input, err := LoadJobInput(path)
		if err != nil {
			t.Fatalf("LoadJobInput() returned error: %v", err)
		}
		if len(input) != 1 {
			t.Errorf("LoadJobInput() returned %d keys, want 1", len(input))
		}
	})
}
