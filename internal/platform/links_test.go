package platform

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestFileLinkRoundTrip(t *testing.T) {
	t.Run("object form", func(t *testing.T) {
		link := FileLink{Project: "project-1111", ID: "file-2222"}

		data, err := json.Marshal(link)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}

		var decoded FileLink
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if decoded != link {
			t.Errorf("round trip mismatch: got %+v, want %+v", decoded, link)
		}
	})

	t.Run("shorthand form when project is empty", func(t *testing.T) {
		link := FileLink{ID: "file-2222"}

		data, err := json.Marshal(link)
		if err != nil {
			t.Fatalf("Marshal failed: %v", err)
		}
		if string(data) != `{"$stratus_link":"file-2222"}` {
			t.Errorf("unexpected shorthand encoding: %s", data)
		}

		var decoded FileLink
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Unmarshal failed: %v", err)
		}
		if decoded != link {
			t.Errorf("round trip mismatch: got %+v, want %+v", decoded, link)
		}
	})

	t.Run("missing tag", func(t *testing.T) {
		var decoded FileLink
		err := json.Unmarshal([]byte(`{"id": "file-2222"}`), &decoded)
		if err == nil {
			t.Error("Unmarshal should fail without the link tag")
		}
	})

	t.Run("missing id", func(t *testing.T) {
		var decoded FileLink
		err := json.Unmarshal([]byte(`{"$stratus_link": {"project": "project-1111"}}`), &decoded)
		if err == nil {
			t.Error("Unmarshal should fail without an id")
		}
	})
}

func TestLinkFromValue(t *testing.T) {
	t.Run("object form", func(t *testing.T) {
		obj := map[string]any{
			LinkTag: map[string]any{"project": "project-1111", "id": "file-2222"},
		}
		link, ok := LinkFromValue(obj)
		if !ok {
			t.Fatal("LinkFromValue should recognize the object form")
		}
		if link.Project != "project-1111" || link.ID != "file-2222" {
			t.Errorf("unexpected link: %+v", link)
		}
	})

	t.Run("shorthand form", func(t *testing.T) {
		obj := map[string]any{LinkTag: "file-2222"}
		link, ok := LinkFromValue(obj)
		if !ok {
			t.Fatal("LinkFromValue should recognize the shorthand form")
		}
		if link.Project != "" || link.ID != "file-2222" {
			t.Errorf("unexpected link: %+v", link)
		}
	})

	t.Run("untagged object", func(t *testing.T) {
		if _, ok := LinkFromValue(map[string]any{"id": "file-2222"}); ok {
			t.Error("LinkFromValue should reject untagged objects")
		}
	})

	t.Run("tagged object without id", func(t *testing.T) {
		obj := map[string]any{LinkTag: map[string]any{"project": "project-1111"}}
		if _, ok := LinkFromValue(obj); ok {
			t.Error("LinkFromValue should reject links without an id")
		}
	})

	t.Run("tag with unexpected value type", func(t *testing.T) {
		if _, ok := LinkFromValue(map[string]any{LinkTag: 42.0}); ok {
			t.Error("LinkFromValue should reject non-string non-object tag values")
		}
	})
}

func TestNewFileID(t *testing.T) {
	id := NewFileID()
	if !IsFileID(id) {
		t.Errorf("NewFileID() = %q, want %q prefix", id, FileIDPrefix)
	}
	if len(id) != len(FileIDPrefix)+32 {
		t.Errorf("NewFileID() length = %d, want %d", len(id), len(FileIDPrefix)+32)
	}
	if strings.Contains(strings.TrimPrefix(id, FileIDPrefix), "-") {
		t.Errorf("NewFileID() suffix should be bare hex: %q", id)
	}
	if id == NewFileID() {
		t.Error("NewFileID() should generate unique IDs")
	}
}

func TestNewProjectID(t *testing.T) {
	id := NewProjectID()
	if !strings.HasPrefix(id, ProjectIDPrefix) {
		t.Errorf("NewProjectID() = %q, want %q prefix", id, ProjectIDPrefix)
	}
	if len(id) != len(ProjectIDPrefix)+32 {
		t.Errorf("NewProjectID() length = %d, want %d", len(id), len(ProjectIDPrefix)+32)
	}
	if IsFileID(id) {
		t.Errorf("NewProjectID() must not mint file IDs: %q", id)
	}
}

func TestIsFileID(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{"file-0123456789abcdef0123456789abcdef", true},
		{"project-0123456789abcdef0123456789abcdef", false},
		{"record-1111", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsFileID(c.id); got != c.want {
			t.Errorf("IsFileID(%q) = %v, want %v", c.id, got, c.want)
		}
	}
}
