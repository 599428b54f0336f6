package platform

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// LinkTag is the marker key identifying remote file references in job documents.
const LinkTag = "$stratus_link"

// ID prefixes used by the platform
const (
	FileIDPrefix    = "file-"
	ProjectIDPrefix = "project-"
)

var (
	// ErrNotFound indicates the referenced object does not exist on the platform
	ErrNotFound = errors.New("object not found")
	// ErrNotFile indicates the referenced object exists but is not a file
	ErrNotFile = errors.New("object is not a file")
)

// FileLink is a reference to a platform file, as embedded in job documents.
// Two wire forms exist: {"$stratus_link": "file-xxxx"} and
// {"$stratus_link": {"project": "project-xxxx", "id": "file-xxxx"}}.
type FileLink struct {
	Project string
	ID      string
}

type linkBody struct {
	Project string `json:"project,omitempty"`
	ID      string `json:"id"`
}

// MarshalJSON emits the canonical wire form: the shorthand string form when no
// project is set, the object form otherwise.
func (l FileLink) MarshalJSON() ([]byte, error) {
	if l.Project == "" {
		return json.Marshal(map[string]string{LinkTag: l.ID})
	}
	return json.Marshal(map[string]linkBody{LinkTag: {Project: l.Project, ID: l.ID}})
}

// UnmarshalJSON accepts both wire forms.
func (l *FileLink) UnmarshalJSON(data []byte) error {
	var outer map[string]json.RawMessage
	if err := json.Unmarshal(data, &outer); err != nil {
		return err
	}
	raw, ok := outer[LinkTag]
	if !ok {
		return fmt.Errorf("missing %s tag", LinkTag)
	}

	var id string
	if err := json.Unmarshal(raw, &id); err == nil {
		l.Project = ""
		l.ID = id
		return nil
	}

	var body linkBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return fmt.Errorf("malformed %s value: %w", LinkTag, err)
	}
	if body.ID == "" {
		return fmt.Errorf("%s value has no id", LinkTag)
	}
	l.Project = body.Project
	l.ID = body.ID
	return nil
}

// LinkFromValue inspects a decoded JSON object and extracts a FileLink if the
// object carries the link tag in a recognizable form.
func LinkFromValue(obj map[string]any) (FileLink, bool) {
	raw, ok := obj[LinkTag]
	if !ok {
		return FileLink{}, false
	}

	switch v := raw.(type) {
	case string:
		if v == "" {
			return FileLink{}, false
		}
		return FileLink{ID: v}, true
	case map[string]any:
		id, _ := v["id"].(string)
		if id == "" {
			return FileLink{}, false
		}
		project, _ := v["project"].(string)
		return FileLink{Project: project, ID: id}, true
	default:
		return FileLink{}, false
	}
}

// FileHandle is the resolved metadata for a platform file.
type FileHandle struct {
	ID       string `json:"id"`
	Project  string `json:"project,omitempty"`
	Name     string `json:"name"`
	Size     int64  `json:"size_bytes"`
	Checksum string `json:"checksum,omitempty"`
}

// Link returns the canonical link for the handle.
func (h *FileHandle) Link() FileLink {
	return FileLink{Project: h.Project, ID: h.ID}
}

// Resolver resolves file links to handles. Implementations return ErrNotFound
// for unknown IDs and ErrNotFile for IDs that name a non-file object.
type Resolver interface {
	ResolveFile(ctx context.Context, link FileLink) (*FileHandle, error)
}

// IsFileID reports whether an object ID names a file.
func IsFileID(id string) bool {
	return strings.HasPrefix(id, FileIDPrefix)
}

// NewFileID generates a fresh platform file ID.
func NewFileID() string {
	return FileIDPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}

// NewProjectID generates a fresh platform project ID.
func NewProjectID() string {
	return ProjectIDPrefix + strings.ReplaceAll(uuid.New().String(), "-", "")
}
