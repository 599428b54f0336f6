package jobenv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/platform"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/utils"
)

// FileDescriptor describes one file to materialize in the input directory.
type FileDescriptor struct {
	// TargetPath is the destination path relative to the input directory
	TargetPath string
	// Handle is the resolved platform metadata for the file
	Handle *platform.FileHandle
	// SourceID is the platform file ID the bytes come from
	SourceID string
}

// Plan is the download layout derived from one job input document.
type Plan struct {
	// Dirs lists the directories to create under the input directory, in
	// dependency order: a parent always precedes its subdirectories, so
	// single-level creation suffices.
	Dirs []string
	// Files maps each file-valued input key to its descriptors
	Files map[string][]FileDescriptor
	// Rest holds every input key that yielded no file descriptors, with its
	// original value
	Rest map[string]Value
}

// Planner partitions a job input document into a directory plan, per-key file
// descriptors and the remaining plain inputs.
type Planner struct {
	resolver platform.Resolver
	logger   *utils.LogsManager
}

func NewPlanner(resolver platform.Resolver, logger *utils.LogsManager) *Planner {
	return &Planner{
		resolver: resolver,
		logger:   logger,
	}
}

// Plan walks the input keys in sorted order. Array-valued keys get one
// numbered subdirectory per element so duplicate filenames inside an array
// cannot clobber each other; the numbering is zero padded to the width of the
// last index, which keeps lexicographic and numeric order identical.
func (p *Planner) Plan(ctx context.Context, input JobInput) (*Plan, error) {
	plan := &Plan{
		Files: make(map[string][]FileDescriptor),
		Rest:  make(map[string]Value),
	}

	keys := make([]string, 0, len(input))
	for key := range input {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := input[key]
		if value.Kind == KindList {
			if err := p.addFileArray(ctx, plan, key, value.List); err != nil {
				return nil, err
			}
		} else {
			if _, err := p.addFile(ctx, plan, key, "", value); err != nil {
				return nil, err
			}
		}
	}

	// Keys that produced no file descriptors keep their original value
	for _, key := range keys {
		if _, isFile := plan.Files[key]; !isFile {
			plan.Rest[key] = input[key]
		}
	}

	return plan, nil
}

// addFile records one candidate file under key (inside subdir when the key is
// an array). Non-reference values and references to non-file objects are not
// files; the caller decides what that means for the key. Returns whether a
// descriptor was added.
func (p *Planner) addFile(ctx context.Context, plan *Plan, key, subdir string, value Value) (bool, error) {
	if value.Kind != KindFileRef {
		return false, nil
	}

	handle, err := p.resolver.ResolveFile(ctx, value.Link)
	if err != nil {
		if errors.Is(err, platform.ErrNotFile) {
			return false, nil
		}
		return false, fmt.Errorf("failed to resolve %s: %w", value.Link.ID, err)
	}

	filename, err := SanitizeFilename(handle.Name)
	if err != nil {
		return false, err
	}

	targetDir := key
	if subdir != "" {
		targetDir = filepath.Join(key, subdir)
	}

	plan.Files[key] = append(plan.Files[key], FileDescriptor{
		TargetPath: filepath.Join(targetDir, filename),
		Handle:     handle,
		SourceID:   handle.ID,
	})
	plan.Dirs = append(plan.Dirs, targetDir)
	return true, nil
}

// addFileArray handles an array-valued input key. A non-empty array always
// claims its key directory; elements that turn out not to be files keep their
// index positions but contribute nothing.
func (p *Planner) addFileArray(ctx context.Context, plan *Plan, key string, elems []Value) error {
	if len(elems) == 0 {
		return nil
	}

	width := len(strconv.Itoa(len(elems) - 1))
	plan.Dirs = append(plan.Dirs, key)

	var dropped []int
	for i, elem := range elems {
		subdir := fmt.Sprintf("%0*d", width, i)
		added, err := p.addFile(ctx, plan, key, subdir, elem)
		if err != nil {
			return err
		}
		if !added {
			dropped = append(dropped, i)
		}
	}

	// A mixed array silently loses its non-file elements: they are neither in
	// the file plan nor in the rest inputs. Surface that in the log.
	if _, isFile := plan.Files[key]; isFile && len(dropped) > 0 && p.logger != nil {
		p.logger.Warn(fmt.Sprintf("Input %s: dropped %d non-file element(s) at indices %v", key, len(dropped), dropped), "planner")
	}

	return nil
}
