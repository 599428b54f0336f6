package jobenv

import (
	"fmt"
	"os"
	"path/filepath"
)

// Well-known names inside the job's home directory.
const (
	inputDirName   = "in"
	outputDirName  = "out"
	inputJSONName  = "job_input.json"
	outputJSONName = "job_output.json"

	homeToken = "$HOME"
)

// RelativeInputDir returns the input directory as a shell-expandable token.
func RelativeInputDir() string {
	return homeToken + "/" + inputDirName
}

// RelativeOutputDir returns the output directory as a shell-expandable token.
func RelativeOutputDir() string {
	return homeToken + "/" + outputDirName
}

// JobPaths computes the well-known paths of a job's execution environment.
// All paths hang off the HOME directory of the supplied environment snapshot.
type JobPaths struct {
	home string
}

// NewJobPaths builds a JobPaths from an environment snapshot.
func NewJobPaths(env *Environ) (*JobPaths, error) {
	home, ok := env.Lookup("HOME")
	if !ok || home == "" {
		return nil, fmt.Errorf("HOME is not set in the environment")
	}
	return &JobPaths{home: home}, nil
}

// Home returns the job's home directory.
func (jp *JobPaths) Home() string {
	return jp.home
}

// InputDir returns the directory all inputs are downloaded into. With
// expandHome the absolute path is returned, otherwise the $HOME token form
// suitable for embedding in shell variables.
func (jp *JobPaths) InputDir(expandHome bool) string {
	if !expandHome {
		return RelativeInputDir()
	}
	return filepath.Join(jp.home, inputDirName)
}

// OutputDir returns the directory outputs are collected and uploaded from.
func (jp *JobPaths) OutputDir(expandHome bool) string {
	if !expandHome {
		return RelativeOutputDir()
	}
	return filepath.Join(jp.home, outputDirName)
}

// InputJSONPath returns the path of the job input document.
func (jp *JobPaths) InputJSONPath() string {
	return filepath.Join(jp.home, inputJSONName)
}

// OutputJSONPath returns the path of the job output document.
func (jp *JobPaths) OutputJSONPath() string {
	return filepath.Join(jp.home, outputJSONName)
}

// RemoveOutputJSON deletes the job output document. A missing file is not an
// error, anything else propagates.
func (jp *JobPaths) RemoveOutputJSON() error {
	err := os.Remove(jp.OutputJSONPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// EnsureDirectory creates a single directory level if absent. An existing
// directory is a no-op. A path occupied by anything that is not a directory
// fails with ErrNotDirectory. Parent directories are not created, so callers
// must ensure directories in dependency order.
func EnsureDirectory(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return os.Mkdir(path, 0755)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrNotDirectory)
	}
	return nil
}
