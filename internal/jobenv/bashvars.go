package jobenv

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/platform"
	"github.com/Stratus-Compute-Labs/worker-toolkit/internal/utils"
)

// KeyDescriptor carries the four derived value sequences for one file-valued
// input key. The sequences are parallel: index i describes the i-th file.
type KeyDescriptor struct {
	Handles   []*platform.FileHandle
	Filenames []string
	Prefixes  []string
	Paths     []string
}

// DescribeKeys derives the per-key variable material from a plan. Paths use
// the $HOME token form so the shell expands them inside the job environment.
func DescribeKeys(plan *Plan) map[string]*KeyDescriptor {
	descs := make(map[string]*KeyDescriptor, len(plan.Files))
	for key, entries := range plan.Files {
		desc := &KeyDescriptor{}
		for _, entry := range entries {
			basename := filepath.Base(entry.TargetPath)
			prefix, _ := splitExt(basename)
			desc.Handles = append(desc.Handles, entry.Handle)
			desc.Filenames = append(desc.Filenames, basename)
			desc.Prefixes = append(desc.Prefixes, prefix)
			desc.Paths = append(desc.Paths, filepath.Join(RelativeInputDir(), entry.TargetPath))
		}
		descs[key] = desc
	}
	return descs
}

// Synthesizer turns a plan into shell variable bindings. Candidate names are
// checked against the environment snapshot: a name that is already taken is
// dropped with a warning instead of shadowing the existing variable.
type Synthesizer struct {
	env    *Environ
	logger *utils.LogsManager

	// Warnings receives collision notices; defaults to stderr
	Warnings io.Writer
}

func NewSynthesizer(env *Environ, logger *utils.LogsManager) *Synthesizer {
	return &Synthesizer{
		env:    env,
		logger: logger,
	}
}

// Synthesize produces the variable bindings for a plan. Each file key yields
// key, key_filename, key_prefix and key_path; each rest key yields a single
// variable holding its re-encoded value. Values are shell-safe strings ready
// for an export statement. Colliding names are omitted.
func (s *Synthesizer) Synthesize(plan *Plan) (map[string]string, error) {
	vars := make(map[string]string)
	registered := make(map[string]bool)

	descs := DescribeKeys(plan)
	for _, key := range sortedDescKeys(descs) {
		desc := descs[key]

		handles, err := encodeHandleList(desc.Handles)
		if err != nil {
			return nil, err
		}
		s.register(vars, registered, key, handles)
		s.register(vars, registered, key+"_filename", encodeStringList(desc.Filenames))
		s.register(vars, registered, key+"_prefix", encodeStringList(desc.Prefixes))
		s.register(vars, registered, key+"_path", encodeStringList(desc.Paths))
	}

	for _, key := range sortedRestKeys(plan.Rest) {
		value, err := encodeRestValue(plan.Rest[key])
		if err != nil {
			return nil, err
		}
		s.register(vars, registered, key, value)
	}

	return vars, nil
}

func (s *Synthesizer) register(vars map[string]string, registered map[string]bool, name, value string) {
	if s.env.Has(name) || registered[name] {
		w := s.Warnings
		if w == nil {
			w = os.Stderr
		}
		fmt.Fprintf(w, "Warning: skipping variable %s, the name is already taken in the environment\n", name)
		if s.logger != nil {
			s.logger.Warn(fmt.Sprintf("Skipping variable %s: name collision", name), "bashvars")
		}
		return
	}
	vars[name] = value
	registered[name] = true
}

// ExportLines renders a plan as literal "export k=v" lines, file keys first.
// This is the historic output format: no collision guard is applied, so a
// line can shadow an existing environment variable when evaluated.
func ExportLines(plan *Plan) ([]string, error) {
	var lines []string

	descs := DescribeKeys(plan)
	for _, key := range sortedDescKeys(descs) {
		desc := descs[key]

		handles, err := encodeHandleList(desc.Handles)
		if err != nil {
			return nil, err
		}
		lines = append(lines,
			"export "+key+"="+handles,
			"export "+key+"_filename="+encodeStringList(desc.Filenames),
			"export "+key+"_prefix="+encodeStringList(desc.Prefixes),
			"export "+key+"_path="+encodeStringList(desc.Paths),
		)
	}

	for _, key := range sortedRestKeys(plan.Rest) {
		value, err := encodeRestValue(plan.Rest[key])
		if err != nil {
			return nil, err
		}
		lines = append(lines, "export "+key+"="+value)
	}

	return lines, nil
}

// RawExportLines renders the unprocessed input document as "export k=v"
// lines, predating any file planning: every list becomes a bash array of
// shell-quoted elements, everything else a single quoted value. Strings are
// quoted verbatim, other values as their JSON encoding.
func RawExportLines(input JobInput) ([]string, error) {
	keys := make([]string, 0, len(input))
	for key := range input {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var lines []string
	for _, key := range keys {
		value := input[key]
		if value.Kind == KindList {
			parts := make([]string, 0, len(value.List))
			for _, elem := range value.List {
				quoted, err := rawQuote(elem)
				if err != nil {
					return nil, err
				}
				parts = append(parts, quoted)
			}
			lines = append(lines, fmt.Sprintf("export %s=( %s )", key, strings.Join(parts, " ")))
		} else {
			quoted, err := rawQuote(value)
			if err != nil {
				return nil, err
			}
			lines = append(lines, "export "+key+"="+quoted)
		}
	}
	return lines, nil
}

func rawQuote(value Value) (string, error) {
	if s, ok := value.IsString(); ok {
		return shellQuote(s), nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode value: %w", err)
	}
	return shellQuote(string(encoded)), nil
}

// encodeHandleList encodes resolved handles as shell-quoted canonical links.
func encodeHandleList(handles []*platform.FileHandle) (string, error) {
	elems := make([]string, 0, len(handles))
	for _, handle := range handles {
		encoded, err := json.Marshal(handle.Link())
		if err != nil {
			return "", fmt.Errorf("failed to encode link for %s: %w", handle.ID, err)
		}
		elems = append(elems, shellQuote(string(encoded)))
	}
	return listForm(elems), nil
}

// encodeStringList encodes derived strings double-quoted, so embedded $HOME
// tokens expand when the shell evaluates them.
func encodeStringList(values []string) string {
	elems := make([]string, 0, len(values))
	for _, value := range values {
		elems = append(elems, doubleQuote(value))
	}
	return listForm(elems)
}

// encodeRestValue encodes a non-file input value: strings double-quoted,
// file references as quoted canonical links, anything else (lists included)
// as its quoted JSON encoding.
func encodeRestValue(value Value) (string, error) {
	if s, ok := value.IsString(); ok {
		return doubleQuote(s), nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return "", fmt.Errorf("failed to encode value: %w", err)
	}
	return shellQuote(string(encoded)), nil
}

// listForm renders multiple elements as a bash array, a single element bare.
func listForm(elems []string) string {
	if len(elems) > 1 {
		return fmt.Sprintf("( %s )", strings.Join(elems, " "))
	}
	if len(elems) == 1 {
		return elems[0]
	}
	return "(  )"
}

// splitExt splits a basename into prefix and final extension. Leading dots
// never open an extension: ".bashrc" has none, "..a.b" splits to "..a"/".b".
func splitExt(name string) (string, string) {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return name, ""
	}
	for i := 0; i < dot; i++ {
		if name[i] != '.' {
			return name[:dot], name[dot:]
		}
	}
	return name, ""
}

// shellQuote single-quotes a string for safe shell evaluation. Strings made
// of safe characters pass through unchanged.
func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	if isShellSafe(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

func isShellSafe(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case strings.IndexByte("@%_-+=:,./", c) >= 0:
		default:
			return false
		}
	}
	return true
}

// doubleQuote wraps a string in double quotes, escaping the characters that
// stay special inside them except $, which is left alone so $HOME expands.
func doubleQuote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '\\' || c == '"' || c == '`' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}

func sortedDescKeys(descs map[string]*KeyDescriptor) []string {
	keys := make([]string, 0, len(descs))
	for key := range descs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedRestKeys(rest map[string]Value) []string {
	keys := make([]string, 0, len(rest))
	for key := range rest {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
