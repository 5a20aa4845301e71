package ruleset

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	rerrors "mercator-hq/matchgram/pkg/rule/errors"
	"mercator-hq/matchgram/pkg/rule/registry"
	"mercator-hq/matchgram/pkg/telemetry/metrics"
)

// DefaultMaxFileSize bounds a single rule set file.
const DefaultMaxFileSize = 32 << 20

// Loader reads rule set files and compiles their rules.
type Loader struct {
	registry    *registry.Registry
	metrics     *metrics.Collector
	maxFileSize int64
}

// NewLoader creates a loader compiling against reg; nil means the default
// registry.
func NewLoader(reg *registry.Registry, collector *metrics.Collector) *Loader {
	if reg == nil {
		reg = registry.Default()
	}
	return &Loader{
		registry:    reg,
		metrics:     collector,
		maxFileSize: DefaultMaxFileSize,
	}
}

// IsRuleFile reports whether path names a rule set file.
func IsRuleFile(path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads path, which is either a rule set file or a directory searched
// recursively for .yaml and .yml files. Every file is attempted; the error
// is an Errors listing all failures.
func (l *Loader) Load(path string) ([]*Set, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to access path", Cause: err}
	}
	if !info.IsDir() {
		set, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		return []*Set{set}, nil
	}

	files, err := ListFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &LoadError{FilePath: path, Message: "empty directory", Cause: ErrNoRules}
	}

	var sets []*Set
	var errs Errors
	names := make(map[string]string)
	for _, file := range files {
		set, err := l.LoadFile(file)
		if err != nil {
			errs = appendErrors(errs, err)
			continue
		}
		if prev, ok := names[set.Name]; ok {
			errs = append(errs, &ValidationError{
				FilePath: file,
				Message:  fmt.Sprintf("rule set %q already defined in %s", set.Name, prev),
			})
			continue
		}
		names[set.Name] = file
		sets = append(sets, set)
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return sets, nil
}

// ListFiles returns the rule set files under dir in lexical order, skipping
// hidden files and directories.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() && IsRuleFile(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, &LoadError{FilePath: dir, Message: "failed to walk directory", Cause: err}
	}
	sort.Strings(files)
	return files, nil
}

// LoadFile reads and compiles a single rule set file.
func (l *Loader) LoadFile(path string) (*Set, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > l.maxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), l.maxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}
	return l.Parse(path, data)
}

// Parse decodes and compiles rule set data. path is used for error
// messages and as the default set name.
func (l *Loader) Parse(path string, data []byte) (*Set, error) {
	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file contains invalid UTF-8 encoding"}
	}

	var file File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{FilePath: path, Message: "empty file", Cause: ErrNoRules}
		}
		return nil, &LoadError{FilePath: path, Message: "YAML parsing failed", Cause: err}
	}

	if file.Name == "" {
		file.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	set := &Set{
		Name:        file.Name,
		Description: file.Description,
		Path:        path,
		Rules:       make([]*CompiledRule, 0, len(file.Rules)),
	}

	var errs Errors
	seen := make(map[string]bool, len(file.Rules))
	for i, spec := range file.Rules {
		if spec.Name == "" {
			errs = append(errs, &ValidationError{FilePath: path, Line: spec.Line, Message: fmt.Sprintf("rule %d has no name", i+1)})
			continue
		}
		if seen[spec.Name] {
			errs = append(errs, &ValidationError{FilePath: path, Line: spec.Line, Message: fmt.Sprintf("duplicate rule name %q", spec.Name)})
			continue
		}
		seen[spec.Name] = true

		compiled, err := l.compile(set.Name, path, spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		set.Rules = append(set.Rules, compiled)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return set, nil
}

func (l *Loader) compile(setName, path string, spec RuleSpec) (*CompiledRule, error) {
	text := strings.TrimSpace(spec.Rule)
	if text == "" {
		return nil, &ValidationError{FilePath: path, Line: spec.Line, Message: fmt.Sprintf("rule %q has no rule text", spec.Name)}
	}

	m, err := Compile(text, l.registry, l.metrics, setName+"/"+spec.Name)
	if err != nil {
		var re *rerrors.Error
		if errors.As(err, &re) {
			return nil, &CompileError{FilePath: path, Line: spec.Line, RuleSet: setName, Rule: spec.Name, Err: re}
		}
		return nil, err
	}

	return &CompiledRule{
		Set:         setName,
		Name:        spec.Name,
		Description: spec.Description,
		Action:      spec.Action,
		Tags:        spec.Tags,
		Enabled:     spec.IsEnabled(),
		Text:        text,
		Path:        path,
		Line:        spec.Line,
		Matcher:     m,
	}, nil
}

func appendErrors(errs Errors, err error) Errors {
	var list Errors
	if errors.As(err, &list) {
		return append(errs, list...)
	}
	return append(errs, err)
}
