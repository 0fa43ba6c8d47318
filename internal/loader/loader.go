// Package loader reads YAML flow definitions from a filesystem.
package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"webflowcms/internal/types"
)

// Loader reads flows from fs.
type Loader struct {
	fs afero.Fs
}

// New returns a Loader over fs; nil means the OS filesystem.
func New(fs afero.Fs) *Loader {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &Loader{fs: fs}
}

var osLoader = New(nil)

// LoadFlow reads a single YAML flow file from the OS filesystem.
func LoadFlow(path string) (*types.FlowDef, error) { return osLoader.LoadFlow(path) }

// LoadFlows reads all flows under dir on the OS filesystem.
func LoadFlows(dir string) (map[string]*types.FlowDef, error) { return osLoader.LoadFlows(dir) }

// LoadFlow reads and parses a single YAML flow file.
func (l *Loader) LoadFlow(path string) (*types.FlowDef, error) {
	data, err := afero.ReadFile(l.fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading flow file %s: %w", path, err)
	}

	var flow types.FlowDef
	if err := yaml.Unmarshal(data, &flow); err != nil {
		return nil, fmt.Errorf("parsing flow file %s: %w", path, err)
	}

	if flow.Name == "" {
		return nil, fmt.Errorf("flow file %s: missing required field 'name'", path)
	}
	if len(flow.Steps) == 0 {
		return nil, fmt.Errorf("flow file %s: must have at least one step", path)
	}

	return &flow, nil
}

// LoadFlows reads all YAML flow files from a directory, recursively.
func (l *Loader) LoadFlows(dir string) (map[string]*types.FlowDef, error) {
	flows := make(map[string]*types.FlowDef)

	err := afero.Walk(l.fs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(info.Name()))
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		flow, err := l.LoadFlow(path)
		if err != nil {
			return err
		}

		if _, exists := flows[flow.Name]; exists {
			return fmt.Errorf("duplicate flow name %q in %s", flow.Name, path)
		}
		flows[flow.Name] = flow
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading flows from %s: %w", dir, err)
	}

	return flows, nil
}

// Names returns the flow names in sorted order.
func Names(flows map[string]*types.FlowDef) []string {
	names := make([]string, 0, len(flows))
	for name := range flows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve finds a flow by name in dir, or loads arg as a file path when it
// names an existing file.
func (l *Loader) Resolve(dir, arg string) (*types.FlowDef, error) {
	if ok, _ := afero.Exists(l.fs, arg); ok {
		if isDir, _ := afero.IsDir(l.fs, arg); !isDir {
			return l.LoadFlow(arg)
		}
	}

	flows, err := l.LoadFlows(dir)
	if err != nil {
		return nil, err
	}
	flow, ok := flows[arg]
	if !ok {
		return nil, fmt.Errorf("flow %q not found in %s", arg, dir)
	}
	return flow, nil
}
