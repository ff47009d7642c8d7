// Package yaml loads configuration and evidence catalogs from YAML files.
package yaml

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/frmr"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Loader is a kong.ConfigurationLoader for YAML files. Top-level keys name
// flags, with hyphens or underscores; a nested mapping keyed by a command
// name holds that command's flags.
//
//	log-level: debug
//	serve:
//	  metrics_addr: ":9090"
func Loader(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	var f kong.ResolverFunc = func(kctx *kong.Context, parent *kong.Path, flag *kong.Flag) (any, error) {
		for _, name := range keys(parent, flag) {
			if v, ok := lookup(values, name); ok {
				return v, nil
			}
		}
		return nil, nil
	}
	return f, nil
}

// keys returns the candidate paths of flag, most specific first.
func keys(parent *kong.Path, flag *kong.Flag) [][]string {
	var cmds []string
	for n := parent.Node(); n != nil && n.Type == kong.CommandNode; n = n.Parent {
		cmds = append([]string{n.Name}, cmds...)
	}

	var out [][]string
	for i := len(cmds); i >= 0; i-- {
		out = append(out, append(append([]string{}, cmds[:i]...), flag.Name))
	}
	return out
}

func lookup(values map[string]any, path []string) (any, bool) {
	cur := values
	for i, key := range path {
		v, ok := find(cur, key)
		if !ok {
			return nil, false
		}
		if i == len(path)-1 {
			return v, true
		}
		next, ok := v.(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return nil, false
}

func find(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	v, ok := m[strings.ReplaceAll(key, "-", "_")]
	return v, ok
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadEvidenceCatalog reads an evidence catalog from a YAML or JSON file
// and validates it. Returns EPARSE for malformed or invalid catalogs.
func LoadEvidenceCatalog(path string) (*frmr.EvidenceCatalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open evidence catalog: %w", err)
	}
	defer f.Close()
	return DecodeEvidenceCatalog(f)
}

// DecodeEvidenceCatalog decodes and validates an evidence catalog.
func DecodeEvidenceCatalog(r io.Reader) (*frmr.EvidenceCatalog, error) {
	var catalog frmr.EvidenceCatalog
	if err := yaml.NewDecoder(r).Decode(&catalog); err != nil {
		return nil, frmr.Errorf(frmr.EPARSE, "Failed to parse evidence catalog: %s", err)
	}
	if err := validate.Struct(&catalog); err != nil {
		return nil, frmr.Errorf(frmr.EPARSE, "Invalid evidence catalog: %s", err)
	}
	if catalog.Examples == nil {
		catalog.Examples = map[string]*frmr.EvidenceExample{}
	}
	return &catalog, nil
}
