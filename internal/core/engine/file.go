package engine

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"auditor/internal/core/rules"
	perr "auditor/internal/platform/errors"
	"auditor/internal/platform/logger"

	"gopkg.in/yaml.v3"
)

// LoadFile reads rule sets from a JSON or YAML file, detected by
// extension. The document may be a single rule set object, a list of
// rule set objects, or a map of name to rule set; all three shapes
// normalize to registered sets. Any bad rule set fails the whole load
func (e *Engine) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeNotFound, "read rule set file")
	}

	var specs []rules.SetSpec
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		specs, err = sniffJSON(data)
	case ".yml", ".yaml":
		specs, err = sniffYAML(data)
	default:
		return perr.Schemaf("unsupported rule set file format: %s", path)
	}
	if err != nil {
		return perr.WithOp(err, "file:"+path)
	}

	// materialize every set before registering any, so a bad file
	// cannot leave the engine holding half of it
	sets := make([]*rules.Set, 0, len(specs))
	for _, ss := range specs {
		set, err := rules.SetFromSpec(ss)
		if err != nil {
			return perr.WithOp(err, "file:"+path)
		}
		sets = append(sets, set)
	}
	for _, set := range sets {
		e.AddRuleSet(set)
	}
	logger.Named("engine").Info().Str("path", path).Int("rule_sets", len(specs)).Msg("loaded rule sets")
	return nil
}

// sniffJSON normalizes the three accepted document shapes
func sniffJSON(data []byte) ([]rules.SetSpec, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var list []rules.SetSpec
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, perr.Parsef("decode rule set list: %v", err)
		}
		return list, nil
	}

	// Object: either one rule set or a name->rule set map. A single
	// rule set always carries "name" and "rules" at top level
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, perr.Parsef("decode rule sets: %v", err)
	}
	if _, hasName := probe["name"]; hasName {
		if _, hasRules := probe["rules"]; hasRules {
			var one rules.SetSpec
			if err := json.Unmarshal(data, &one); err != nil {
				return nil, perr.Parsef("decode rule set: %v", err)
			}
			return []rules.SetSpec{one}, nil
		}
	}

	var byName map[string]rules.SetSpec
	if err := json.Unmarshal(data, &byName); err != nil {
		return nil, perr.Parsef("decode rule set map: %v", err)
	}
	return specsFromMap(byName), nil
}

func sniffYAML(data []byte) ([]rules.SetSpec, error) {
	var list []rules.SetSpec
	if err := yaml.Unmarshal(data, &list); err == nil && list != nil {
		return list, nil
	}

	var probe map[string]any
	if err := yaml.Unmarshal(data, &probe); err != nil {
		return nil, perr.Parsef("decode rule sets: %v", err)
	}
	_, hasName := probe["name"]
	_, hasRules := probe["rules"]
	if hasName && hasRules {
		var one rules.SetSpec
		if err := yaml.Unmarshal(data, &one); err != nil {
			return nil, perr.Parsef("decode rule set: %v", err)
		}
		return []rules.SetSpec{one}, nil
	}

	var byName map[string]rules.SetSpec
	if err := yaml.Unmarshal(data, &byName); err != nil {
		return nil, perr.Parsef("decode rule set map: %v", err)
	}
	return specsFromMap(byName), nil
}

// specsFromMap keys win over any embedded name field, sorted for
// deterministic registration order
func specsFromMap(byName map[string]rules.SetSpec) []rules.SetSpec {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]rules.SetSpec, 0, len(byName))
	for _, name := range names {
		ss := byName[name]
		ss.Name = name
		out = append(out, ss)
	}
	return out
}

// SaveFile writes every registered rule set as a name->rule set map in
// JSON or YAML, detected by extension
func (e *Engine) SaveFile(path string) error {
	byName := make(map[string]rules.SetSpec, len(e.sets))
	for _, name := range e.sortedNames() {
		byName[name] = e.sets[name].Spec()
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(byName, "", "  ")
	case ".yml", ".yaml":
		data, err = yaml.Marshal(byName)
	default:
		return perr.Schemaf("unsupported rule set file format: %s", path)
	}
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeSchema, "encode rule sets")
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUnknown, "write rule set file %s", path)
	}
	return nil
}
