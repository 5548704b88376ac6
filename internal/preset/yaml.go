package preset

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"quantdesk/server/pkg/quant"
)

type fileEntry struct {
	Alias   string    `yaml:"alias"`
	Command string    `yaml:"command"`
	Params  yaml.Node `yaml:"params"`
}

type file struct {
	Presets []fileEntry `yaml:"presets"`
}

// LoadYAML reads a presets document:
//
//	presets:
//	  - alias: atm-1y
//	    command: bs/price_anal
//	    params: {spot: 100, vol: 0.2, ir: 0.01, dy: 0, strike: 100, ttm: 1}
//
// Params keep the order they are written in.
func LoadYAML(r io.Reader) ([]*Preset, error) {
	var f file
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	out := make([]*Preset, 0, len(f.Presets))
	for i, e := range f.Presets {
		if e.Alias == "" || e.Command == "" {
			return nil, fmt.Errorf("preset #%d: alias and command are required", i+1)
		}
		params, err := nodeParams(&e.Params)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", e.Alias, err)
		}
		out = append(out, &Preset{Alias: e.Alias, Command: e.Command, Params: params})
	}
	return out, nil
}

func nodeParams(n *yaml.Node) (quant.Params, error) {
	if n.Kind == 0 {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("params must be a mapping")
	}
	var p quant.Params
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("param %s: nested values are not allowed", k.Value)
		}
		val := v.Value
		if v.Tag == "!!null" {
			val = "null"
		}
		p = p.Add(k.Value, val)
	}
	return p, nil
}

// Import saves every preset read from r and returns how many were stored.
func Import(repo Repo, r io.Reader) (int, error) {
	presets, err := LoadYAML(r)
	if err != nil {
		return 0, err
	}
	for i, p := range presets {
		if err := repo.Save(p); err != nil {
			return i, err
		}
	}
	return len(presets), nil
}
