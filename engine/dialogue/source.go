package dialogue

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/PtiCalin/simple-game-engine/types"
)

// document is the top level of a dialogue file: either a "dialogues" list
// or a single "dialogue" mapping. JSON parses through the same path.
type document struct {
	Dialogues []yaml.Node `yaml:"dialogues"`
	Dialogue  *yaml.Node  `yaml:"dialogue"`
}

// Parse decodes dialogue definitions from YAML or JSON. Entries that are
// not mappings, fail to decode, or have no id are skipped.
func Parse(data []byte) ([]types.Dialogue, []string, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("parsing dialogue data: %w", err)
	}

	nodes := doc.Dialogues
	if len(nodes) == 0 && doc.Dialogue != nil {
		nodes = []yaml.Node{*doc.Dialogue}
	}

	var out []types.Dialogue
	var skipped []string
	for i := range nodes {
		node := &nodes[i]
		if node.Kind != yaml.MappingNode {
			skipped = append(skipped, fmt.Sprintf("entry %d: not a mapping", i))
			continue
		}
		var d types.Dialogue
		if err := node.Decode(&d); err != nil {
			skipped = append(skipped, fmt.Sprintf("entry %d: %v", i, err))
			continue
		}
		if d.ID == "" {
			skipped = append(skipped, fmt.Sprintf("entry %d: missing id", i))
			continue
		}
		out = append(out, d)
	}
	return out, skipped, nil
}

// LoadData registers every dialogue found in data and returns how many were
// loaded.
func (e *Engine) LoadData(data []byte) (int, error) {
	dialogues, skipped, err := Parse(data)
	if err != nil {
		return 0, err
	}
	for _, reason := range skipped {
		e.logger.Warn("skipping dialogue entry", zap.String("reason", reason))
	}
	for _, d := range dialogues {
		e.LoadDialogue(d.ID, d)
	}
	return len(dialogues), nil
}

// LoadFile reads a YAML or JSON dialogue file.
func (e *Engine) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading dialogue file: %w", err)
	}
	n, err := e.LoadData(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	e.logger.Debug("dialogues loaded", zap.String("path", path), zap.Int("count", n))
	return nil
}
