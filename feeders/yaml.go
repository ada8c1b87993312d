package feeders

import (
	"fmt"
	"os"
	"reflect"

	"gopkg.in/yaml.v3"
)

// YamlFeeder populates structs from a YAML file.
type YamlFeeder struct {
	Path         string
	priority     int
	verboseDebug bool
	logger       interface{ Debug(msg string, args ...any) }
	fieldTracker FieldTracker
}

// NewYamlFeeder creates a feeder reading filePath.
func NewYamlFeeder(filePath string) *YamlFeeder {
	return &YamlFeeder{Path: filePath}
}

// WithPriority sets the feeder priority; higher priorities are applied later.
func (y *YamlFeeder) WithPriority(priority int) *YamlFeeder {
	y.priority = priority
	return y
}

// Priority implements PrioritizedFeeder.
func (y *YamlFeeder) Priority() int {
	return y.priority
}

// SetVerboseDebug enables or disables verbose debug logging
func (y *YamlFeeder) SetVerboseDebug(enabled bool, logger interface{ Debug(msg string, args ...any) }) {
	y.verboseDebug = enabled
	y.logger = logger
}

// SetFieldTracker sets the field tracker for recording field populations
func (y *YamlFeeder) SetFieldTracker(tracker FieldTracker) {
	y.fieldTracker = tracker
}

// Feed decodes the whole document into structure.
func (y *YamlFeeder) Feed(structure interface{}) error {
	root, err := y.readDocument()
	if err != nil {
		return err
	}
	return y.decodeNode(root, "", structure)
}

// FeedKey decodes only the top-level mapping entry named key.
func (y *YamlFeeder) FeedKey(key string, structure interface{}) error {
	root, err := y.readDocument()
	if err != nil {
		return err
	}
	if root.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: %s in %s", ErrSectionNotFound, key, y.Path)
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == key {
			return y.decodeNode(root.Content[i+1], key, structure)
		}
	}
	return fmt.Errorf("%w: %s in %s", ErrSectionNotFound, key, y.Path)
}

func (y *YamlFeeder) readDocument() (*yaml.Node, error) {
	data, err := os.ReadFile(y.Path)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrFileRead, y.Path, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrYamlDecode, y.Path, err)
	}
	if y.verboseDebug && y.logger != nil {
		y.logger.Debug("YAML document read", "path", y.Path, "bytes", len(data))
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		return doc.Content[0], nil
	}
	return &doc, nil
}

func (y *YamlFeeder) decodeNode(node *yaml.Node, keyPath string, structure interface{}) error {
	if err := node.Decode(structure); err != nil {
		return fmt.Errorf("%w %s: %w", ErrYamlDecode, y.Path, err)
	}
	if y.fieldTracker != nil {
		var raw map[string]any
		if err := node.Decode(&raw); err == nil {
			trackDecodedFields(y.fieldTracker, fmt.Sprintf("%T", y), "yaml", "yaml", "", keyPath, reflect.TypeOf(structure), raw)
		}
	}
	return nil
}
