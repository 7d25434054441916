package reconcile

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrInvalidReference is returned for reference files that are not a flat
// mapping of metric names to scalar values.
var ErrInvalidReference = errors.New("invalid reference metrics")

// LoadReference reads a reference metrics YAML file.
func LoadReference(path string) (Metrics, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference: %w", err)
	}
	m, err := ParseReference(data)
	if err != nil {
		return nil, fmt.Errorf("parsing reference %s: %w", path, err)
	}
	return m, nil
}

// ParseReference decodes a YAML mapping of metric name to value, keeping the
// file's order. YAML numbers become exact decimals; strings stay text.
func ParseReference(data []byte) (Metrics, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return Metrics{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: expected a mapping", ErrInvalidReference, root.Line)
	}

	seen := make(map[string]bool, len(root.Content)/2)
	out := make(Metrics, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if seen[key.Value] {
			return nil, fmt.Errorf("%w: line %d: duplicate metric %q", ErrInvalidReference, key.Line, key.Value)
		}
		seen[key.Value] = true

		v, err := scalarValue(val)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: metric %q: %v", ErrInvalidReference, val.Line, key.Value, err)
		}
		out = append(out, Metric{Name: key.Value, Value: v})
	}
	return out, nil
}

func scalarValue(n *yaml.Node) (Value, error) {
	if n.Kind != yaml.ScalarNode {
		return Value{}, errors.New("value must be a scalar")
	}
	switch n.ShortTag() {
	case "!!int", "!!float":
		d, err := decimal.NewFromString(n.Value)
		if err != nil {
			return Value{}, fmt.Errorf("not a number: %q", n.Value)
		}
		return Number(d), nil
	case "!!null":
		return Value{}, errors.New("value is empty")
	default:
		return Text(n.Value), nil
	}
}

// Template renders a reference file listing every metric Compute produces,
// each set to zero, ready to be filled in from the printed statement.
func Template(paymentCode string) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	names := append(Compute(nil, paymentCode).Names(), MetricFinancedBalance)
	for _, name := range names {
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: "0"},
		)
	}
	doc := &yaml.Node{
		Kind:        yaml.DocumentNode,
		HeadComment: "Reference figures copied from the printed statement.",
		Content:     []*yaml.Node{root},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshaling reference template: %w", err)
	}
	return data, nil
}
