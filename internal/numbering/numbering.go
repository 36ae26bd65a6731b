// Package numbering issues human-facing quote and order numbers.
package numbering

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
)

const (
	quotePrefix = "Q-"
	orderPrefix = "O-"
)

// Generator issues document numbers that are unique across instances as long
// as every instance runs with its own node id.
type Generator struct {
	node *snowflake.Node
}

// New creates a Generator for the given snowflake node (0-1023).
func New(node int64) (*Generator, error) {
	n, err := snowflake.NewNode(node)
	if err != nil {
		return nil, fmt.Errorf("failed to create numbering node %d: %w", node, err)
	}
	return &Generator{node: n}, nil
}

// QuoteNumber returns a new quote number such as "Q-1A2B3C4D5E6F".
func (g *Generator) QuoteNumber() string {
	return quotePrefix + g.next()
}

// OrderNumber returns a new order number such as "O-1A2B3C4D5E6F".
func (g *Generator) OrderNumber() string {
	return orderPrefix + g.next()
}

func (g *Generator) next() string {
	return strings.ToUpper(g.node.Generate().Base36())
}

// Parse extracts the snowflake id from a number issued by a Generator.
func Parse(number string) (snowflake.ID, error) {
	var rest string
	switch {
	case strings.HasPrefix(number, quotePrefix):
		rest = strings.TrimPrefix(number, quotePrefix)
	case strings.HasPrefix(number, orderPrefix):
		rest = strings.TrimPrefix(number, orderPrefix)
	default:
		return 0, fmt.Errorf("unknown document number prefix: %q", number)
	}

	id, err := snowflake.ParseBase36(strings.ToLower(rest))
	if err != nil {
		return 0, fmt.Errorf("malformed document number %q: %w", number, err)
	}
	return id, nil
}
