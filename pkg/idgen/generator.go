package idgen

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
)

// Generator produces booking references
type Generator interface {
	NewReference() string
}

// SnowflakeGenerator implements Generator using Twitter Snowflake IDs
// encoded as uppercase base-36. References are unique by construction,
// which is stronger than the random alphanumeric codes they replace.
type SnowflakeGenerator struct {
	node *snowflake.Node
	mu   sync.Mutex
}

// NewSnowflakeGenerator initializes a new reference generator.
// nodeID must be unique per server instance (0-1023) to prevent collisions.
func NewSnowflakeGenerator(nodeID int64) (*SnowflakeGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %w", err)
	}

	return &SnowflakeGenerator{
		node: node,
	}, nil
}

// NewReference returns a new unique booking reference, e.g. "1B29KQX40L9".
func (g *SnowflakeGenerator) NewReference() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := g.node.Generate().Int64()
	return strings.ToUpper(strconv.FormatInt(id, 36))
}
