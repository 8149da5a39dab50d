package pkguid

import (
	"crypto/rand"
	"encoding/binary"
	"strconv"

	"github.com/bwmarrin/snowflake"
)

// Epoch is the custom Snowflake epoch (2026-01-01T00:00:00Z) in milliseconds.
const Epoch int64 = 1767225600000

// Snowflake generates time-ordered numeric IDs using the Snowflake algorithm.
type Snowflake struct {
	node *snowflake.Node
}

func generateRandomNodeID() (int64, error) {
	var nodeID int64
	err := binary.Read(rand.Reader, binary.BigEndian, &nodeID)
	if err != nil {
		return 0, err
	}

	return nodeID & (1<<10 - 1), nil // Limiting to 10 bits for node ID
}

// NewSnowflake constructs a Snowflake generator with a random node ID.
func NewSnowflake() (*Snowflake, error) {
	nodeID, err := generateRandomNodeID()
	if err != nil {
		return nil, err
	}

	snowflake.Epoch = Epoch

	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}

	return &Snowflake{node: node}, nil
}

// Generate returns a new unique numeric ID.
func (s *Snowflake) Generate() int64 {
	return s.node.Generate().Int64()
}

// SnowflakeString adapts a NumberID to the StringID interface using base-10
// formatting, so the IDs stay sortable by length then value.
type SnowflakeString struct {
	ids NumberID
}

// NewSnowflakeString wraps ids as a StringID.
func NewSnowflakeString(ids NumberID) *SnowflakeString {
	return &SnowflakeString{ids: ids}
}

// Generate returns the next numeric ID as a decimal string.
func (s *SnowflakeString) Generate() string {
	return strconv.FormatInt(s.ids.Generate(), 10)
}
