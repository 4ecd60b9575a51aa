package plan

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	KeyNodeType          = "Node Type"
	KeyRelationName      = "Relation Name"
	KeyIndexName         = "Index Name"
	KeyActualLoops       = "Actual Loops"
	KeyStartupCost       = "Startup Cost"
	KeyTotalCost         = "Total Cost"
	KeyActualStartupTime = "Actual Startup Time"
	KeyActualTotalTime   = "Actual Total Time"
	KeyPlans             = "Plans"
)

// Details is the raw field set of one operator node in document order.
type Details = orderedmap.OrderedMap[string, json.RawMessage]

// Node is one operator of an EXPLAIN (FORMAT JSON) plan. Only the fields the
// analysis reads are typed; absent numbers decode as 0 and absent strings as "".
type Node struct {
	// NodeType is nil when the document has no "Node Type" for this operator.
	NodeType *string

	RelationName string
	IndexName    string
	ActualLoops  int64

	StartupCost       float64
	TotalCost         float64
	ActualStartupTime float64
	ActualTotalTime   float64

	Plans []Node

	// Details keeps every raw field except "Plans".
	Details *Details
}

// ExplainOutput is one top-level entry of the EXPLAIN JSON array.
type ExplainOutput struct {
	Plan          *Node   `json:"Plan"`
	PlanningTime  float64 `json:"Planning Time,omitempty"`
	ExecutionTime float64 `json:"Execution Time,omitempty"`
}

// Document is the validated input of an analysis run.
type Document struct {
	Root          *Node
	PlanningTime  float64
	ExecutionTime float64
}

// UnmarshalJSON decodes a single operator object and its nested plans with
// no node ceiling.
func (n *Node) UnmarshalJSON(data []byte) error {
	if !isObject(data) {
		return fmt.Errorf("%w: operator node must be a JSON object", ErrStructural)
	}
	if !json.Valid(data) {
		return fmt.Errorf("%w: invalid operator node", ErrParse)
	}

	d := newDecoder(data, 0)
	if _, err := d.token(); err != nil {
		return err
	}
	*n = Node{}
	return d.node(n)
}

// decodeField reports whether key is present and non-null.
func decodeField(fields *Details, key string, dst any) (bool, error) {
	raw, ok := fields.Get(key)
	if !ok || isNull(raw) {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("%w: field %q has wrong type", ErrStructural, key)
	}
	return true, nil
}

func isObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}
