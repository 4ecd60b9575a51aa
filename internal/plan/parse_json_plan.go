package plan

import (
	"encoding/json"
	"fmt"
)

// ParseJSONPlan decodes every entry of an EXPLAIN (FORMAT JSON) array.
func ParseJSONPlan(data []byte) ([]ExplainOutput, error) {
	return parse(data, 0, false)
}

// Ingest validates an EXPLAIN document and returns its first entry.
func Ingest(data []byte) (Document, error) {
	return IngestLimit(data, 0)
}

// IngestLimit is Ingest with a ceiling on the number of operator nodes in the
// plan. Decoding stops with ErrResourceLimit as soon as the ceiling is
// passed. Zero disables the check.
func IngestLimit(data []byte, maxNodes int) (Document, error) {
	plans, err := parse(data, maxNodes, true)
	if err != nil {
		return Document{}, err
	}

	first := plans[0]
	if first.Plan == nil {
		return Document{}, fmt.Errorf("%w: first entry has no \"Plan\"", ErrStructural)
	}

	return Document{
		Root:          first.Plan,
		PlanningTime:  first.PlanningTime,
		ExecutionTime: first.ExecutionTime,
	}, nil
}

func parse(data []byte, maxNodes int, firstOnly bool) ([]ExplainOutput, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: invalid EXPLAIN JSON", ErrParse)
	}
	return newDecoder(data, maxNodes).entries(firstOnly)
}
