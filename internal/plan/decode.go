package plan

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// decoder reads an EXPLAIN document in one streaming pass. Nested "Plans"
// are walked token by token so each byte is read once regardless of depth.
type decoder struct {
	dec      *json.Decoder
	maxNodes int
	nodes    int
}

func newDecoder(data []byte, maxNodes int) *decoder {
	return &decoder{dec: json.NewDecoder(bytes.NewReader(data)), maxNodes: maxNodes}
}

func (d *decoder) token() (json.Token, error) {
	tok, err := d.dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return tok, nil
}

func (d *decoder) raw() (json.RawMessage, error) {
	var raw json.RawMessage
	if err := d.dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return raw, nil
}

func (d *decoder) key() (string, error) {
	tok, err := d.token()
	if err != nil {
		return "", err
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("%w: expected object key", ErrParse)
	}
	return key, nil
}

// entries decodes the top-level array. With firstOnly set, entries after the
// first are skipped without building their plan trees.
func (d *decoder) entries(firstOnly bool) ([]ExplainOutput, error) {
	tok, err := d.token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('[') {
		return nil, fmt.Errorf("%w: EXPLAIN output must be a JSON array", ErrStructural)
	}

	var plans []ExplainOutput
	for i := 0; d.dec.More(); i++ {
		if firstOnly && i > 0 {
			raw, err := d.raw()
			if err != nil {
				return nil, err
			}
			if !isObject(raw) {
				return nil, fmt.Errorf("%w: entry %d is not a JSON object", ErrStructural, i)
			}
			continue
		}

		tok, err := d.token()
		if err != nil {
			return nil, err
		}
		if tok != json.Delim('{') {
			return nil, fmt.Errorf("%w: entry %d is not a JSON object", ErrStructural, i)
		}
		out, err := d.entry(i)
		if err != nil {
			return nil, err
		}
		plans = append(plans, out)
	}
	if len(plans) == 0 {
		return nil, fmt.Errorf("%w: empty EXPLAIN output", ErrStructural)
	}
	return plans, nil
}

// entry decodes the body of one top-level object; the opening brace has
// been consumed.
func (d *decoder) entry(i int) (ExplainOutput, error) {
	var out ExplainOutput
	d.nodes = 0
	for d.dec.More() {
		key, err := d.key()
		if err != nil {
			return out, err
		}
		switch key {
		case "Plan":
			tok, err := d.token()
			if err != nil {
				return out, err
			}
			switch tok {
			case nil:
				out.Plan = nil
			case json.Delim('{'):
				out.Plan = &Node{}
				if err := d.node(out.Plan); err != nil {
					return out, err
				}
			default:
				return out, fmt.Errorf("%w: entry %d: operator node must be a JSON object", ErrStructural, i)
			}
		case "Planning Time", "Execution Time":
			dst := &out.PlanningTime
			if key == "Execution Time" {
				dst = &out.ExecutionTime
			}
			raw, err := d.raw()
			if err != nil {
				return out, err
			}
			if isNull(raw) {
				continue
			}
			if err := json.Unmarshal(raw, dst); err != nil {
				return out, fmt.Errorf("%w: entry %d: field %q has wrong type", ErrStructural, i, key)
			}
		default:
			if _, err := d.raw(); err != nil {
				return out, err
			}
		}
	}
	_, err := d.token()
	return out, err
}

// node decodes the body of one operator object; the opening brace has been
// consumed.
func (d *decoder) node(n *Node) error {
	d.nodes++
	if d.maxNodes > 0 && d.nodes > d.maxNodes {
		return fmt.Errorf("%w: plan has more than %d nodes", ErrResourceLimit, d.maxNodes)
	}

	fields := orderedmap.New[string, json.RawMessage]()
	for d.dec.More() {
		key, err := d.key()
		if err != nil {
			return err
		}
		if key == KeyPlans {
			if err := d.children(n); err != nil {
				return err
			}
			continue
		}
		raw, err := d.raw()
		if err != nil {
			return err
		}
		fields.Set(key, raw)
	}
	if _, err := d.token(); err != nil {
		return err
	}

	var nodeType string
	present, err := decodeField(fields, KeyNodeType, &nodeType)
	if err != nil {
		return err
	}
	if present {
		n.NodeType = &nodeType
	}

	var loops float64
	for _, f := range []struct {
		key string
		dst any
	}{
		{KeyRelationName, &n.RelationName},
		{KeyIndexName, &n.IndexName},
		{KeyActualLoops, &loops},
		{KeyStartupCost, &n.StartupCost},
		{KeyTotalCost, &n.TotalCost},
		{KeyActualStartupTime, &n.ActualStartupTime},
		{KeyActualTotalTime, &n.ActualTotalTime},
	} {
		if _, err := decodeField(fields, f.key, f.dst); err != nil {
			return err
		}
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if loops < 0 || loops >= math.MaxInt64 {
		return fmt.Errorf("%w: field %q is out of range", ErrStructural, KeyActualLoops)
	}
	n.ActualLoops = int64(loops)
	n.Details = fields

	return nil
}

func (d *decoder) children(n *Node) error {
	tok, err := d.token()
	if err != nil {
		return err
	}
	if tok == nil {
		n.Plans = nil
		return nil
	}
	if tok != json.Delim('[') {
		return fmt.Errorf("%w: field %q must be an array of operator nodes", ErrStructural, KeyPlans)
	}

	n.Plans = []Node{}
	for d.dec.More() {
		tok, err := d.token()
		if err != nil {
			return err
		}
		if tok != json.Delim('{') {
			return fmt.Errorf("%w: operator node must be a JSON object", ErrStructural)
		}
		n.Plans = append(n.Plans, Node{})
		if err := d.node(&n.Plans[len(n.Plans)-1]); err != nil {
			return err
		}
	}
	_, err = d.token()
	return err
}
