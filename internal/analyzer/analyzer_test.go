package analyzer

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/jacobarthurs/plangraph/internal/layout"
	"github.com/jacobarthurs/plangraph/internal/plan"
)

// --- Helpers ---

var ignoreDetails = cmpopts.IgnoreFields(Node{}, "Details")

func loadFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	return data
}

func analyzeFixture(t *testing.T) AnalysisResult {
	t.Helper()
	result, err := AnalyzeJSON(loadFixture(t, "nested_loop.json"), DefaultOptions())
	if err != nil {
		t.Fatalf("AnalyzeJSON failed: %v", err)
	}
	return result
}

// --- Fixture scenario ---

func TestAnalyze_NestedLoopFixture(t *testing.T) {
	result := analyzeFixture(t)

	if result.PlanningTime != 0.375 {
		t.Errorf("PlanningTime = %v, want 0.375", result.PlanningTime)
	}
	if result.ExecutionTime != 0.078 {
		t.Errorf("ExecutionTime = %v, want 0.078", result.ExecutionTime)
	}

	wantNodes := []Node{
		{ID: 0, Type: "Nested Loop", Loops: 1, Children: []int{1, 2}},
		{ID: 1, Type: "Nested Loop", Loops: 1, Children: []int{3, 4}},
		{ID: 2, Type: "Index Scan", Relation: "department", Index: "department_pkey", Loops: 2, Children: []int{}},
		{ID: 3, Type: "Bitmap Heap Scan", Relation: "employee", Loops: 1, Children: []int{5}},
		{ID: 4, Type: "Index Scan", Relation: "department_employee", Index: "department_employee_pkey", Loops: 3, Children: []int{}},
		{ID: 5, Type: "Bitmap Index Scan", Index: "idx_employee_hire_date", Loops: 1, Children: []int{}},
	}
	if diff := cmp.Diff(wantNodes, result.Nodes, ignoreDetails); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}

	wantEdges := []Edge{
		{ID: "e0-1", Source: 0, Target: 1},
		{ID: "e0-2", Source: 0, Target: 2},
		{ID: "e1-3", Source: 1, Target: 3},
		{ID: "e1-4", Source: 1, Target: 4},
		{ID: "e3-5", Source: 3, Target: 5},
	}
	if diff := cmp.Diff(wantEdges, result.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}

	wantTypes := []string{"Nested Loop", "Index Scan", "Bitmap Heap Scan", "Bitmap Index Scan"}
	if diff := cmp.Diff(wantTypes, result.UniqueTypes); diff != "" {
		t.Errorf("unique types mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_MetricSeries(t *testing.T) {
	result := analyzeFixture(t)

	wantCost := []MetricSample{
		{Node: "0", Startup: 5.52, Total: 747.31},
		{Node: "1", Startup: 5.37, Total: 747.14},
		{Node: "2", Startup: 0.15, Total: 0.17},
		{Node: "3", Startup: 4.94, Total: 226.64},
		{Node: "4", Startup: 0.42, Total: 8.25},
		{Node: "5", Startup: 0, Total: 4.93},
	}
	if diff := cmp.Diff(wantCost, result.CostSeries); diff != "" {
		t.Errorf("cost series mismatch (-want +got):\n%s", diff)
	}

	wantTime := []MetricSample{
		{Node: "0", Startup: 0.03, Total: 0.049},
		{Node: "1", Startup: 0.026, Total: 0.043},
		{Node: "2", Startup: 0.002, Total: 0.002},
		{Node: "3", Startup: 0.013, Total: 0.017},
		{Node: "4", Startup: 0.007, Total: 0.007},
		{Node: "5", Startup: 0.006, Total: 0.006},
	}
	if diff := cmp.Diff(wantTime, result.TimeSeries); diff != "" {
		t.Errorf("time series mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyze_Layout(t *testing.T) {
	result := analyzeFixture(t)

	want := []LayoutNode{
		{Node: result.Nodes[0], Label: "Node 0 | Nested Loop", Rank: 3, Order: 0, Position: layout.Point{X: -150, Y: 450}},
		{Node: result.Nodes[1], Label: "Node 1 | Nested Loop", Rank: 2, Order: 0, Position: layout.Point{X: -150, Y: 300}},
		{Node: result.Nodes[2], Label: "Node 2 | Index Scan on department using department_pkey", Rank: 0, Order: 0, Position: layout.Point{X: -500, Y: 0}},
		{Node: result.Nodes[3], Label: "Node 3 | Bitmap Heap Scan on employee", Rank: 1, Order: 0, Position: layout.Point{X: -150, Y: 150}},
		{Node: result.Nodes[4], Label: "Node 4 | Index Scan on department_employee using department_employee_pkey", Rank: 0, Order: 1, Position: layout.Point{X: -150, Y: 0}},
		{Node: result.Nodes[5], Label: "Node 5 | Bitmap Index Scan using idx_employee_hire_date", Rank: 0, Order: 2, Position: layout.Point{X: 200, Y: 0}},
	}
	if diff := cmp.Diff(want, result.LayoutNodes, ignoreDetails); diff != "" {
		t.Errorf("layout nodes mismatch (-want +got):\n%s", diff)
	}

	if got := result.Depth(); got != 4 {
		t.Errorf("Depth() = %d, want 4", got)
	}
}

func TestAnalyze_FlowEdgesReversed(t *testing.T) {
	result := analyzeFixture(t)

	if len(result.LayoutEdges) != len(result.Edges) {
		t.Fatalf("got %d flow edges, want %d", len(result.LayoutEdges), len(result.Edges))
	}
	for i, fe := range result.LayoutEdges {
		e := result.Edges[i]
		if fe.Source != e.Target || fe.Target != e.Source {
			t.Errorf("flow edge %s = %d->%d, want %d->%d", fe.ID, fe.Source, fe.Target, e.Target, e.Source)
		}
		if !fe.Animated {
			t.Errorf("flow edge %s not animated", fe.ID)
		}
	}
}

func TestAnalyze_DetailsKeepRawFields(t *testing.T) {
	result := analyzeFixture(t)

	details := result.Nodes[0].Details
	if details == nil {
		t.Fatal("expected details on root node")
	}
	if _, ok := details.Get(plan.KeyPlans); ok {
		t.Error("details should not contain Plans")
	}
	if first := details.Oldest(); first == nil || first.Key != plan.KeyNodeType {
		t.Errorf("first detail key = %v, want %q", first, plan.KeyNodeType)
	}
	raw, ok := details.Get("Join Type")
	if !ok || string(raw) != `"Inner"` {
		t.Errorf("Join Type = %s, want \"Inner\"", raw)
	}
}

// --- Structural properties ---

func TestAnalyze_TreeProperties(t *testing.T) {
	result := analyzeFixture(t)

	if len(result.Edges) != len(result.Nodes)-1 {
		t.Errorf("got %d edges for %d nodes, want n-1", len(result.Edges), len(result.Nodes))
	}
	for k, n := range result.Nodes {
		if n.ID != k {
			t.Errorf("Nodes[%d].ID = %d", k, n.ID)
		}
	}

	incoming := make(map[int]int)
	for _, e := range result.Edges {
		incoming[e.Target]++
		if e.Target <= e.Source {
			t.Errorf("edge %s: child id %d not greater than parent id %d", e.ID, e.Target, e.Source)
		}
	}
	for _, n := range result.Nodes {
		want := 1
		if n.ID == 0 {
			want = 0
		}
		if incoming[n.ID] != want {
			t.Errorf("node %d has %d parents, want %d", n.ID, incoming[n.ID], want)
		}
	}
}

func TestAnalyze_LeavesAtRankZeroRootAtMax(t *testing.T) {
	result := analyzeFixture(t)

	maxRank := 0
	for _, n := range result.LayoutNodes {
		maxRank = max(maxRank, n.Rank)
		if len(n.Children) == 0 && n.Rank != 0 {
			t.Errorf("leaf %d at rank %d, want 0", n.ID, n.Rank)
		}
	}
	if result.LayoutNodes[0].Rank != maxRank {
		t.Errorf("root rank = %d, want %d", result.LayoutNodes[0].Rank, maxRank)
	}
}

func TestAnalyze_Idempotent(t *testing.T) {
	data := loadFixture(t, "nested_loop.json")

	first, err := AnalyzeJSON(data, DefaultOptions())
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := AnalyzeJSON(data, DefaultOptions())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("two runs on identical input produced different JSON")
	}
}

func TestAnalyze_Concurrent(t *testing.T) {
	data := loadFixture(t, "nested_loop.json")
	want, err := AnalyzeJSON(data, DefaultOptions())
	if err != nil {
		t.Fatalf("AnalyzeJSON failed: %v", err)
	}
	wantJSON, _ := json.Marshal(want)

	var wg sync.WaitGroup
	errs := make(chan string, 8)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := AnalyzeJSON(data, DefaultOptions())
			if err != nil {
				errs <- err.Error()
				return
			}
			gotJSON, _ := json.Marshal(got)
			if !bytes.Equal(wantJSON, gotJSON) {
				errs <- "concurrent result differs"
			}
		}()
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
}

func TestAnalyze_JSONFieldNames(t *testing.T) {
	result := analyzeFixture(t)

	data, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, key := range []string{`"planningTime"`, `"executionTime"`, `"costSeries"`, `"timeSeries"`, `"uniqueTypes"`, `"layoutNodes"`, `"layoutEdges"`, `"animated":true`, `"position":{"x":`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("expected %s in JSON output", key)
		}
	}
}

// --- Small plans ---

func TestAnalyze_SingleNode(t *testing.T) {
	result, err := AnalyzeJSON([]byte(`[{"Plan": {"Node Type": "Result"}}]`), DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(result.Nodes))
	}
	if len(result.Edges) != 0 || result.Edges == nil {
		t.Errorf("Edges = %v, want empty non-nil", result.Edges)
	}

	n := result.LayoutNodes[0]
	if n.Rank != 0 || n.Order != 0 {
		t.Errorf("rank/order = %d/%d, want 0/0", n.Rank, n.Order)
	}
	if n.Relation != "" || n.Index != "" || n.Loops != 0 {
		t.Errorf("absent fields not defaulted: %+v", n.Node)
	}
	if result.PlanningTime != 0 || result.ExecutionTime != 0 {
		t.Errorf("absent times not defaulted: %v / %v", result.PlanningTime, result.ExecutionTime)
	}
	if n.Label != "Node 0 | Result" {
		t.Errorf("Label = %q, want %q", n.Label, "Node 0 | Result")
	}
}

func TestAnalyze_WideFanOut(t *testing.T) {
	data := []byte(`[{"Plan": {"Node Type": "Append", "Plans": [
		{"Node Type": "Seq Scan", "Relation Name": "a"},
		{"Node Type": "Seq Scan", "Relation Name": "b"},
		{"Node Type": "Seq Scan", "Relation Name": "c"}
	]}}]`)

	result, err := AnalyzeJSON(data, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]int{1, 2, 3}, result.Nodes[0].Children); diff != "" {
		t.Errorf("root children mismatch (-want +got):\n%s", diff)
	}
	for _, id := range []int{1, 2, 3} {
		if result.LayoutNodes[id].Rank != 0 || result.LayoutNodes[id].Order != id-1 {
			t.Errorf("node %d: rank/order = %d/%d, want 0/%d", id, result.LayoutNodes[id].Rank, result.LayoutNodes[id].Order, id-1)
		}
	}
	if result.LayoutNodes[0].Rank != 1 {
		t.Errorf("root rank = %d, want 1", result.LayoutNodes[0].Rank)
	}
}

// --- Errors ---

func TestAnalyze_MissingNodeTypeRoot(t *testing.T) {
	result, err := AnalyzeJSON([]byte(`[{"Plan": {"Total Cost": 1}}]`), DefaultOptions())
	if !errors.Is(err, plan.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if result.Nodes != nil || result.LayoutNodes != nil {
		t.Error("expected no partial result")
	}
}

func TestAnalyze_MissingNodeTypeChild(t *testing.T) {
	data := []byte(`[{"Plan": {"Node Type": "Hash Join", "Plans": [
		{"Node Type": "Seq Scan"},
		{"Node Type": "Hash", "Plans": [{"Relation Name": "x"}]}
	]}}]`)

	_, err := AnalyzeJSON(data, DefaultOptions())
	if !errors.Is(err, plan.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if !strings.Contains(err.Error(), "node 3") {
		t.Errorf("error should name node 3: %v", err)
	}
}

func TestAnalyze_ParseErrorPropagates(t *testing.T) {
	_, err := AnalyzeJSON([]byte(`[{"Plan": `), DefaultOptions())
	if !errors.Is(err, plan.ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestAnalyze_ResourceLimit(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxNodes = 3

	_, err := AnalyzeJSON(loadFixture(t, "nested_loop.json"), opts)
	if !errors.Is(err, plan.ErrResourceLimit) {
		t.Fatalf("err = %v, want ErrResourceLimit", err)
	}
}

func TestAnalyze_ResourceLimitDeepChain(t *testing.T) {
	const depth = 1000
	var b strings.Builder
	b.WriteString(`[{"Plan": `)
	for i := 0; i < depth; i++ {
		b.WriteString(`{"Node Type": "Limit", "Padding": "` + strings.Repeat("x", 1000) + `", "Plans": [`)
	}
	// The innermost node is malformed and must never be reached.
	b.WriteString(`{"Total Cost": "high"}`)
	for i := 0; i < depth; i++ {
		b.WriteString(`]}`)
	}
	b.WriteString(`}]`)

	opts := DefaultOptions()
	opts.MaxNodes = 10

	_, err := AnalyzeJSON([]byte(b.String()), opts)
	if !errors.Is(err, plan.ErrResourceLimit) {
		t.Fatalf("err = %v, want ErrResourceLimit", err)
	}
}

func TestAnalyze_ResourceLimitExact(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxNodes = 6

	result, err := AnalyzeJSON(loadFixture(t, "nested_loop.json"), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Nodes) != 6 {
		t.Errorf("got %d nodes, want 6", len(result.Nodes))
	}
}

func TestAnalyze_BarycenterKeepsRanks(t *testing.T) {
	opts := DefaultOptions()
	opts.Layout.Ordering = layout.OrderBarycenter

	byID := analyzeFixture(t)
	bary, err := AnalyzeJSON(loadFixture(t, "nested_loop.json"), opts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range bary.LayoutNodes {
		if bary.LayoutNodes[i].Rank != byID.LayoutNodes[i].Rank {
			t.Errorf("node %d: rank %d, want %d", i, bary.LayoutNodes[i].Rank, byID.LayoutNodes[i].Rank)
		}
	}
}

func TestFlatten_NilRoot(t *testing.T) {
	_, err := Flatten(nil, FlattenOptions{})
	if !errors.Is(err, plan.ErrStructural) {
		t.Fatalf("err = %v, want ErrStructural", err)
	}
}
