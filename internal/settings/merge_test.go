package settings

import (
	"reflect"
	"testing"
)

func TestMerge_KeyPresentInOneScopeIsPreserved(t *testing.T) {
	base := Document{"model": "global-model"}
	overlay := Document{"historyBytes": 200}

	merged := Merge(base, overlay)

	if merged["model"] != "global-model" {
		t.Fatalf("expected base key preserved, got %v", merged["model"])
	}
	if merged["historyBytes"] != 200 {
		t.Fatalf("expected overlay key preserved, got %v", merged["historyBytes"])
	}
}

func TestMerge_NestedObjectsMergeRecursively(t *testing.T) {
	base := Document{
		"approver": map[string]any{"model": "global-model", "historyBytes": 0},
	}
	overlay := Document{
		"approver": map[string]any{"historyBytes": 300},
	}

	merged := Merge(base, overlay)

	approver, ok := merged["approver"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested object, got %T", merged["approver"])
	}
	if approver["model"] != "global-model" {
		t.Errorf("expected model kept from base, got %v", approver["model"])
	}
	if approver["historyBytes"] != 300 {
		t.Errorf("expected historyBytes overridden, got %v", approver["historyBytes"])
	}
}

func TestMerge_ScalarReplacedByLaterScope(t *testing.T) {
	merged := Merge(Document{"model": "a"}, Document{"model": "b"})

	if merged["model"] != "b" {
		t.Fatalf("expected overlay to win, got %v", merged["model"])
	}
}

func TestMerge_ArraysReplacedWholesale(t *testing.T) {
	base := Document{"tools": []any{"Bash", "Edit"}}
	overlay := Document{"tools": []any{"Write"}}

	merged := Merge(base, overlay)

	tools, ok := merged["tools"].([]any)
	if !ok {
		t.Fatalf("expected array, got %T", merged["tools"])
	}
	if len(tools) != 1 || tools[0] != "Write" {
		t.Fatalf("expected wholesale replacement, got %v", tools)
	}
}

func TestMerge_IdempotentForIdenticalContent(t *testing.T) {
	doc := Document{
		"approver": map[string]any{"model": "m", "list": []any{"a", "b"}},
	}

	once := Merge(Document{}, doc)
	twice := Merge(once, doc)

	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("expected idempotent merge, got %v then %v", once, twice)
	}
}

func TestMerge_ApplicationOrderIsAssociative(t *testing.T) {
	global := Document{"a": map[string]any{"x": 1}, "b": "global"}
	project := Document{"a": map[string]any{"y": 2}}
	local := Document{"b": "local"}

	leftFirst := Merge(Merge(global, project), local)
	sequential := Merge(Merge(Merge(Document{}, global), project), local)

	if !reflect.DeepEqual(leftFirst, sequential) {
		t.Fatalf("expected same result, got %v vs %v", leftFirst, sequential)
	}
}

func TestMerge_DoesNotMutateInputs(t *testing.T) {
	base := Document{"a": map[string]any{"x": 1}}
	overlay := Document{"a": map[string]any{"y": 2}}

	_ = Merge(base, overlay)

	inner := base["a"].(map[string]any)
	if _, ok := inner["y"]; ok {
		t.Fatal("expected base to stay untouched")
	}
}

func TestMerge_NilInputsYieldEmptyDocument(t *testing.T) {
	merged := Merge(nil, nil)

	if merged == nil || len(merged) != 0 {
		t.Fatalf("expected empty document, got %v", merged)
	}
}
