package docbind

import (
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAssignScalarCopiesContainers(t *testing.T) {
	var target struct {
		Meta   map[string]interface{}
		Labels []interface{}
	}
	v := reflect.ValueOf(&target).Elem()

	meta := map[string]interface{}{
		"edition": "first",
		"print":   map[string]interface{}{"run": int64(1)},
	}
	labels := []interface{}{"a", []interface{}{"b"}}

	if err := assignScalar(v.Field(0), meta); err != nil {
		t.Fatalf("assign meta: %v", err)
	}
	if err := assignScalar(v.Field(1), labels); err != nil {
		t.Fatalf("assign labels: %v", err)
	}

	target.Meta["edition"] = "second"
	target.Meta["print"].(map[string]interface{})["run"] = int64(2)
	target.Labels[0] = "z"
	target.Labels[1].([]interface{})[0] = "y"

	wantMeta := map[string]interface{}{
		"edition": "first",
		"print":   map[string]interface{}{"run": int64(1)},
	}
	if diff := cmp.Diff(wantMeta, meta); diff != "" {
		t.Errorf("source map changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]interface{}{"a", []interface{}{"b"}}, labels); diff != "" {
		t.Errorf("source slice changed (-want +got):\n%s", diff)
	}
}

func TestSetFieldValueRejectsOverflow(t *testing.T) {
	var target struct {
		Small int8
		Byte  uint8
		Float float32
	}
	v := reflect.ValueOf(&target).Elem()

	tests := []struct {
		name  string
		field int
		value string
	}{
		{"int8", 0, "300"},
		{"uint8", 1, "256"},
		{"float32", 2, "1e40"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := setFieldValue(v.Field(tt.field), tt.value); err == nil {
				t.Errorf("expected overflow error for %s", tt.value)
			}
		})
	}

	if err := setFieldValue(v.Field(0), "-128"); err != nil || target.Small != -128 {
		t.Errorf("in-range value: got %d, err %v", target.Small, err)
	}
}
