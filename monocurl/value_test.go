package monocurl

import (
	"strings"
	"testing"
)

func testExecution() *Execution {
	return MustNewEngine(Config{}).exec
}

func sampleValues(t *testing.T, exec *Execution) []Value {
	t.Helper()
	m := newMap(4)
	if err := exec.mapSet(m, NewString("k"), NewVector([]Value{NewDouble(1), NewChar('x')})); err != nil {
		t.Fatalf("map set: %v", err)
	}
	if err := exec.mapSet(m, NewDouble(2), NewString("two")); err != nil {
		t.Fatalf("map set: %v", err)
	}
	return []Value{
		NewDouble(0),
		NewDouble(-3.5),
		NewChar('q'),
		NewString("hello"),
		NewVector([]Value{NewDouble(1), NewVector([]Value{NewDouble(2)})}),
		NewMap(m),
		NewMesh(NewPolyMesh([][3]float64{{0, 0, 0}, {1, 0, 0}}, nil)),
		NewAnimation(bindNative(waitSentinel, NewDouble(1)), Value{}, Value{}),
	}
}

func TestHashAndCompareSurviveCopy(t *testing.T) {
	exec := testExecution()
	for _, v := range sampleValues(t, exec) {
		c := copyValue(v)
		h1, err := exec.hash(v)
		if err != nil {
			t.Fatalf("hash %v: %v", v, err)
		}
		h2, err := exec.hash(c)
		if err != nil {
			t.Fatalf("hash copy %v: %v", v, err)
		}
		if h1 != h2 {
			t.Fatalf("hash mismatch for %v", v)
		}
		cmp, err := exec.compare(v, c)
		if err != nil || cmp != 0 {
			t.Fatalf("compare %v with copy: %d %v", v, cmp, err)
		}
	}
}

func TestHashDetectsSingleElementChange(t *testing.T) {
	exec := testExecution()
	a := NewVector([]Value{NewDouble(1), NewDouble(2), NewDouble(3)})
	b := NewVector([]Value{NewDouble(1), NewDouble(2), NewDouble(4)})
	ha, _ := exec.hash(a)
	hb, _ := exec.hash(b)
	if ha == hb {
		t.Fatalf("expected different hashes")
	}

	m1, m2 := newMap(2), newMap(2)
	exec.mapSet(m1, NewDouble(1), NewDouble(10))
	exec.mapSet(m2, NewDouble(1), NewDouble(11))
	h1, _ := exec.hash(NewMap(m1))
	h2, _ := exec.hash(NewMap(m2))
	if h1 == h2 {
		t.Fatalf("expected different map hashes")
	}
}

func TestHashCacheInvalidatedOnWrite(t *testing.T) {
	engine := MustNewEngine(Config{})
	execSource(t, engine, "var v = {1, 2, 3}")
	before, _ := engine.Global("v")
	h1, err := engine.exec.hash(before)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	execSource(t, engine, "v[1] = 20")
	after, _ := engine.Global("v")
	h2, err := engine.exec.hash(after)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if h1 == h2 {
		t.Fatalf("expected hash to change after element write")
	}
}

func TestUninitializedValueFailsToHash(t *testing.T) {
	exec := testExecution()
	if _, err := exec.hash(Value{}); err == nil {
		t.Fatalf("expected hash failure")
	}
	if _, err := exec.hash(NewVector([]Value{NewDouble(1), {}})); err == nil {
		t.Fatalf("expected nested hash failure")
	}
}

func TestCompareIsKindOrdered(t *testing.T) {
	exec := testExecution()
	values := sampleValues(t, exec)
	for i := range values {
		for j := range values {
			ab, err := exec.compare(values[i], values[j])
			if err != nil {
				t.Fatalf("compare: %v", err)
			}
			ba, err := exec.compare(values[j], values[i])
			if err != nil {
				t.Fatalf("compare: %v", err)
			}
			if ab != -ba {
				t.Fatalf("compare not antisymmetric for %v and %v", values[i], values[j])
			}
		}
	}
}

func TestCopyIsDeep(t *testing.T) {
	source := strings.Join([]string{
		"var a = {{1, 2}, 3}",
		"var b = a",
		"b[0][1] = 99",
		"a[0][1]",
	}, "\n")
	expectDouble(t, evalSource(t, source), 2)
}

func TestMissingOperationNamesKind(t *testing.T) {
	tests := []struct {
		source string
		msg    string
	}{
		{"'a' + 'b'", "operation add not supported for char"},
		{"{:} - {:}", "operation subtract not supported for map"},
		{"5(1)", "operation call not supported for double"},
		{"{1, 2} + {1}", "length"},
	}
	for _, tt := range tests {
		err := execFailure(t, tt.source)
		if !strings.Contains(err.Error(), tt.msg) {
			t.Fatalf("%s: expected %q in %v", tt.source, tt.msg, err)
		}
	}
}

func TestMapPreservesInsertionOrder(t *testing.T) {
	exec := testExecution()
	m := newMap(0)
	for i := 0; i < 40; i++ {
		if err := exec.mapSet(m, NewDouble(float64(i)), NewDouble(float64(i*i))); err != nil {
			t.Fatalf("set: %v", err)
		}
	}
	for i := 0; i < 40; i += 2 {
		if ok, err := exec.mapRemove(m, NewDouble(float64(i))); !ok || err != nil {
			t.Fatalf("remove %d: %v %v", i, ok, err)
		}
	}
	if m.Len() != 20 {
		t.Fatalf("expected 20 entries, got %d", m.Len())
	}
	keys := m.keys()
	for i, k := range keys {
		if k.Double() != float64(2*i+1) {
			t.Fatalf("unexpected key order at %d: %v", i, k)
		}
	}
	v, err := exec.mapGet(m, NewDouble(7))
	if err != nil || v == nil || v.Double() != 49 {
		t.Fatalf("expected 49, got %v %v", v, err)
	}
	if v, _ := exec.mapGet(m, NewDouble(8)); v != nil {
		t.Fatalf("expected removed key to be absent")
	}
}

func TestMapIndexCreatesOnAssign(t *testing.T) {
	source := strings.Join([]string{
		"var m = {:}",
		"m[\"a\"] = 1",
		"m[\"b\"] = 2",
		"m[\"a\"] += 10",
		"m.a + m[\"b\"]",
	}, "\n")
	expectDouble(t, evalSource(t, source), 13)

	err := execFailure(t, "var m = {:}\nm[\"missing\"]")
	if !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}
