package gpuverify

import "testing"

func TestResolveLimitsDefaults(t *testing.T) {
	for _, c := range []Constraints{nil, {}, {"max_registers": 255}} {
		l := ResolveLimits(c)
		want := Limits{Unbounded, Unbounded, Unbounded, Unbounded, Unbounded, Unbounded}
		if l != want {
			t.Errorf("ResolveLimits(%v) = %+v, want all unbounded", c, l)
		}
	}
}

func TestResolveLimitsPartial(t *testing.T) {
	c := Constraints{
		KeyMaxSharedMemoryPerBlock: 49152,
		KeyMaxThreadX:              1024,
		KeyMaxThreadZ:              64,
	}
	got := ResolveLimits(c)
	want := Limits{
		MaxLocalMemoryPerBlock:  Unbounded,
		MaxSharedMemoryPerBlock: 49152,
		MaxThreadPerBlock:       Unbounded,
		MaxThreadX:              1024,
		MaxThreadY:              Unbounded,
		MaxThreadZ:              64,
	}
	if got != want {
		t.Errorf("ResolveLimits() = %+v, want %+v", got, want)
	}
	if len(c) != 3 {
		t.Errorf("ResolveLimits mutated its input: %v", c)
	}
}

func TestLimitsConstraintsRoundTrip(t *testing.T) {
	l := Limits{1, 2, 3, 4, 5, 6}
	if got := ResolveLimits(l.Constraints()); got != l {
		t.Errorf("ResolveLimits(l.Constraints()) = %+v, want %+v", got, l)
	}
}

func TestConstraintsMerge(t *testing.T) {
	base := Constraints{KeyMaxThreadPerBlock: 1024, KeyMaxThreadX: 1024}
	over := Constraints{KeyMaxThreadPerBlock: 256}

	got := base.Merge(over)
	if got[KeyMaxThreadPerBlock] != 256 || got[KeyMaxThreadX] != 1024 {
		t.Errorf("Merge() = %v", got)
	}
	if base[KeyMaxThreadPerBlock] != 1024 {
		t.Error("Merge() modified the receiver")
	}
	if got := Constraints(nil).Merge(nil); got == nil || len(got) != 0 {
		t.Errorf("nil.Merge(nil) = %v, want empty map", got)
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	if len(keys) != 6 {
		t.Fatalf("len(Keys()) = %d, want 6", len(keys))
	}
	for i, k := range keys {
		if !IsKey(k) {
			t.Errorf("IsKey(%q) = false", k)
		}
		if i > 0 && keys[i-1] >= k {
			t.Errorf("Keys() not sorted: %v", keys)
		}
	}
	if IsKey("max_threads") {
		t.Error(`IsKey("max_threads") = true`)
	}
}
