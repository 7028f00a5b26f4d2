package stamp

import (
	"testing"
	"time"
)

func TestIntOpsBounds(t *testing.T) {
	ops := IntOps[int8]()
	if ops.Min() != -128 {
		t.Errorf("Min() = %d, want -128", ops.Min())
	}
	if ops.Max() != 127 {
		t.Errorf("Max() = %d, want 127", ops.Max())
	}

	uops := IntOps[uint8]()
	if uops.Min() != 0 {
		t.Errorf("Min() = %d, want 0", uops.Min())
	}
	if uops.Max() != 255 {
		t.Errorf("Max() = %d, want 255", uops.Max())
	}
}

func TestIntOpsArithmetic(t *testing.T) {
	ops := IntOps[int]()
	if got := ops.Add(10, 5); got != 15 {
		t.Errorf("Add(10,5) = %d, want 15", got)
	}
	if got := ops.Sub(10, 5); got != 5 {
		t.Errorf("Sub(10,5) = %d, want 5", got)
	}
	if got := ops.Diff(10, 5); got != 5 {
		t.Errorf("Diff(10,5) = %d, want 5", got)
	}
	if ops.Compare(1, 2) >= 0 {
		t.Error("Compare(1,2) should be negative")
	}
}

func TestTimeOpsArithmetic(t *testing.T) {
	ops := TimeOps()
	base := time.Unix(1000, 0)
	later := ops.Add(base, 5*time.Second)
	if !later.Equal(time.Unix(1005, 0)) {
		t.Errorf("Add gave %v, want %v", later, time.Unix(1005, 0))
	}
	if d := ops.Diff(later, base); d != 5*time.Second {
		t.Errorf("Diff gave %v, want 5s", d)
	}
	if !Less(ops, base, later) {
		t.Error("expected base < later")
	}
}

func TestMax2Min2(t *testing.T) {
	ops := IntOps[int]()
	if Max2(ops, 3, 7) != 7 {
		t.Error("Max2(3,7) should be 7")
	}
	if Min2(ops, 3, 7) != 3 {
		t.Error("Min2(3,7) should be 3")
	}
}
