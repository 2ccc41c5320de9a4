package reactive

import (
	"errors"
	"testing"
)

func TestDerivedBasic(t *testing.T) {
	s := NewStore()
	count := CreateSignal(s, 5)
	doubled := CreateDerived(s, func() (int, error) {
		return count.Get() * 2, nil
	})

	v, err := doubled.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != 10 {
		t.Errorf("expected 10, got %d", v)
	}

	count.Set(7)
	v, _ = doubled.Get()
	if v != 14 {
		t.Errorf("expected 14 after write, got %d", v)
	}
}

func TestDerivedLazyRecompute(t *testing.T) {
	s := NewStore()
	count := CreateSignal(s, 5)

	computes := 0
	doubled := CreateDerived(s, func() (int, error) {
		computes++
		return count.Get() * 2, nil
	})

	// Creation is lazy: nothing runs until the first read.
	if computes != 0 {
		t.Fatalf("expected 0 computes before first read, got %d", computes)
	}

	doubled.Get()
	if computes != 1 {
		t.Fatalf("expected 1 compute, got %d", computes)
	}

	// Cached read without intervening write.
	doubled.Get()
	if computes != 1 {
		t.Errorf("cached read must not recompute, got %d", computes)
	}

	// Exactly one recompute after a write, however many reads follow.
	count.Set(6)
	doubled.Get()
	doubled.Get()
	if computes != 2 {
		t.Errorf("expected 2 computes after one write, got %d", computes)
	}
}

func TestDerivedChain(t *testing.T) {
	s := NewStore()
	base := CreateSignal(s, 2)
	doubled := CreateDerived(s, func() (int, error) {
		return base.Get() * 2, nil
	})
	quadrupled := CreateDerived(s, func() (int, error) {
		v, err := doubled.Get()
		return v * 2, err
	})

	v, err := quadrupled.Get()
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if v != 8 {
		t.Errorf("expected 8, got %d", v)
	}

	// Dirtiness propagates through the chain.
	base.Set(3)
	v, _ = quadrupled.Get()
	if v != 12 {
		t.Errorf("expected 12, got %d", v)
	}
}

func TestDerivedDependencyReplacement(t *testing.T) {
	s := NewStore()
	useA := CreateSignal(s, true)
	a := CreateSignal(s, 1)
	b := CreateSignal(s, 100)

	computes := 0
	pick := CreateDerived(s, func() (int, error) {
		computes++
		if useA.Get() {
			return a.Get(), nil
		}
		return b.Get(), nil
	})

	pick.Get()
	if computes != 1 {
		t.Fatalf("expected 1 compute, got %d", computes)
	}

	// While the A branch is live, writes to b are irrelevant.
	b.Set(200)
	pick.Get()
	if computes != 1 {
		t.Errorf("write to unread branch must not dirty, got %d computes", computes)
	}

	// Switch branches; the old dependency on a must be dropped.
	useA.Set(false)
	pick.Get()
	if computes != 2 {
		t.Fatalf("expected recompute after branch switch, got %d", computes)
	}
	a.Set(50)
	pick.Get()
	if computes != 2 {
		t.Errorf("stale branch dependency not dropped, got %d computes", computes)
	}
	b.Set(300)
	if v, _ := pick.Get(); v != 300 {
		t.Errorf("expected 300, got %d", v)
	}
}

func TestDerivedCycleFailsFast(t *testing.T) {
	s := NewStore()

	var self Derived[int]
	self = CreateDerived(s, func() (int, error) {
		v, err := self.Get()
		return v + 1, err
	})

	_, err := self.Get()
	if !errors.Is(err, ErrReactiveCycle) {
		t.Fatalf("expected ErrReactiveCycle, got %v", err)
	}

	// The failure must not corrupt the rest of the graph.
	other := CreateSignal(s, 1)
	fine := CreateDerived(s, func() (int, error) {
		return other.Get() + 1, nil
	})
	v, err := fine.Get()
	if err != nil || v != 2 {
		t.Errorf("independent derived broken after cycle: v=%d err=%v", v, err)
	}
}

func TestDerivedMutualCycle(t *testing.T) {
	s := NewStore()

	var a, b Derived[int]
	a = CreateDerived(s, func() (int, error) {
		v, err := b.Get()
		return v + 1, err
	})
	b = CreateDerived(s, func() (int, error) {
		v, err := a.Get()
		return v + 1, err
	})

	if _, err := a.Get(); !errors.Is(err, ErrReactiveCycle) {
		t.Errorf("expected ErrReactiveCycle for mutual cycle, got %v", err)
	}
}

func TestDerivedDestroyedRead(t *testing.T) {
	s := NewStore()
	d := CreateDerived(s, func() (int, error) { return 1, nil })
	d.Destroy()

	if _, err := d.Get(); !errors.Is(err, ErrLookup) {
		t.Errorf("expected ErrLookup, got %v", err)
	}
}
