package ring

import "testing"

func TestPushWithinCapacity(t *testing.T) {
	b := New[int](4)
	b.Push(1)
	b.Push(2)
	b.Push(3)

	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}
	got := b.Snapshot()
	want := []int{1, 2, 3}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("Snapshot()[%d] = %d, want %d", i, got[i], v)
		}
	}
}

func TestOverwriteOldest(t *testing.T) {
	b := New[int](3)
	b.Push(1)
	b.Push(2)
	b.Push(3)
	overwrote := b.Push(4)

	if !overwrote {
		t.Fatal("Push past capacity should report overwrite")
	}
	if b.Dropped() != 1 {
		t.Fatalf("Dropped() = %d, want 1", b.Dropped())
	}
	got := b.Snapshot()
	want := []int{2, 3, 4}
	for i, v := range want {
		if got[i] != v {
			t.Errorf("Snapshot()[%d] = %d, want %d", i, got[i], v)
		}
	}
}

func TestClearKeepsCapacity(t *testing.T) {
	b := New[int](2)
	b.Push(1)
	b.Push(2)
	b.Clear()

	if b.Len() != 0 {
		t.Fatalf("Len() after Clear = %d, want 0", b.Len())
	}
	if b.Cap() != 2 {
		t.Fatalf("Cap() after Clear = %d, want 2", b.Cap())
	}
	b.Push(9)
	got, ok := b.At(0)
	if !ok || got != 9 {
		t.Fatalf("At(0) after Clear+Push = %v,%v want 9,true", got, ok)
	}
}

func TestZeroCapacityClampedToOne(t *testing.T) {
	b := New[int](0)
	if b.Cap() != 1 {
		t.Fatalf("Cap() = %d, want 1", b.Cap())
	}
}
