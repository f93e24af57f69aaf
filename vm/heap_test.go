package vm

import "testing"

func TestHeapAllocateAndSlots(t *testing.T) {
	h := NewHeap()
	ref := h.Allocate()
	if _, ok := h.GetSlot(ref, 1); ok {
		t.Fatal("freshly allocated object should have no slots")
	}
	if err := h.SetSlot(ref, 1, IntValue(42)); err != nil {
		t.Fatal(err)
	}
	v, ok := h.GetSlot(ref, 1)
	if !ok || v.Int() != 42 {
		t.Fatalf("GetSlot(1) = (%v, %v), want (42, true)", v, ok)
	}
}

func TestHeapSlotOverwrite(t *testing.T) {
	h := NewHeap()
	ref := h.Allocate()
	h.SetSlot(ref, 1, IntValue(1))
	h.SetSlot(ref, 1, IntValue(2))
	v, _ := h.GetSlot(ref, 1)
	if v.Int() != 2 {
		t.Fatalf("GetSlot(1) = %d, want 2 (overwritten)", v.Int())
	}
}

func TestHeapSharedShapeTransitions(t *testing.T) {
	h := NewHeap()
	a := h.Allocate()
	b := h.Allocate()
	h.SetSlot(a, 1, IntValue(10))
	h.SetSlot(b, 1, IntValue(20))
	objA := h.objects[a]
	objB := h.objects[b]
	if objA.shape != objB.shape {
		t.Fatal("objects built via the same slot sequence should share a shape")
	}
}

type fakeRootSource struct {
	roots []Value
}

func (f *fakeRootSource) VisitRoots(visit func(Value)) {
	for _, v := range f.roots {
		visit(v)
	}
}

func TestHeapCollectSweepsUnreachable(t *testing.T) {
	h := NewHeap()
	kept := h.Allocate()
	h.Allocate() // unreachable

	src := &fakeRootSource{roots: []Value{ObjectValue(kept)}}
	h.RegisterRootSource(src)

	collected := h.Collect()
	if collected != 1 {
		t.Fatalf("Collect() collected %d, want 1", collected)
	}
	if h.Len() != 1 {
		t.Fatalf("Len() after collect = %d, want 1", h.Len())
	}
	if _, ok := h.objects[kept]; !ok {
		t.Fatal("rooted object was collected")
	}
}

func TestHeapCollectFollowsSlotChains(t *testing.T) {
	h := NewHeap()
	child := h.Allocate()
	parent := h.Allocate()
	h.SetSlot(parent, 1, ObjectValue(child))

	src := &fakeRootSource{roots: []Value{ObjectValue(parent)}}
	h.RegisterRootSource(src)

	h.Collect()
	if _, ok := h.objects[child]; !ok {
		t.Fatal("object reachable only via a slot chain was collected")
	}
}

func TestHeapGetSlotOnUnknownRef(t *testing.T) {
	h := NewHeap()
	if _, ok := h.GetSlot(ObjectRef(999), 0); ok {
		t.Fatal("GetSlot on an unknown reference should report not found")
	}
}
