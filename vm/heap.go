package vm

// Shape describes the slot layout shared by every object that has
// undergone the same sequence of slot additions — a direct analogue of a
// V8-style hidden class. Objects start life with the shared empty shape
// and transition to a new (or cached) shape each time a slot absent from
// their current shape is written.
type Shape struct {
	order       []uint32
	index       map[uint32]int
	transitions map[uint32]*Shape
}

func newShape() *Shape {
	return &Shape{index: make(map[uint32]int)}
}

// emptyShape is shared by every freshly allocated object.
var emptyShape = newShape()

func (s *Shape) slotIndex(slotID uint32) (int, bool) {
	i, ok := s.index[slotID]
	return i, ok
}

// transition returns the shape produced by appending slotID to s, reusing
// a previously created transition when one already exists so that objects
// built the same way converge on shared shapes.
func (s *Shape) transition(slotID uint32) *Shape {
	if s.transitions == nil {
		s.transitions = make(map[uint32]*Shape)
	}
	if next, ok := s.transitions[slotID]; ok {
		return next
	}
	next := newShape()
	next.order = append(append([]uint32{}, s.order...), slotID)
	for id, i := range s.index {
		next.index[id] = i
	}
	next.index[slotID] = len(s.order)
	s.transitions[slotID] = next
	return next
}

// object is the reference heap's backing storage for one allocated value.
type object struct {
	shape *Shape
	slots []Value
}

// RootSource is implemented by anything the heap should treat as a root
// set during collection — in this VM, the ExecutionContext, whose live
// operand stack prefix is visited on every collection.
type RootSource interface {
	VisitRoots(visit func(Value))
}

// Heap is the reference object-model implementation the core is tested
// against: a dynamically-shaped collection of objects identified by stable
// ObjectRef handles, collected by mark-and-sweep.
type Heap struct {
	objects map[ObjectRef]*object
	nextRef ObjectRef
	roots   []RootSource
}

// NewHeap returns an empty Heap.
func NewHeap() *Heap {
	return &Heap{objects: make(map[ObjectRef]*object)}
}

// RegisterRootSource adds src to the set of root sources consulted on the
// next Collect.
func (h *Heap) RegisterRootSource(src RootSource) {
	h.roots = append(h.roots, src)
}

// Allocate creates a fresh, slot-less object and returns its reference.
// This is a safe point: it may trigger bookkeeping but never moves any
// existing reference in this non-relocating reference implementation.
func (h *Heap) Allocate() ObjectRef {
	ref := h.nextRef
	h.nextRef++
	h.objects[ref] = &object{shape: emptyShape}
	return ref
}

// GetSlot returns the value stored at slotID on ref, or ok=false if the
// object's current shape has no such slot.
func (h *Heap) GetSlot(ref ObjectRef, slotID uint32) (Value, bool) {
	obj, ok := h.objects[ref]
	if !ok {
		return 0, false
	}
	i, ok := obj.shape.slotIndex(slotID)
	if !ok {
		return 0, false
	}
	return obj.slots[i], true
}

// SetSlot writes value at slotID on ref, performing a shape transition
// (reusing a cached one where possible) if the object's current shape
// does not yet have that slot.
func (h *Heap) SetSlot(ref ObjectRef, slotID uint32, value Value) error {
	obj, ok := h.objects[ref]
	if !ok {
		return errTypeMismatch(OpPopIntoObject, KindObject, ValueKind(-1))
	}
	if i, ok := obj.shape.slotIndex(slotID); ok {
		obj.slots[i] = value
		return nil
	}
	obj.shape = obj.shape.transition(slotID)
	obj.slots = append(obj.slots, value)
	return nil
}

// Collect performs a mark-and-sweep collection: every registered root
// source is asked to visit its live values, reachable objects are marked
// recursively through their slots, and unmarked objects are dropped. This
// reference implementation never relocates a surviving reference, but the
// object-model contract still permits a future implementation to, so
// callers must not treat that as guaranteed.
func (h *Heap) Collect() (collected int) {
	marked := make(map[ObjectRef]bool, len(h.objects))
	var mark func(Value)
	mark = func(v Value) {
		if !v.IsObject() {
			return
		}
		ref := v.Object()
		if marked[ref] {
			return
		}
		obj, ok := h.objects[ref]
		if !ok {
			return
		}
		marked[ref] = true
		for _, slot := range obj.slots {
			mark(slot)
		}
	}
	for _, src := range h.roots {
		src.VisitRoots(mark)
	}
	for ref := range h.objects {
		if !marked[ref] {
			delete(h.objects, ref)
			collected++
		}
	}
	return collected
}

// Len reports how many live objects the heap currently holds.
func (h *Heap) Len() int {
	return len(h.objects)
}
