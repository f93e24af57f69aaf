// Package primitive provides the reference PRIMITIVE_CALL targets shipped
// with this repository: number and string printing, and a small hash table
// built directly on top of the VM's object model rather than a bespoke heap
// structure.
//
// Every primitive here follows the same contract as PRIMITIVE_CALL's
// bytecode-level siblings: it reads its operands directly off the operand
// stack, performs its side effect (if any), and leaves exactly one result
// cell on top, even when that result is a sentinel.
package primitive

import (
	"fmt"
	"hash/fnv"

	"github.com/chazu/stackvm/vm"
)

// PrintNumber pops an integer and writes it, followed by a space, to the
// context's output writer. It pushes vm.Zero, the sentinel the printing
// and GC primitives here return.
func PrintNumber(ctx *vm.ExecutionContext) error {
	v, err := ctx.Pop()
	if err != nil {
		return err
	}
	if !v.IsInt() {
		return fmt.Errorf("primitive.PrintNumber: expected an integer, got %s", v.Kind())
	}
	if _, err := fmt.Fprintf(ctx.Output(), "%d ", v.Int()); err != nil {
		return err
	}
	return ctx.Push(vm.Zero)
}

// PrintString pops a string reference, resolves it against the loaded
// module's string pool, and writes it followed by a newline. It pushes
// vm.Zero.
func PrintString(ctx *vm.ExecutionContext) error {
	v, err := ctx.Pop()
	if err != nil {
		return err
	}
	if !v.IsString() {
		return fmt.Errorf("primitive.PrintString: expected a string, got %s", v.Kind())
	}
	ref := v.String()
	strings := ctx.Module().Strings
	if int(ref) >= len(strings) {
		return fmt.Errorf("primitive.PrintString: string reference %d out of range", ref)
	}
	if _, err := fmt.Fprintln(ctx.Output(), strings[ref]); err != nil {
		return err
	}
	return ctx.Push(vm.Zero)
}

// HashTableAllocate allocates a fresh object through the VM's object model
// and pushes its reference. The table's entries live as slots on that
// object, keyed by a hash of the entry's key rather than a sequential
// field id, so HashTableAllocate's result is usable directly as a table
// reference by HashTableGet/HashTablePut.
func HashTableAllocate(ctx *vm.ExecutionContext) error {
	ref := ctx.Heap().Allocate()
	return ctx.Push(vm.ObjectValue(ref))
}

// HashTablePut pops a value, a key, and a table reference (in that order,
// matching POP_INTO_OBJECT's own operand order) and writes the value under
// the key's slot. It pushes the table reference back, so puts can be
// chained the way the reference implementation's hashTable_put does.
func HashTablePut(ctx *vm.ExecutionContext) error {
	value, err := ctx.Pop()
	if err != nil {
		return err
	}
	key, err := ctx.Pop()
	if err != nil {
		return err
	}
	table, err := ctx.Pop()
	if err != nil {
		return err
	}
	if !table.IsObject() {
		return fmt.Errorf("primitive.HashTablePut: expected a table reference, got %s", table.Kind())
	}
	if err := ctx.Heap().SetSlot(table.Object(), slotFor(key), value); err != nil {
		return err
	}
	return ctx.Push(table)
}

// HashTableGet pops a key and a table reference and pushes the value
// stored under that key, or vm.Zero if no such entry exists.
func HashTableGet(ctx *vm.ExecutionContext) error {
	key, err := ctx.Pop()
	if err != nil {
		return err
	}
	table, err := ctx.Pop()
	if err != nil {
		return err
	}
	if !table.IsObject() {
		return fmt.Errorf("primitive.HashTableGet: expected a table reference, got %s", table.Kind())
	}
	value, ok := ctx.Heap().GetSlot(table.Object(), slotFor(key))
	if !ok {
		return ctx.Push(vm.Zero)
	}
	return ctx.Push(value)
}

// GCTrigger requests a full collection through the object model and pushes
// the sentinel vm.Zero, since collection has no observable count here; a
// program can still use it to force collection at a known point.
func GCTrigger(ctx *vm.ExecutionContext) error {
	ctx.Collect()
	return ctx.Push(vm.Zero)
}

// slotFor derives a stable slot id for an arbitrary key Value by hashing
// the key's full 64-bit cell (tag and payload alike) with 32-bit FNV-1a.
// Collisions between distinct keys are possible in principle
// (the slot space is the shape mechanism's, not a true hash bucket array)
// but vanishingly unlikely at the key volumes this reference table is
// meant for.
func slotFor(key vm.Value) uint32 {
	h := fnv.New32a()
	var buf [8]byte
	raw := uint64(key)
	for i := range buf {
		buf[i] = byte(raw >> (8 * i))
	}
	h.Write(buf[:])
	return h.Sum32()
}
