package primitive

import (
	"bytes"
	"strings"
	"testing"

	"github.com/chazu/stackvm/vm"
)

func newMachine(t *testing.T, out *bytes.Buffer) *vm.VM {
	t.Helper()
	machine, err := vm.New(vm.Config{Output: out})
	if err != nil {
		t.Fatal(err)
	}
	return machine
}

func TestPrintNumber(t *testing.T) {
	var out bytes.Buffer
	b := vm.NewModuleBuilder()
	printNum := b.AddPrimitive(PrintNumber)
	fn := b.AddFunction("printIt", 0, 0, []vm.Instruction{
		vm.NewInstruction(vm.OpIntPushConstant, 42),
		vm.NewInstruction(vm.OpPrimitiveCall, int32(printNum)),
		vm.NewInstruction(vm.OpFunctionReturn, 0),
	})
	machine := newMachine(t, &out)
	if err := machine.Load(b.Build()); err != nil {
		t.Fatal(err)
	}
	if _, err := machine.Run(fn, nil); err != nil {
		t.Fatal(err)
	}
	if out.String() != "42 " {
		t.Fatalf("output = %q, want %q", out.String(), "42 ")
	}
}

func TestPrintString(t *testing.T) {
	var out bytes.Buffer
	b := vm.NewModuleBuilder()
	msg := b.AddString("greetings")
	printStr := b.AddPrimitive(PrintString)
	fn := b.AddFunction("printIt", 0, 0, []vm.Instruction{
		vm.NewInstruction(vm.OpStrPushConstant, int32(msg)),
		vm.NewInstruction(vm.OpPrimitiveCall, int32(printStr)),
		vm.NewInstruction(vm.OpFunctionReturn, 0),
	})
	machine := newMachine(t, &out)
	if err := machine.Load(b.Build()); err != nil {
		t.Fatal(err)
	}
	if _, err := machine.Run(fn, nil); err != nil {
		t.Fatal(err)
	}
	if strings.TrimRight(out.String(), "\n") != "greetings" {
		t.Fatalf("output = %q, want %q", out.String(), "greetings\n")
	}
}

func TestHashTableRoundTrip(t *testing.T) {
	var out bytes.Buffer
	b := vm.NewModuleBuilder()
	alloc := b.AddPrimitive(HashTableAllocate)
	put := b.AddPrimitive(HashTablePut)
	get := b.AddPrimitive(HashTableGet)

	fn := b.AddFunction("table", 0, 0, []vm.Instruction{
		vm.NewInstruction(vm.OpPrimitiveCall, int32(alloc)), // table
		vm.NewInstruction(vm.OpDuplicate, 0),                // table, table
		vm.NewInstruction(vm.OpIntPushConstant, 7),          // table, table, key
		vm.NewInstruction(vm.OpIntPushConstant, 99),         // table, table, key, value
		vm.NewInstruction(vm.OpPrimitiveCall, int32(put)),   // table, table (put pushes the table ref back)
		vm.NewInstruction(vm.OpIntPushConstant, 7),          // table, table, key
		vm.NewInstruction(vm.OpPrimitiveCall, int32(get)),   // table, value
		vm.NewInstruction(vm.OpFunctionReturn, 0),
	})
	machine := newMachine(t, &out)
	if err := machine.Load(b.Build()); err != nil {
		t.Fatal(err)
	}
	result, err := machine.Run(fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Int() != 99 {
		t.Fatalf("table[7] = %d, want 99", result.Int())
	}
}

func TestHashTableGetMissingKeyReturnsZero(t *testing.T) {
	var out bytes.Buffer
	b := vm.NewModuleBuilder()
	alloc := b.AddPrimitive(HashTableAllocate)
	get := b.AddPrimitive(HashTableGet)

	fn := b.AddFunction("table", 0, 0, []vm.Instruction{
		vm.NewInstruction(vm.OpPrimitiveCall, int32(alloc)),
		vm.NewInstruction(vm.OpIntPushConstant, 123),
		vm.NewInstruction(vm.OpPrimitiveCall, int32(get)),
		vm.NewInstruction(vm.OpFunctionReturn, 0),
	})
	machine := newMachine(t, &out)
	if err := machine.Load(b.Build()); err != nil {
		t.Fatal(err)
	}
	result, err := machine.Run(fn, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Int() != 0 {
		t.Fatalf("missing key lookup = %d, want 0", result.Int())
	}
}

func TestGCTrigger(t *testing.T) {
	var out bytes.Buffer
	b := vm.NewModuleBuilder()
	newObj := b.AddPrimitive(HashTableAllocate)
	gc := b.AddPrimitive(GCTrigger)

	fn := b.AddFunction("collect", 0, 0, []vm.Instruction{
		vm.NewInstruction(vm.OpPrimitiveCall, int32(newObj)),
		vm.NewInstruction(vm.OpDrop, 0),
		vm.NewInstruction(vm.OpPrimitiveCall, int32(gc)),
		vm.NewInstruction(vm.OpFunctionReturn, 0),
	})
	machine := newMachine(t, &out)
	if err := machine.Load(b.Build()); err != nil {
		t.Fatal(err)
	}
	if _, err := machine.Run(fn, nil); err != nil {
		t.Fatal(err)
	}
}
