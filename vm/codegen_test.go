package vm

import "testing"

func TestTrampolineGeneratorStackMode(t *testing.T) {
	b := NewModuleBuilder()
	add := b.AddFunction("add", 2, 0, []Instruction{
		NewInstruction(OpPushFromVar, 0),
		NewInstruction(OpPushFromVar, 1),
		NewInstruction(OpAdd, 0),
		NewInstruction(OpFunctionReturn, 0),
	})
	m := b.Build()

	cfg := Config{JITEnabled: true, Generator: NewTrampolineGenerator()}
	machine, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := machine.Load(m); err != nil {
		t.Fatal(err)
	}
	if err := machine.GenerateAllCode(); err != nil {
		t.Fatal(err)
	}

	result, err := machine.Run(add, []Value{IntValue(3), IntValue(4)})
	if err != nil {
		t.Fatal(err)
	}
	if result.Int() != 7 {
		t.Fatalf("Run(add, [3,4]) = %d, want 7", result.Int())
	}
}

func TestTrampolineGeneratorRegisterMode(t *testing.T) {
	b := NewModuleBuilder()
	add := b.AddFunction("add", 2, 0, []Instruction{
		NewInstruction(OpPushFromVar, 0),
		NewInstruction(OpPushFromVar, 1),
		NewInstruction(OpAdd, 0),
		NewInstruction(OpFunctionReturn, 0),
	})
	m := b.Build()

	cfg := Config{JITEnabled: true, PassParam: true, Generator: NewTrampolineGenerator()}
	machine, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if err := machine.Load(m); err != nil {
		t.Fatal(err)
	}
	if err := machine.GenerateAllCode(); err != nil {
		t.Fatal(err)
	}

	result, err := machine.Run(add, []Value{IntValue(3), IntValue(4)})
	if err != nil {
		t.Fatal(err)
	}
	if result.Int() != 7 {
		t.Fatalf("Run(add, [3,4]) register-mode = %d, want 7", result.Int())
	}
}

func TestFailingGeneratorFailsConstruction(t *testing.T) {
	cfg := Config{JITEnabled: true, Generator: &FailingGenerator{Reason: "no backend available"}}
	_, err := New(cfg)
	if err == nil {
		t.Fatal("expected New to fail when the code generator refuses to initialize")
	}
	if kindOf(err) != JitInitFailed {
		t.Fatalf("error kind = %v, want JitInitFailed", kindOf(err))
	}
}
