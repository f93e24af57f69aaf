package vm

// FunctionSpec is a read-only description of one module function: a name,
// its declared arity, its local-variable count, and its instruction array.
// The instruction array must be terminated by EndSection.
type FunctionSpec struct {
	Name         string
	Nargs        int
	Nregs        int
	Instructions []Instruction
}

// Primitive is the signature every host primitive must satisfy. A
// primitive reads and writes the operand stack directly through ctx; the
// core never inspects its arity. A primitive that allocates is a safe
// point, exactly like NEW_OBJECT or POP_INTO_OBJECT.
type Primitive func(ctx *ExecutionContext) error

// Module is a read-only snapshot of everything the interpreter needs to
// run a program: the function table, the primitive table, and the
// interned string pool. Constructing the snapshot (parsing an on-disk
// format) is outside the core's scope; Module is assembled once, by a
// ModuleBuilder or by a real loader, and never mutated afterward.
type Module struct {
	Functions  []*FunctionSpec
	Primitives []Primitive
	Strings    []string

	nameIndex map[string]int
}

// NewModule freezes the given tables into a Module, building the
// name→index lookup used by FindFunction.
func NewModule(functions []*FunctionSpec, primitives []Primitive, strings []string) *Module {
	m := &Module{
		Functions:  functions,
		Primitives: primitives,
		Strings:    strings,
		nameIndex:  make(map[string]int, len(functions)),
	}
	for i, fn := range functions {
		m.nameIndex[fn.Name] = i
	}
	return m
}

// FindFunction resolves a function name to its dense index.
func (m *Module) FindFunction(name string) (int, bool) {
	i, ok := m.nameIndex[name]
	return i, ok
}

// NumFunctions returns the number of functions in the module.
func (m *Module) NumFunctions() int {
	return len(m.Functions)
}

// ModuleBuilder is in-memory test/demo tooling for constructing a Module
// programmatically, standing in for a real on-disk-format loader (which is
// out of this core's scope). It is not a parser: callers assemble
// FunctionSpecs and instruction arrays directly in Go.
type ModuleBuilder struct {
	functions  []*FunctionSpec
	primitives []Primitive
	strings    []string
}

// NewModuleBuilder returns an empty builder.
func NewModuleBuilder() *ModuleBuilder {
	return &ModuleBuilder{}
}

// AddFunction appends a function and returns its assigned index. code must
// not include the terminating EndSection; AddFunction appends it.
func (b *ModuleBuilder) AddFunction(name string, nargs, nregs int, code []Instruction) int {
	full := make([]Instruction, len(code)+1)
	copy(full, code)
	full[len(code)] = EndSection
	b.functions = append(b.functions, &FunctionSpec{
		Name:         name,
		Nargs:        nargs,
		Nregs:        nregs,
		Instructions: full,
	})
	return len(b.functions) - 1
}

// AddPrimitive appends a primitive and returns its assigned index.
func (b *ModuleBuilder) AddPrimitive(p Primitive) int {
	b.primitives = append(b.primitives, p)
	return len(b.primitives) - 1
}

// AddString interns a string and returns its assigned index.
func (b *ModuleBuilder) AddString(s string) int {
	b.strings = append(b.strings, s)
	return len(b.strings) - 1
}

// Build freezes the builder's contents into a Module.
func (b *ModuleBuilder) Build() *Module {
	return NewModule(b.functions, b.primitives, b.strings)
}
