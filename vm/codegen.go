package vm

// TrampolineGenerator is the reference CodeGenerator shipped with this
// repository. It performs no real code generation — emitting machine
// code is explicitly outside the core's scope — and instead produces,
// for every function index, a NativeEntry that re-enters the interpreter
// through the same fixed trampoline a real native function would use to
// call back into interpreted code (§4.4). This is sufficient to
// exhaustively exercise the transition shim's arity adaptation and
// calling-convention logic, which is what this core is actually
// responsible for, without taking on real codegen.
//
// Because a "compiled" function and an interpreted one execute identical
// bytecode, register-mode and stack-mode transitions, and interpreted
// versus generate-all-then-run executions, necessarily agree.
type TrampolineGenerator struct {
	initialized bool
}

// NewTrampolineGenerator returns a ready-to-initialize TrampolineGenerator.
func NewTrampolineGenerator() *TrampolineGenerator {
	return &TrampolineGenerator{}
}

// Initialize always succeeds for the trampoline generator.
func (g *TrampolineGenerator) Initialize() error {
	g.initialized = true
	return nil
}

// Shutdown releases nothing; the trampoline generator holds no resources.
func (g *TrampolineGenerator) Shutdown() {
	g.initialized = false
}

// GenerateCode returns a NativeEntry for index that re-pushes any
// register-mode arguments it was given (none, in stack-mode, since they
// are already on the stack) and re-enters the interpreter for index.
func (g *TrampolineGenerator) GenerateCode(index int) (NativeEntry, error) {
	return func(ctx *ExecutionContext, args []Value) (Value, error) {
		for _, a := range args {
			if err := ctx.Push(a); err != nil {
				return 0, err
			}
		}
		return ctx.Trampoline(index)
	}, nil
}

// FailingGenerator always fails to initialize; it exists for exercising
// the façade's JitInitFailed path without needing a genuinely broken
// real generator.
type FailingGenerator struct {
	Reason string
}

// Initialize always fails.
func (g *FailingGenerator) Initialize() error {
	reason := g.Reason
	if reason == "" {
		reason = "generator refused to start"
	}
	return errJitInitFailed(reason)
}

// Shutdown is a no-op; Initialize never succeeded.
func (g *FailingGenerator) Shutdown() {}

// GenerateCode is never reached in practice since Initialize fails first.
func (g *FailingGenerator) GenerateCode(index int) (NativeEntry, error) {
	return nil, errJitInitFailed("generator was never initialized")
}
