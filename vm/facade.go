package vm

import (
	"fmt"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

// state is the façade's lifecycle state machine: Created -> Loaded ->
// Running -> Loaded -> ... -> Destroyed.
type state int

const (
	stateCreated state = iota
	stateLoaded
	stateRunning
	stateDestroyed
)

// VM is the virtual machine façade: it binds a loaded module, holds the
// compiled-function table, owns the object model, initializes and tears
// down the code generator, and exposes the top-level run-by-name entry
// point. It is the cyclic ownership side referenced by its
// ExecutionContext: the VM owns the context, and the context holds a
// non-owning back-reference to the VM.
type VM struct {
	cfg      Config
	state    state
	module   *Module
	heap     *Heap
	compiled []NativeEntry
	ctx      *ExecutionContext
	cache    *jitCache
}

// New constructs a VM. If cfg.JITEnabled, the configured (or default
// Trampoline) code generator is initialized immediately; a failure there
// fails construction with a JitInitFailed error.
func New(cfg Config) (*VM, error) {
	cfg = cfg.withDefaults()

	if cfg.JITEnabled {
		if err := cfg.Generator.Initialize(); err != nil {
			commonlog.NewErrorMessage(0, fmt.Sprintf("code generator failed to initialize: %s", err))
			return nil, err
		}
	}

	m := &VM{
		cfg:   cfg,
		state: stateCreated,
		heap:  NewHeap(),
	}
	m.ctx = newExecutionContext(m, cfg.StackCapacity)
	m.heap.RegisterRootSource(m.ctx)

	if cfg.CachePath != "" {
		m.cache = newJITCache(cfg.CachePath)
	}

	commonlog.NewInfoMessage(0, fmt.Sprintf("vm created (jit=%v, passParam=%v)", cfg.JITEnabled, cfg.PassParam))
	return m, nil
}

// Load installs module as the VM's loaded module, exactly once, and
// reserves an initially-empty compiled-function table. Reloading a
// module is not supported.
func (m *VM) Load(module *Module) error {
	if m.state != stateCreated {
		return errUsage("Load: VM already loaded (state %d); reload is not supported", m.state)
	}
	m.module = module
	m.compiled = make([]NativeEntry, len(module.Functions))
	m.state = stateLoaded
	commonlog.NewInfoMessage(0, fmt.Sprintf("module loaded (%d functions)", len(module.Functions)))
	return nil
}

// GenerateAllCode asks the code generator for every function index and
// installs the resulting entries into the compiled-function table. It is
// a no-op (every entry stays absent) when JIT is disabled. When a
// warm-start cache is configured, functions the cache recorded as
// previously not worth compiling are skipped — an optional refinement
// that never changes program output, only compile effort.
func (m *VM) GenerateAllCode() error {
	if m.state != stateLoaded {
		return errUsage("GenerateAllCode: VM is not in the Loaded state (state %d)", m.state)
	}
	if !m.cfg.JITEnabled {
		return nil
	}

	var manifest *cacheManifest
	if m.cache != nil {
		manifest, _ = m.cache.load(m.module)
	}

	generated := 0
	for i := range m.module.Functions {
		if manifest != nil && manifest.shouldSkip(i) {
			continue
		}
		entry, err := m.cfg.Generator.GenerateCode(i)
		if err != nil {
			return err
		}
		m.compiled[i] = entry
		generated++
	}
	commonlog.NewInfoMessage(0, fmt.Sprintf("code generation complete (%d/%d compiled)", generated, len(m.module.Functions)))

	if m.cache != nil {
		_ = m.cache.save(m.module, m.compiled)
	}
	return nil
}

// RunByName resolves name to a function index and delegates to Run.
func (m *VM) RunByName(name string, args []Value) (Value, error) {
	if m.module == nil {
		return 0, errUsage("RunByName: VM is not in the Loaded state; Load a module first")
	}
	index, ok := m.module.FindFunction(name)
	if !ok {
		return 0, errFunctionNotFound(name)
	}
	return m.Run(index, args)
}

// Run validates args against the callee's declared arity, pushes them so
// arg0 lands at the lowest address of the frame, dispatches through the
// execution context, resets the context, and returns the single result.
// The operand stack is always reset on exit, whether Run succeeds or
// fails.
func (m *VM) Run(index int, args []Value) (Value, error) {
	if m.state != stateLoaded {
		return 0, errUsage("Run: VM is not in the Loaded state (state %d); Load a module first", m.state)
	}
	if index < 0 || index >= len(m.module.Functions) {
		return 0, errFunctionNotFound(indexName(index))
	}
	fn := m.module.Functions[index]
	if len(args) != fn.Nargs {
		return 0, errBadFunctionCall(fn.Name, fn.Nargs, len(args))
	}

	m.state = stateRunning
	defer func() {
		m.ctx.Reset()
		m.state = stateLoaded
	}()

	for _, a := range args {
		if err := m.ctx.Push(a); err != nil {
			return 0, err
		}
	}

	result, err := m.ctx.callFunction(index)
	if err != nil {
		commonlog.NewErrorMessage(0, fmt.Sprintf("run failed for %s: %s", fn.Name, err))
		return 0, err
	}
	return result, nil
}

// Shutdown tears down the code generator (if JIT was enabled) and moves
// the façade to the Destroyed state. A destroyed VM cannot be reused.
func (m *VM) Shutdown() {
	if m.state == stateDestroyed {
		return
	}
	if m.cfg.JITEnabled && m.cfg.Generator != nil {
		m.cfg.Generator.Shutdown()
	}
	m.state = stateDestroyed
	commonlog.NewInfoMessage(0, "vm shut down")
}

// Context returns the VM's single execution context, for tests and
// primitives that need direct access outside of a Run call.
func (m *VM) Context() *ExecutionContext {
	return m.ctx
}

// Heap returns the VM's object model.
func (m *VM) Heap() *Heap {
	return m.heap
}

func errUsage(format string, args ...any) error {
	return newError(BadFunctionCall, format, args...)
}
