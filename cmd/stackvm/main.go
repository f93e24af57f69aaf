// Command stackvm is a small demo host for the vm package: it builds a
// fixed demo module (add, factorial, and a print-backed greeting), loads an
// optional TOML configuration file, and runs one of the demo functions by
// name.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/chazu/stackvm/primitive"
	"github.com/chazu/stackvm/vm"
)

func main() {
	configPath := flag.String("config", "", "Path to a TOML configuration file")
	jit := flag.Bool("jit", false, "Enable the reference trampoline code generator")
	registerMode := flag.Bool("register-mode", false, "Use the register-mode native calling convention")
	fn := flag.String("run", "add", "Demo function to run: add, fact, or greet")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: stackvm [options] [args...]\n\n")
		fmt.Fprintf(os.Stderr, "Runs one of this repository's demo functions against the bytecode VM.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  stackvm -run add 3 4\n")
		fmt.Fprintf(os.Stderr, "  stackvm -run fact 6\n")
		fmt.Fprintf(os.Stderr, "  stackvm -jit -run add 3 4\n")
	}
	flag.Parse()

	cfg := vm.Config{}
	if *configPath != "" {
		loaded, err := vm.LoadConfigFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	cfg.JITEnabled = cfg.JITEnabled || *jit
	cfg.PassParam = cfg.PassParam || *registerMode
	cfg.Output = os.Stdout

	machine, err := vm.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error constructing VM: %v\n", err)
		os.Exit(1)
	}
	defer machine.Shutdown()

	if err := machine.Load(demoModule()); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading demo module: %v\n", err)
		os.Exit(1)
	}
	if cfg.JITEnabled {
		if err := machine.GenerateAllCode(); err != nil {
			fmt.Fprintf(os.Stderr, "Error generating code: %v\n", err)
			os.Exit(1)
		}
	}

	args, err := parseIntArgs(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing arguments: %v\n", err)
		os.Exit(1)
	}

	result, err := machine.RunByName(*fn, args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running %s: %v\n", *fn, err)
		os.Exit(1)
	}
	fmt.Printf("%s(%v) = %d\n", *fn, args, result.Int())
}

func parseIntArgs(raw []string) ([]vm.Value, error) {
	args := make([]vm.Value, len(raw))
	for i, s := range raw {
		var n int64
		if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
			return nil, fmt.Errorf("%q is not an integer", s)
		}
		args[i] = vm.IntValue(n)
	}
	return args, nil
}

// demoModule builds the fixed demo program: add, a recursive factorial, and
// a greet function that exercises PRIMITIVE_CALL.
func demoModule() *vm.Module {
	b := vm.NewModuleBuilder()

	b.AddFunction("add", 2, 0, []vm.Instruction{
		vm.NewInstruction(vm.OpPushFromVar, 0),
		vm.NewInstruction(vm.OpPushFromVar, 1),
		vm.NewInstruction(vm.OpAdd, 0),
		vm.NewInstruction(vm.OpFunctionReturn, 0),
	})

	const factIndex = 1
	fact := b.AddFunction("fact", 1, 0, []vm.Instruction{
		vm.NewInstruction(vm.OpPushFromVar, 0),
		vm.NewInstruction(vm.OpIntPushConstant, 1),
		vm.NewInstruction(vm.OpJmpEqLe, 7),
		vm.NewInstruction(vm.OpPushFromVar, 0),
		vm.NewInstruction(vm.OpPushFromVar, 0),
		vm.NewInstruction(vm.OpIntPushConstant, 1),
		vm.NewInstruction(vm.OpSub, 0),
		vm.NewInstruction(vm.OpFunctionCall, factIndex),
		vm.NewInstruction(vm.OpMul, 0),
		vm.NewInstruction(vm.OpFunctionReturn, 0),
		vm.NewInstruction(vm.OpIntPushConstant, 1),
		vm.NewInstruction(vm.OpFunctionReturn, 0),
	})
	if fact != factIndex {
		panic("stackvm: demo module layout changed without updating factIndex")
	}

	msg := b.AddString("hello from the demo module")
	printString := b.AddPrimitive(primitive.PrintString)
	b.AddFunction("greet", 0, 0, []vm.Instruction{
		vm.NewInstruction(vm.OpStrPushConstant, int32(msg)),
		vm.NewInstruction(vm.OpPrimitiveCall, int32(printString)),
		vm.NewInstruction(vm.OpFunctionReturn, 0),
	})

	return b.Build()
}
