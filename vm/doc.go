// Package vm implements a stack-based bytecode virtual machine.
//
// This package contains:
//   - NaN-boxed value representation (integers, object references, string
//     references)
//   - A closed 32-bit instruction encoding and opcode enumeration
//   - A bounded operand stack with activation frames carved directly out
//     of it, no separate frame objects
//   - A dynamically-shaped heap object model with shared shape transitions
//     and mark-and-sweep collection
//   - The bytecode interpreter and the native calling-convention transition
//     shim a code generator's compiled functions go through
//   - A reference trampoline code generator and an optional warm-start
//     compile-effort cache
//   - The VM façade tying a loaded module, the object model, and the code
//     generator together behind a single run-by-name/index entry point
package vm
