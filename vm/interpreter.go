package vm

// interpret decodes and executes function's bytecode starting at
// instruction 0, managing its activation frame directly on the operand
// stack. It returns the single value left by FUNCTION_RETURN, or an error
// if the function falls off its END_SECTION, references an invalid
// opcode, or violates any other runtime invariant. It never uses a Go
// panic for control flow; every error is an ordinary return value.
func (ctx *ExecutionContext) interpret(index int) (Value, error) {
	fn := ctx.vm.module.Functions[index]

	if ctx.stack.Len() < fn.Nargs {
		return 0, errBadFunctionCall(fn.Name, fn.Nargs, ctx.stack.Len())
	}
	base := ctx.stack.Len() - fn.Nargs
	if err := ctx.stack.PushN(fn.Nregs); err != nil {
		return 0, err
	}

	code := fn.Instructions
	ip := 0
	for {
		if ip < 0 || ip >= len(code) {
			return 0, errFellOffFunction(fn.Name)
		}
		ins := code[ip]
		op := ins.Opcode()
		if op == OpEndSection {
			return 0, errFellOffFunction(fn.Name)
		}

		delta := 0
		switch op {
		case OpFunctionCall:
			result, err := ctx.callFunction(int(ins.Parameter()))
			if err != nil {
				return 0, err
			}
			if err := ctx.stack.Push(result); err != nil {
				return 0, err
			}

		case OpFunctionReturn:
			result, err := ctx.stack.Pop()
			if err != nil {
				return 0, err
			}
			ctx.stack.Restore(base)
			return result, nil

		case OpPrimitiveCall:
			if err := ctx.invokePrimitive(int(ins.Parameter())); err != nil {
				return 0, err
			}

		case OpDuplicate:
			v, err := ctx.stack.Peek()
			if err != nil {
				return 0, err
			}
			if err := ctx.stack.Push(v); err != nil {
				return 0, err
			}

		case OpDrop:
			if _, err := ctx.stack.Pop(); err != nil {
				return 0, err
			}

		case OpPushFromVar:
			k := int(ins.Parameter())
			if err := ctx.stack.Push(ctx.stack.At(base + k)); err != nil {
				return 0, err
			}

		case OpPopIntoVar:
			k := int(ins.Parameter())
			v, err := ctx.stack.Pop()
			if err != nil {
				return 0, err
			}
			ctx.stack.SetAt(base+k, v)

		case OpIntPushConstant:
			if err := ctx.stack.Push(IntValue(int64(ins.Parameter()))); err != nil {
				return 0, err
			}

		case OpAdd, OpSub, OpMul, OpDiv:
			result, err := ctx.binaryArith(op)
			if err != nil {
				return 0, err
			}
			if err := ctx.stack.Push(result); err != nil {
				return 0, err
			}

		case OpNot:
			v, err := ctx.stack.Pop()
			if err != nil {
				return 0, err
			}
			if !v.IsInt() {
				return 0, errTypeMismatch(op, KindInt, v.Kind())
			}
			result := int64(0)
			if v.Int() == 0 {
				result = 1
			}
			if err := ctx.stack.Push(IntValue(result)); err != nil {
				return 0, err
			}

		case OpJmp:
			delta = int(ins.Parameter())

		case OpJmpEqEq, OpJmpEqNeq, OpJmpEqGt, OpJmpEqGe, OpJmpEqLt, OpJmpEqLe:
			take, err := ctx.compare(op)
			if err != nil {
				return 0, err
			}
			if take {
				delta = int(ins.Parameter())
			}

		case OpStrPushConstant:
			idx := ins.Parameter()
			if idx < 0 || int(idx) >= len(ctx.vm.module.Strings) {
				return 0, errMissingSlot(uint32(idx))
			}
			if err := ctx.stack.Push(StringValue(StringRef(idx))); err != nil {
				return 0, err
			}

		case OpNewObject:
			ref := ctx.vm.heap.Allocate()
			if err := ctx.stack.Push(ObjectValue(ref)); err != nil {
				return 0, err
			}

		case OpPushFromObject:
			// Non-destructive: the object reference stays on the stack
			// beneath the pushed slot value, mirroring PUSH_FROM_VAR's
			// treatment of its source as something read, not consumed.
			objVal, err := ctx.stack.Peek()
			if err != nil {
				return 0, err
			}
			if !objVal.IsObject() {
				return 0, errTypeMismatch(op, KindObject, objVal.Kind())
			}
			slotID := uint32(ins.Parameter())
			v, ok := ctx.vm.heap.GetSlot(objVal.Object(), slotID)
			if !ok {
				return 0, errMissingSlot(slotID)
			}
			if err := ctx.stack.Push(v); err != nil {
				return 0, err
			}

		case OpPopIntoObject:
			v, err := ctx.stack.Pop()
			if err != nil {
				return 0, err
			}
			objVal, err := ctx.stack.Pop()
			if err != nil {
				return 0, err
			}
			if !objVal.IsObject() {
				return 0, errTypeMismatch(op, KindObject, objVal.Kind())
			}
			slotID := uint32(ins.Parameter())
			if err := ctx.vm.heap.SetSlot(objVal.Object(), slotID, v); err != nil {
				return 0, err
			}

		case OpCallIndirect:
			return 0, errReservedOpcode(op)

		case OpSystemCollect:
			ctx.vm.heap.Collect()

		default:
			return 0, errInvalidOpcode(op)
		}

		ip += delta
		ip++
		ctx.pc++
	}
}

// binaryArith implements ADD/SUB/MUL/DIV: pop right, pop left, push
// left ⊕ right as an integer, wrapping on overflow.
func (ctx *ExecutionContext) binaryArith(op Opcode) (Value, error) {
	right, err := ctx.stack.Pop()
	if err != nil {
		return 0, err
	}
	left, err := ctx.stack.Pop()
	if err != nil {
		return 0, err
	}
	if !left.IsInt() {
		return 0, errTypeMismatch(op, KindInt, left.Kind())
	}
	if !right.IsInt() {
		return 0, errTypeMismatch(op, KindInt, right.Kind())
	}

	l, r := left.Int(), right.Int()
	switch op {
	case OpAdd:
		return wrapIntValue(l + r), nil
	case OpSub:
		return wrapIntValue(l - r), nil
	case OpMul:
		return wrapIntValue(l * r), nil
	case OpDiv:
		if r == 0 {
			return 0, errDivideByZero()
		}
		return wrapIntValue(l / r), nil
	default:
		panic("vm: binaryArith called with a non-arithmetic opcode")
	}
}

// compare implements the JMP_EQ_* family: pop right, pop left, report
// whether the comparison named by op holds.
func (ctx *ExecutionContext) compare(op Opcode) (bool, error) {
	right, err := ctx.stack.Pop()
	if err != nil {
		return false, err
	}
	left, err := ctx.stack.Pop()
	if err != nil {
		return false, err
	}
	if !left.IsInt() {
		return false, errTypeMismatch(op, KindInt, left.Kind())
	}
	if !right.IsInt() {
		return false, errTypeMismatch(op, KindInt, right.Kind())
	}

	l, r := left.Int(), right.Int()
	switch op {
	case OpJmpEqEq:
		return l == r, nil
	case OpJmpEqNeq:
		return l != r, nil
	case OpJmpEqGt:
		return l > r, nil
	case OpJmpEqGe:
		return l >= r, nil
	case OpJmpEqLt:
		return l < r, nil
	case OpJmpEqLe:
		return l <= r, nil
	default:
		panic("vm: compare called with a non-comparison opcode")
	}
}
