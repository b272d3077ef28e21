package monocurl

// NativeFunc implements a function provided by the host. Arguments are
// owned copies, except that reference parameters receive lvalues.
type NativeFunc func(exec *Execution, args []Value) (Value, error)

// Native describes a host function bound in the root scope.
type Native struct {
	Name  string
	Fn    NativeFunc
	sig   *signature
	arity int
}

// funcTemplate is the compiled, immutable part of a script function.
// Closures created from it differ only in their captured values.
type funcTemplate struct {
	id        uint64
	name      string
	sig       *signature
	width     int
	frameSize int
	captures  []captureSpec
	expr      node
	body      *block
	pos       Position
}

// Function is a callable value: a native or a script closure. A native
// with captures receives them ahead of its call arguments.
type Function struct {
	tmpl     *funcTemplate
	native   *Native
	captures []Value
}

func (fn *Function) Name() string {
	if fn.native != nil {
		return fn.native.Name
	}
	return fn.tmpl.name
}

func (fn *Function) signature() *signature {
	if fn.native != nil {
		return fn.native.sig
	}
	return fn.tmpl.sig
}

func bindNative(native *Native, bound ...Value) Value {
	return newFunctionValue(&Function{native: native, captures: bound})
}

// instantiate builds a closure by copying every captured value out of the
// current frame or the enclosing closure.
func (exec *Execution) instantiate(t *funcTemplate) (Value, error) {
	captures := make([]Value, len(t.captures))
	for i, spec := range t.captures {
		var src Value
		if spec.local {
			src = exec.stack[exec.fp+spec.index]
		} else {
			src = exec.captures[spec.index]
		}
		if src.kind == KindUninitialized {
			return Value{}, exec.errorf("%s is captured before it is initialized", spec.name)
		}
		captures[i] = copyValue(src)
	}
	return newFunctionValue(&Function{tmpl: t, captures: captures}), nil
}
