package host

// Rewrite rebuilds e bottom-up. fn sees every node after its children
// were rewritten and returns the replacement (or the node itself). Nodes
// whose children did not change are reused. Lambda parameters are never
// passed to fn as binders, only as references inside bodies.
func Rewrite(e Expr, fn func(Expr) (Expr, error)) (Expr, error) {
	if e == nil {
		return nil, nil
	}
	rebuilt, err := rewriteChildren(e, fn)
	if err != nil {
		return nil, err
	}
	return fn(rebuilt)
}

func rewriteAll(es []Expr, fn func(Expr) (Expr, error)) ([]Expr, bool, error) {
	out := make([]Expr, len(es))
	changed := false
	for i, e := range es {
		r, err := Rewrite(e, fn)
		if err != nil {
			return nil, false, err
		}
		out[i] = r
		changed = changed || r != e
	}
	return out, changed, nil
}

func rewriteChildren(e Expr, fn func(Expr) (Expr, error)) (Expr, error) {
	switch x := e.(type) {
	case *Member:
		inst, err := Rewrite(x.instance, fn)
		if err != nil || inst == x.instance {
			return x, err
		}
		return &Member{instance: inst, prop: x.prop}, nil
	case *Binary:
		l, err := Rewrite(x.left, fn)
		if err != nil {
			return nil, err
		}
		r, err := Rewrite(x.right, fn)
		if err != nil {
			return nil, err
		}
		if l == x.left && r == x.right {
			return x, nil
		}
		return &Binary{op: x.op, left: l, right: r, typ: x.typ}, nil
	case *Unary:
		o, err := Rewrite(x.operand, fn)
		if err != nil || o == x.operand {
			return x, err
		}
		return &Unary{op: x.op, operand: o, typ: x.typ}, nil
	case *Convert:
		o, err := Rewrite(x.operand, fn)
		if err != nil || o == x.operand {
			return x, err
		}
		return &Convert{operand: o, typ: x.typ}, nil
	case *Call:
		recv, err := Rewrite(x.receiver, fn)
		if err != nil {
			return nil, err
		}
		args, changed, err := rewriteAll(x.args, fn)
		if err != nil {
			return nil, err
		}
		if !changed && recv == x.receiver {
			return x, nil
		}
		return &Call{method: x.method, receiver: recv, args: args, typ: x.typ}, nil
	case *Condition:
		parts, changed, err := rewriteAll([]Expr{x.test, x.ifTrue, x.ifFalse}, fn)
		if err != nil || !changed {
			return x, err
		}
		return &Condition{test: parts[0], ifTrue: parts[1], ifFalse: parts[2]}, nil
	case *Lambda:
		body, err := Rewrite(x.body, fn)
		if err != nil || body == x.body {
			return x, err
		}
		return &Lambda{param: x.param, body: body}, nil
	case *New:
		values := make([]Expr, len(x.fields))
		for i, f := range x.fields {
			values[i] = f.Value
		}
		out, changed, err := rewriteAll(values, fn)
		if err != nil || !changed {
			return x, err
		}
		fields := make([]Field, len(x.fields))
		for i, f := range x.fields {
			fields[i] = Field{Name: f.Name, Value: out[i]}
		}
		return &New{fields: fields, typ: x.typ}, nil
	case *QueryCall:
		src, err := Rewrite(x.source, fn)
		if err != nil {
			return nil, err
		}
		args, changed, err := rewriteAll(x.args, fn)
		if err != nil {
			return nil, err
		}
		if !changed && src == x.source {
			return x, nil
		}
		return &QueryCall{op: x.op, source: src, args: args, typ: x.typ}, nil
	}
	return e, nil
}

// Walk visits e pre-order. Returning false skips the node's children.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch x := e.(type) {
	case *Member:
		Walk(x.instance, fn)
	case *Binary:
		Walk(x.left, fn)
		Walk(x.right, fn)
	case *Unary:
		Walk(x.operand, fn)
	case *Convert:
		Walk(x.operand, fn)
	case *Call:
		Walk(x.receiver, fn)
		for _, a := range x.args {
			Walk(a, fn)
		}
	case *Condition:
		Walk(x.test, fn)
		Walk(x.ifTrue, fn)
		Walk(x.ifFalse, fn)
	case *Lambda:
		Walk(x.body, fn)
	case *New:
		for _, f := range x.fields {
			Walk(f.Value, fn)
		}
	case *QueryCall:
		Walk(x.source, fn)
		for _, a := range x.args {
			Walk(a, fn)
		}
	}
}

// Substitute replaces every reference to param in e with value
func Substitute(e Expr, param *Parameter, value Expr) Expr {
	out, _ := Rewrite(e, func(n Expr) (Expr, error) {
		if p, ok := n.(*Parameter); ok && p == param {
			return value, nil
		}
		return n, nil
	})
	return out
}

// RootParameter returns the parameter at the root of a member chain, or
// nil when the chain starts elsewhere. Built-in members are part of the
// chain.
func RootParameter(e Expr) *Parameter {
	for {
		switch x := e.(type) {
		case *Parameter:
			return x
		case *Member:
			e = x.instance
		default:
			return nil
		}
	}
}
