package monocurl

import (
	"fmt"
	"strings"
)

// program is one compiled slide or REPL unit.
type program struct {
	root      *block
	frameSize int
	rootSize  int
	view      frameView

	// mark and end are the symbol states before and after compiling.
	mark symbolMark
	end  symbolMark
}

type compiler struct {
	engine *Engine
	st     *symbolTable
}

func newCompiler(e *Engine) *compiler {
	return &compiler{engine: e, st: e.symbols}
}

func entryError(e *Entry, format string, args ...any) error {
	return &CompileError{Pos: Position{Line: e.Line, Column: 1}, Message: fmt.Sprintf(format, args...), Source: e.Value}
}

func nodeError(n Node, format string, args ...any) error {
	if e, ok := n.(*Entry); ok {
		return entryError(e, format, args...)
	}
	return &CompileError{Pos: Position{Line: n.LineNumber(), Column: 1}, Message: fmt.Sprintf(format, args...)}
}

// compileSlide compiles doc in the root scope. Root declarations stay
// declared for later slides.
func (c *compiler) compileSlide(doc *Group) (*program, error) {
	stmts, err := c.compileStatements(doc.Children)
	if err != nil {
		return nil, err
	}
	return &program{
		root:      &block{stmts: stmts, persistent: true},
		frameSize: c.st.fn.frameSize,
		rootSize:  c.st.fn.nextSlot,
		view:      c.currentView(),
	}, nil
}

// currentView records which root slots a frame reads at this point of the
// slide.
func (c *compiler) currentView() frameView {
	view := frameView{camera: -1, background: -1}
	for _, name := range c.st.visibleNames() {
		s := c.st.lookup(name)
		if s.level != 0 {
			continue
		}
		switch {
		case s.is(symTree):
			view.trees = append(view.trees, s.slot)
		case name == "camera" && s.prelude:
			view.camera = s.slot
		case name == "background" && s.prelude:
			view.background = s.slot
		}
	}
	return view
}

func (c *compiler) compileBlock(owner *Entry, g *Group) (*block, error) {
	if g == nil || len(g.Children) == 0 {
		return nil, entryError(owner, "expected an indented block")
	}
	c.st.beginBlock()
	stmts, err := c.compileStatements(g.Children)
	base, count := c.st.endBlock()
	if err != nil {
		return nil, err
	}
	return &block{stmts: stmts, base: base, count: count}, nil
}

func (c *compiler) compileStatements(nodes []Node) ([]stmt, error) {
	var out []stmt
	for i := 0; i < len(nodes); i++ {
		entry, ok := nodes[i].(*Entry)
		if !ok {
			return nil, nodeError(nodes[i], "unexpected mode group outside of an argument block")
		}
		if entry.Title != "" {
			return nil, entryError(entry, "unexpected labeled entry %s outside of an argument block", entry.Title)
		}
		p := c.newParser(entry)
		var n node
		var err error
		switch {
		case p.curIsWord("if"):
			var consumed int
			n, consumed, err = c.compileIf(nodes, i)
			i += consumed
		case p.curIsWord("else"):
			err = entryError(entry, "else without a matching if")
		default:
			n, err = c.compileStatement(p)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, stmt{pos: Position{Line: entry.Line, Column: 1}, src: entry.Value, node: n})
	}
	return out, nil
}

// finish reports the parser's error or a leftover indented block.
func (c *compiler) finish(p *parser, n node) (node, error) {
	if p.err != nil {
		return nil, p.err
	}
	if !p.expectEnd() {
		return nil, p.err
	}
	if p.entry.Body != nil && !p.bodyUsed {
		return nil, entryError(p.entry, "unexpected indented block")
	}
	return n, nil
}

func (c *compiler) compileStatement(p *parser) (node, error) {
	switch {
	case p.curIsWord("let"), p.curIsWord("var"), p.curIsWord("tree"):
		return c.compileDecl(p)
	case p.curIsWord("func"):
		return c.compileFunc(p)
	case p.curIsWord("for"):
		return c.compileFor(p)
	case p.curIsWord("while"):
		return c.compileWhile(p)
	case p.curIsWord("play"):
		p.nextToken()
		expr := p.parseExpression(precLowest)
		return c.finish(p, &playStmt{expr: expr, view: c.currentView()})
	case p.curIsWord("return"):
		if c.st.fn.level == 0 {
			return nil, entryError(p.entry, "return outside of a function")
		}
		p.nextToken()
		expr := p.parseExpression(precLowest)
		return c.finish(p, &returnStmt{expr: expr})
	default:
		return c.compileExpressionStatement(p)
	}
}

func (c *compiler) compileDecl(p *parser) (node, error) {
	kind := p.curToken.Literal
	p.nextToken()
	name, ok := p.expectIdentifier()
	if !ok || !p.expect(tokenAssign) {
		return nil, p.err
	}
	expr := p.parseExpression(precLowest)
	if _, err := c.finish(p, expr); err != nil {
		return nil, err
	}
	var flags symbolFlags
	switch kind {
	case "let":
		flags = symConst
	case "tree":
		flags = symTree
	}
	s, err := c.st.declare(name, flags, nil)
	if err != nil {
		return nil, entryError(p.entry, "%v", err)
	}
	return &declStmt{name: name, slot: s.slot, expr: expr}, nil
}

func (c *compiler) compileFunc(p *parser) (node, error) {
	pos := p.curToken.Pos
	p.nextToken()
	name, ok := p.expectIdentifier()
	if !ok || !p.expect(tokenLParen) {
		return nil, p.err
	}
	sig := p.parseParams(tokenRParen)
	if p.err != nil || !p.expect(tokenAssign) {
		return nil, p.err
	}

	outer, err := c.st.declare(name, symConst|symFunction, sig)
	if err != nil {
		return nil, entryError(p.entry, "%v", err)
	}

	c.st.beginFunction()
	tmpl := &funcTemplate{id: c.engine.templateID(), name: name, sig: sig, width: sig.width(), pos: pos}
	if err = c.declareParams(name, sig); err != nil {
		err = entryError(p.entry, "%v", err)
	} else {
		if !p.atEnd() {
			tmpl.expr = p.parseExpression(precLowest)
			_, err = c.finish(p, tmpl.expr)
		} else {
			tmpl.body, err = c.compileBlock(p.entry, p.entry.Body)
		}
	}
	fs := c.st.endFunction()
	if err != nil {
		return nil, err
	}
	tmpl.frameSize = fs.frameSize
	tmpl.captures = fs.captures
	return &funcStmt{slot: outer.slot, tmpl: tmpl}, nil
}

// declareParams lays out a function frame: the function itself in slot 0
// followed by the flattened parameters.
func (c *compiler) declareParams(name string, sig *signature) error {
	if _, err := c.st.declare(name, symConst|symFunction, sig); err != nil {
		return err
	}
	for _, prm := range sig.params {
		var err error
		switch prm.kind {
		case paramValue:
			_, err = c.st.declare(prm.name, symConst, nil)
		case paramReference:
			_, err = c.st.declare(prm.name, symReference, nil)
		case paramFunction:
			_, err = c.st.declare(prm.name, symConst|symFunctionParam, positionalSignature(prm.args))
		case paramGroup:
			_, err = c.st.declare(prm.name, symConst, nil)
			for _, m := range prm.modes {
				for _, arg := range m.params {
					if err == nil {
						_, err = c.st.declare(arg, symConst, nil)
					}
				}
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func positionalSignature(names []string) *signature {
	sig := &signature{}
	for _, n := range names {
		sig.params = append(sig.params, param{name: n})
	}
	return sig
}

func (c *compiler) compileIf(nodes []Node, i int) (node, int, error) {
	entry := nodes[i].(*Entry)
	out := &ifStmt{}
	p := c.newParser(entry)
	p.nextToken()
	cond := p.parseExpression(precLowest)
	if p.err != nil || !p.expectEnd() {
		return nil, 0, p.err
	}
	body, err := c.compileBlock(entry, entry.Body)
	if err != nil {
		return nil, 0, err
	}
	out.conds = append(out.conds, cond)
	out.bodies = append(out.bodies, body)

	consumed := 0
	for j := i + 1; j < len(nodes); j++ {
		next, ok := nodes[j].(*Entry)
		if !ok || next.Title != "" {
			break
		}
		p := c.newParser(next)
		if !p.curIsWord("else") {
			break
		}
		consumed++
		p.nextToken()
		if p.curIsWord("if") {
			p.nextToken()
			cond := p.parseExpression(precLowest)
			if p.err != nil || !p.expectEnd() {
				return nil, 0, p.err
			}
			body, err := c.compileBlock(next, next.Body)
			if err != nil {
				return nil, 0, err
			}
			out.conds = append(out.conds, cond)
			out.bodies = append(out.bodies, body)
			continue
		}
		if !p.expectEnd() {
			return nil, 0, p.err
		}
		if out.elseBody, err = c.compileBlock(next, next.Body); err != nil {
			return nil, 0, err
		}
		break
	}
	return out, consumed, nil
}

func (c *compiler) compileFor(p *parser) (node, error) {
	p.nextToken()
	name, ok := p.expectIdentifier()
	if !ok {
		return nil, p.err
	}
	if !p.curIsWord("in") {
		p.errorExpected("in")
		return nil, p.err
	}
	p.nextToken()
	iter := p.parseExpression(precLowest)
	if p.err != nil || !p.expectEnd() {
		return nil, p.err
	}

	c.st.beginBlock()
	defer c.st.endBlock()
	s, err := c.st.declare(name, symConst, nil)
	if err != nil {
		return nil, entryError(p.entry, "%v", err)
	}
	body, err := c.compileBlock(p.entry, p.entry.Body)
	if err != nil {
		return nil, err
	}
	return &forStmt{slot: s.slot, iter: iter, body: body}, nil
}

func (c *compiler) compileWhile(p *parser) (node, error) {
	p.nextToken()
	cond := p.parseExpression(precLowest)
	if p.err != nil || !p.expectEnd() {
		return nil, p.err
	}
	body, err := c.compileBlock(p.entry, p.entry.Body)
	if err != nil {
		return nil, err
	}
	return &whileStmt{cond: cond, body: body}, nil
}

func (c *compiler) compileExpressionStatement(p *parser) (node, error) {
	lhs := p.parseExpression(precLowest)
	if p.err != nil {
		return nil, p.err
	}
	if !p.curIs(tokenAssign) && !p.curIs(tokenPlusAssign) {
		return c.finish(p, &exprStmt{expr: lhs})
	}
	opTok := p.curToken
	if err := c.checkAssignable(p, lhs, opTok); err != nil {
		return nil, err
	}
	p.nextToken()
	rhs := p.parseExpression(precLowest)
	return c.finish(p, &assignStmt{target: lhs, value: rhs, plus: opTok.Type == tokenPlusAssign})
}

// checkAssignable rejects targets that can never be written and marks the
// outermost index as creating missing map keys.
func (c *compiler) checkAssignable(p *parser, target node, at Token) error {
	if idx, ok := target.(*indexNode); ok {
		idx.create = true
	}
	cur := target
	for {
		switch n := cur.(type) {
		case *indexNode:
			cur = n.base
			continue
		case *attrNode:
			cur = n.base
			continue
		case *localNode:
			if n.flavor == LvalueConst {
				p.addError(at.Pos, "cannot assign to constant %s", n.name)
				return p.err
			}
			return nil
		case *captureNode:
			p.addError(at.Pos, "cannot assign to captured constant %s", n.name)
			return p.err
		}
		p.addError(at.Pos, "cannot assign to this expression")
		return p.err
	}
}

// reference resolves an identifier to a frame slot or a closure capture.
// Only constants may be captured.
func (c *compiler) reference(p *parser, tok Token) (node, *symbol) {
	name := tok.Literal
	s := c.st.lookup(name)
	if s == nil {
		if suggestion := c.st.suggest(name); suggestion != "" {
			p.addError(tok.Pos, "unknown identifier %s (did you mean %s?)", name, suggestion)
		} else {
			p.addError(tok.Pos, "unknown identifier %s", name)
		}
		return nil, nil
	}
	if s.level == c.st.fn.level {
		flavor := LvalueMutable
		switch {
		case s.is(symReference):
			flavor = LvalueReference
		case s.is(symConst):
			flavor = LvalueConst
		}
		return &localNode{name: name, slot: s.slot, flavor: flavor}, s
	}
	if !s.is(symConst) {
		p.addError(tok.Pos, "cannot capture mutable variable %s; declare it with let", name)
		return nil, nil
	}
	return &captureNode{name: name, index: c.st.capture(c.st.fn, s)}, s
}

// checkCall validates plain calls against a known signature.
func (c *compiler) checkCall(p *parser, at Token, s *symbol, argc int) {
	if !s.is(symFunction) && !s.is(symFunctionParam) {
		return
	}
	if s.sig.needsFunctor() {
		p.addError(at.Pos, "%s takes reference, function or mode parameters and must be called with labeled arguments", s.name)
		return
	}
	want := -1
	switch {
	case s.sig != nil:
		want = s.sig.width()
	case s.native != nil:
		want = s.native.arity
	}
	if want >= 0 && want != argc {
		p.addError(at.Pos, "%s expects %d arguments, got %d", s.name, want, argc)
	}
}

// compileFunctorCall compiles the labeled arguments of "name:" from the
// entry's indented block.
func (c *compiler) compileFunctorCall(p *parser, tok Token) node {
	target, s := c.reference(p, tok)
	if p.err != nil {
		return nil
	}
	if !s.is(symFunction) || s.sig == nil {
		p.addError(tok.Pos, "%s has no named parameters; labeled arguments need a declared function", tok.Literal)
		return nil
	}
	if p.entry.Body == nil || len(p.entry.Body.Children) == 0 {
		p.addError(tok.Pos, "expected an indented argument block for %s", tok.Literal)
		return nil
	}
	args, err := c.compileFunctorArgs(tok.Literal, s.sig, p.entry.Body)
	if err != nil {
		if p.err == nil {
			p.err = err
		}
		return nil
	}
	return &functorNode{fn: target, name: tok.Literal, args: args}
}

type labeledArg struct {
	entry *Entry
	used  bool
}

func (c *compiler) compileFunctorArgs(name string, sig *signature, body *Group) ([]functorArgNode, error) {
	c.st.beginBlock()
	defer c.st.endBlock()

	provided := map[string]*labeledArg{}
	groups := map[string]*Group{}
	claim := func(at Node, label string) error {
		if _, err := c.st.declare(label, symElided, nil); err != nil {
			return nodeError(at, "%v", err)
		}
		return nil
	}
	for _, child := range body.Children {
		switch n := child.(type) {
		case *Entry:
			if n.Title == "" {
				return nil, entryError(n, "expected a labeled argument like name: value")
			}
			if err := claim(n, n.Title); err != nil {
				return nil, err
			}
			provided[n.Title] = &labeledArg{entry: n}
		case *Group:
			if n.Mode == "" {
				return nil, nodeError(n, "mode group [%s] must select a mode", n.Tag)
			}
			if err := claim(n, n.Tag); err != nil {
				return nil, err
			}
			groups[n.Tag] = n
		}
	}

	var out []functorArgNode
	for _, prm := range sig.params {
		switch prm.kind {
		case paramGroup:
			args, err := c.compileModeGroup(name, prm, groups[prm.name], body)
			if err != nil {
				return nil, err
			}
			delete(groups, prm.name)
			out = append(out, args...)
		default:
			arg := provided[prm.name]
			if arg == nil {
				return nil, nodeError(body, "missing argument %s for %s", prm.name, name)
			}
			arg.used = true
			compiled, err := c.compileLabeledArg(prm, arg.entry)
			if err != nil {
				return nil, err
			}
			out = append(out, compiled)
		}
	}
	for label, arg := range provided {
		if !arg.used {
			return nil, entryError(arg.entry, "unknown argument %s for %s", label, name)
		}
	}
	for tag, g := range groups {
		return nil, nodeError(g, "unknown mode group %s for %s", tag, name)
	}
	return out, nil
}

func (c *compiler) compileModeGroup(name string, prm param, g *Group, body *Group) ([]functorArgNode, error) {
	if g == nil {
		modes := make([]string, len(prm.modes))
		for i, m := range prm.modes {
			modes[i] = m.name
		}
		return nil, nodeError(body, "missing mode group [%s: %s] for %s", prm.name, strings.Join(modes, "|"), name)
	}
	selected := -1
	for i, m := range prm.modes {
		if m.name == g.Mode {
			selected = i
		}
	}
	if selected < 0 {
		return nil, nodeError(g, "unknown mode %s for %s", g.Mode, prm.name)
	}

	provided := map[string]*labeledArg{}
	for _, child := range g.Children {
		e, ok := child.(*Entry)
		if !ok || e.Title == "" {
			return nil, nodeError(child, "expected a labeled argument inside [%s: %s]", g.Tag, g.Mode)
		}
		if _, err := c.st.declare(e.Title, symElided, nil); err != nil {
			return nil, entryError(e, "%v", err)
		}
		provided[e.Title] = &labeledArg{entry: e}
	}

	out := []functorArgNode{{name: prm.name, kind: paramGroup, mode: g.Mode}}
	for i, m := range prm.modes {
		for _, argName := range m.params {
			node := functorArgNode{name: argName, kind: paramValue, modeSlot: true, selected: i == selected}
			if i == selected {
				arg := provided[argName]
				if arg == nil {
					return nil, nodeError(g, "missing argument %s for mode %s", argName, g.Mode)
				}
				arg.used = true
				compiled, err := c.compileLabeledArg(param{name: argName}, arg.entry)
				if err != nil {
					return nil, err
				}
				node.expr = compiled.expr
			}
			out = append(out, node)
		}
	}
	for label, arg := range provided {
		if !arg.used {
			return nil, entryError(arg.entry, "unknown argument %s for mode %s", label, g.Mode)
		}
	}
	return out, nil
}

func (c *compiler) compileLabeledArg(prm param, e *Entry) (functorArgNode, error) {
	out := functorArgNode{name: prm.name, kind: prm.kind}
	if prm.kind == paramFunction {
		tmpl, err := c.compileLambda(prm, e)
		if err != nil {
			return out, err
		}
		out.lambda = tmpl
		return out, nil
	}

	p := c.newParser(e)
	out.expr = p.parseExpression(precLowest)
	if p.err == nil && p.curIs(tokenAmp) {
		if prm.kind != paramReference {
			p.addError(p.curToken.Pos, "& is only valid for reference parameters")
		}
		p.nextToken()
	}
	if p.err == nil && prm.kind == paramReference {
		if err := c.checkAssignable(p, out.expr, p.curToken); err != nil {
			return out, err
		}
		if idx, ok := out.expr.(*indexNode); ok {
			idx.create = false
		}
	}
	if _, err := c.finish(p, out.expr); err != nil {
		return out, err
	}
	return out, nil
}

// compileLambda compiles the text of a function-typed argument as the body
// of an anonymous function taking the parameter's declared arguments.
func (c *compiler) compileLambda(prm param, e *Entry) (*funcTemplate, error) {
	sig := positionalSignature(prm.args)
	c.st.beginFunction()
	c.st.allocSlot()
	var err error
	for _, arg := range prm.args {
		if _, err = c.st.declare(arg, symConst, nil); err != nil {
			break
		}
	}
	tmpl := &funcTemplate{id: c.engine.templateID(), name: prm.name, sig: sig, width: sig.width(), pos: Position{Line: e.Line, Column: 1}}
	if err == nil {
		p := c.newParser(e)
		tmpl.expr = p.parseExpression(precLowest)
		_, err = c.finish(p, tmpl.expr)
	} else {
		err = entryError(e, "%v", err)
	}
	fs := c.st.endFunction()
	if err != nil {
		return nil, err
	}
	tmpl.frameSize = fs.frameSize
	tmpl.captures = fs.captures
	return tmpl, nil
}
