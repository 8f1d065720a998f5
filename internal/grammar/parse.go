// Copyright (c) 2014, Kevin Walsh.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package grammar

import (
	"fmt"

	"github.com/borrowck/polonius/atom"
	"github.com/borrowck/polonius/facts"
	"github.com/borrowck/polonius/relation"
)

// Parse turns source text (named name, for error messages) into an
// AllFacts. name is typically a test file's path.
//
// The grammar:
//
//	program    = { decl | block }
//	decl       = "placeholder" "(" origin "," ident ")" ";"
//	           | "known_subset" "(" origin "," origin ")" ";"
//	           | "use" "(" ident "," origin ")" ";"
//	           | "drop" "(" ident "," origin ")" ";"
//	block      = "block" ident "{" { stmt } "}"
//	stmt       = [ effectList "/" ] effectList ";" [ "goto" identList ";" ]
//	effectList = effect { "," effect }
//	effect     = ident "(" [ arg { ( "," | ":" ) arg } ] ")"
//
// Each stmt contributes two Points, Start and Mid, named
// "Start(<block>[<index>])" and "Mid(<block>[<index>])" to match the style
// of point names the loader sees in .facts files (e.g. "Mid(bb3[2])").
// Pre-effects (before "/") are recorded at Start; effects (after "/", or
// the whole list if there is no "/") are recorded at Mid. A mandatory
// cfg_edge(Start, Mid) is always emitted, a cfg_edge(Mid, nextStart) is
// emitted to the following statement in the same block, and an explicit
// "goto" emits cfg_edge(Mid, Start) to each named block's first statement.
//
// This parser only assembles ground facts: it has no notion of resolution
// or proof, unlike the teacher's SLD-resolution Engine. See DESIGN.md.
// Parse also returns the Interner it built, so a caller (e.g. the
// GraphViz dumper) can render atoms back to their original token text.
func Parse(name, src string) (*facts.AllFacts, *atom.Interner, error) {
	toks := lex(src)
	p := &parser{name: name, toks: toks, interner: atom.NewInterner(), facts: facts.New()}
	if err := p.run(); err != nil {
		return nil, nil, err
	}
	return p.facts, p.interner, nil
}

type parser struct {
	name     string
	toks     []token
	pos      int
	interner *atom.Interner
	facts    *facts.AllFacts

	blockFirstPoint map[string]atom.Atom
	pendingGotos    []pendingGoto
}

type pendingGoto struct {
	from    atom.Atom
	toBlock string
	line    int
}

func (p *parser) errorf(line int, format string, args ...interface{}) error {
	return fmt.Errorf("%s:%d: %s", p.name, line, fmt.Sprintf(format, args...))
}

func (p *parser) peek() token  { return p.toks[p.pos] }
func (p *parser) advance() token {
	t := p.toks[p.pos]
	if t.typ != tokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(typ tokenType, what string) (token, error) {
	t := p.peek()
	if t.typ == tokenError {
		return t, p.errorf(t.line, "%s", t.val)
	}
	if t.typ != typ {
		return t, p.errorf(t.line, "expected %s, got %s", what, t)
	}
	return p.advance(), nil
}

func (p *parser) run() error {
	p.blockFirstPoint = make(map[string]atom.Atom)

	for p.peek().typ != tokenEOF {
		t := p.peek()
		if t.typ == tokenError {
			return p.errorf(t.line, "%s", t.val)
		}
		if t.typ != tokenIdent {
			return p.errorf(t.line, "expected a declaration or block, got %s", t)
		}
		switch t.val {
		case "block":
			if err := p.parseBlock(); err != nil {
				return err
			}
		default:
			if err := p.parseDecl(); err != nil {
				return err
			}
		}
	}

	for _, g := range p.pendingGotos {
		target, ok := p.blockFirstPoint[g.toBlock]
		if !ok {
			return p.errorf(g.line, "goto references unknown block %q", g.toBlock)
		}
		p.facts.CFGEdge.Insert(relation.Pair{A: g.from, B: target})
	}
	return nil
}

// parseDecl handles the four kinds of top-level declaration that are not
// blocks: placeholder, known_subset, use, and drop.
func (p *parser) parseDecl() error {
	name, err := p.expect(tokenIdent, "a declaration keyword")
	if err != nil {
		return err
	}
	if _, err := p.expect(tokenLParen, "("); err != nil {
		return err
	}
	args, err := p.parseArgList()
	if err != nil {
		return err
	}
	if _, err := p.expect(tokenSemi, ";"); err != nil {
		return err
	}

	switch name.val {
	case "placeholder":
		if len(args) != 2 {
			return p.errorf(name.line, "placeholder expects 2 arguments, got %d", len(args))
		}
		o := p.internOrigin(args[0])
		l := p.interner.Intern(atom.Loan, args[1])
		p.facts.Placeholder.Insert(relation.Pair{A: o, B: l})
	case "known_subset":
		if len(args) != 2 {
			return p.errorf(name.line, "known_subset expects 2 arguments, got %d", len(args))
		}
		p.facts.KnownPlaceholderSubset.Insert(relation.Pair{A: p.internOrigin(args[0]), B: p.internOrigin(args[1])})
	case "use":
		if len(args) != 2 {
			return p.errorf(name.line, "use expects 2 arguments, got %d", len(args))
		}
		v := p.interner.Intern(atom.Variable, args[0])
		p.facts.UseOfVarDerefsOrigin.Insert(relation.Pair{A: v, B: p.internOrigin(args[1])})
	case "drop":
		if len(args) != 2 {
			return p.errorf(name.line, "drop expects 2 arguments, got %d", len(args))
		}
		v := p.interner.Intern(atom.Variable, args[0])
		p.facts.DropOfVarDerefsOrigin.Insert(relation.Pair{A: v, B: p.internOrigin(args[1])})
	default:
		return p.errorf(name.line, "unknown declaration %q", name.val)
	}
	return nil
}

func (p *parser) internOrigin(tok string) atom.Atom {
	return p.interner.Intern(atom.Origin, tok)
}

// parseArgList parses a parenthesized, comma-or-colon separated list of
// bare idents, origins or quoted strings, up to and including the closing
// ")".
func (p *parser) parseArgList() ([]string, error) {
	var args []string
	if p.peek().typ == tokenRParen {
		p.advance()
		return args, nil
	}
	for {
		t := p.advance()
		switch t.typ {
		case tokenIdent, tokenOrigin:
			args = append(args, t.val)
		case tokenString:
			args = append(args, stringLiteralValue(t.val))
		default:
			return nil, p.errorf(t.line, "expected an argument, got %s", t)
		}
		sep := p.peek()
		if sep.typ == tokenComma || sep.typ == tokenColon {
			p.advance()
			continue
		}
		break
	}
	if _, err := p.expect(tokenRParen, ")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *parser) parseBlock() error {
	if _, err := p.expect(tokenIdent, "block"); err != nil { // consumes "block"
		return err
	}
	nameTok, err := p.expect(tokenIdent, "a block name")
	if err != nil {
		return err
	}
	if _, err := p.expect(tokenLBrace, "{"); err != nil {
		return err
	}

	idx := 0
	var prevMid atom.Atom
	havePrev := false
	for p.peek().typ != tokenRBrace {
		start := p.interner.Intern(atom.Point, fmt.Sprintf("Start(%s[%d])", nameTok.val, idx))
		mid := p.interner.Intern(atom.Point, fmt.Sprintf("Mid(%s[%d])", nameTok.val, idx))
		p.facts.CFGEdge.Insert(relation.Pair{A: start, B: mid})
		if idx == 0 {
			p.blockFirstPoint[nameTok.val] = start
		}
		if havePrev {
			p.facts.CFGEdge.Insert(relation.Pair{A: prevMid, B: start})
		}

		if err := p.parseStmt(start, mid); err != nil {
			return err
		}

		prevMid = mid
		havePrev = true
		idx++
	}
	if _, err := p.expect(tokenRBrace, "}"); err != nil {
		return err
	}
	return nil
}

// parseStmt parses one "[pre-effects /] effects ; [goto idents ;]" clause,
// recording pre-effects at start and effects at mid.
func (p *parser) parseStmt(start, mid atom.Atom) error {
	first, err := p.parseEffectList()
	if err != nil {
		return err
	}

	var pre, main []effect
	if p.peek().typ == tokenSlash {
		p.advance()
		second, err := p.parseEffectList()
		if err != nil {
			return err
		}
		pre, main = first, second
	} else {
		main = first
	}

	if _, err := p.expect(tokenSemi, ";"); err != nil {
		return err
	}

	for _, e := range pre {
		if err := p.applyEffect(e, start); err != nil {
			return err
		}
	}
	for _, e := range main {
		if err := p.applyEffect(e, mid); err != nil {
			return err
		}
	}

	if p.peek().typ == tokenIdent && p.peek().val == "goto" {
		line := p.advance().line
		for {
			target, err := p.expect(tokenIdent, "a block name")
			if err != nil {
				return err
			}
			p.pendingGotos = append(p.pendingGotos, pendingGoto{from: mid, toBlock: target.val, line: line})
			if p.peek().typ == tokenComma {
				p.advance()
				continue
			}
			break
		}
		if _, err := p.expect(tokenSemi, ";"); err != nil {
			return err
		}
	}
	return nil
}

type effect struct {
	name string
	args []string
	line int
}

func (p *parser) parseEffectList() ([]effect, error) {
	var out []effect
	for {
		t := p.peek()
		if t.typ != tokenIdent {
			break
		}
		name := p.advance()
		if _, err := p.expect(tokenLParen, "("); err != nil {
			return nil, err
		}
		args, err := p.parseArgList()
		if err != nil {
			return nil, err
		}
		out = append(out, effect{name: name.val, args: args, line: name.line})
		if p.peek().typ == tokenComma {
			p.advance()
			continue
		}
		break
	}
	return out, nil
}

// applyEffect inserts the fact an effect call names at Point pt.
func (p *parser) applyEffect(e effect, pt atom.Atom) error {
	switch e.name {
	case "outlives":
		if len(e.args) != 2 {
			return p.errorf(e.line, "outlives expects 2 arguments, got %d", len(e.args))
		}
		o1, o2 := p.internOrigin(e.args[0]), p.internOrigin(e.args[1])
		p.facts.SubsetBase.Insert(relation.Triple{A: o1, B: o2, C: pt})
	case "loan_issued_at":
		if len(e.args) != 2 {
			return p.errorf(e.line, "loan_issued_at expects 2 arguments, got %d", len(e.args))
		}
		o := p.internOrigin(e.args[0])
		l := p.interner.Intern(atom.Loan, e.args[1])
		p.facts.LoanIssuedAt.Insert(relation.Triple{A: o, B: l, C: pt})
	case "loan_killed_at":
		if len(e.args) != 1 {
			return p.errorf(e.line, "loan_killed_at expects 1 argument, got %d", len(e.args))
		}
		l := p.interner.Intern(atom.Loan, e.args[0])
		p.facts.LoanKilledAt.Insert(relation.Pair{A: l, B: pt})
	case "loan_invalidated_at":
		if len(e.args) != 1 {
			return p.errorf(e.line, "loan_invalidated_at expects 1 argument, got %d", len(e.args))
		}
		l := p.interner.Intern(atom.Loan, e.args[0])
		p.facts.LoanInvalidatedAt.Insert(relation.Pair{A: l, B: pt})
	case "var_used_at":
		if len(e.args) != 1 {
			return p.errorf(e.line, "var_used_at expects 1 argument, got %d", len(e.args))
		}
		v := p.interner.Intern(atom.Variable, e.args[0])
		p.facts.VarUsedAt.Insert(relation.Pair{A: v, B: pt})
	case "var_defined_at":
		if len(e.args) != 1 {
			return p.errorf(e.line, "var_defined_at expects 1 argument, got %d", len(e.args))
		}
		v := p.interner.Intern(atom.Variable, e.args[0])
		p.facts.VarDefinedAt.Insert(relation.Pair{A: v, B: pt})
	case "var_dropped_at":
		if len(e.args) != 1 {
			return p.errorf(e.line, "var_dropped_at expects 1 argument, got %d", len(e.args))
		}
		v := p.interner.Intern(atom.Variable, e.args[0])
		p.facts.VarDroppedAt.Insert(relation.Pair{A: v, B: pt})
	case "origin_live_on_entry":
		if len(e.args) != 1 {
			return p.errorf(e.line, "origin_live_on_entry expects 1 argument, got %d", len(e.args))
		}
		p.facts.OriginLiveOnEntry.Insert(relation.Pair{A: p.internOrigin(e.args[0]), B: pt})
	default:
		return p.errorf(e.line, "unknown effect %q", e.name)
	}
	return nil
}
