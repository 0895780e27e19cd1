package circuit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseError reports malformed circuit text. No partial Circuit is ever
// produced alongside a ParseError.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("qasm: line %d: %s", e.Line, e.Msg)
}

// Parse reads an OPENQASM 2.0 subset: the version header, include
// statements, qreg declarations and gate statements over the given gate
// set. creg, measure, barrier and control flow are rejected; rewrite
// patterns and benchmark targets are pure gate sequences.
func Parse(set GateSet, src string) (*Circuit, error) {
	p := parser{set: set, regs: make(map[string]qreg)}
	for lineno, line := range strings.Split(src, "\n") {
		line = stripComment(line)
		for _, stmt := range strings.Split(line, ";") {
			stmt = strings.TrimSpace(stmt)
			if stmt == "" {
				continue
			}
			if err := p.statement(stmt); err != nil {
				return nil, &ParseError{Line: lineno + 1, Msg: err.Error()}
			}
		}
	}
	if p.circ.NbQubits == 0 {
		return nil, &ParseError{Line: 1, Msg: "no qreg declared"}
	}
	return &p.circ, nil
}

type qreg struct {
	offset int
	size   int
}

type parser struct {
	set  GateSet
	regs map[string]qreg
	circ Circuit
}

func (p *parser) statement(stmt string) error {
	// dispatch on the whole first token: "qregfoo ..." is a gate statement
	// (and an unknown gate), not a register declaration
	switch kw := firstWord(stmt); kw {
	case "OPENQASM":
		version := strings.TrimSpace(strings.TrimPrefix(stmt, "OPENQASM"))
		if version != "2.0" {
			return fmt.Errorf("unsupported OPENQASM version %q", version)
		}
		return nil
	case "include":
		return nil
	case "qreg":
		return p.qregDecl(strings.TrimSpace(strings.TrimPrefix(stmt, "qreg")))
	case "creg", "measure", "barrier", "if", "reset":
		return fmt.Errorf("unsupported statement %q", kw)
	default:
		return p.gateStmt(stmt)
	}
}

func (p *parser) qregDecl(decl string) error {
	name, size, err := splitIndexed(decl)
	if err != nil {
		return fmt.Errorf("bad qreg declaration: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("qreg %s has size %d", name, size)
	}
	if _, dup := p.regs[name]; dup {
		return fmt.Errorf("qreg %s redeclared", name)
	}
	p.regs[name] = qreg{offset: p.circ.NbQubits, size: size}
	p.circ.NbQubits += size
	return nil
}

func (p *parser) gateStmt(stmt string) error {
	name, params, operands, err := splitGate(stmt)
	if err != nil {
		return err
	}
	def, ok := p.set.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown gate %q", name)
	}
	if len(params) != def.NbParam {
		return fmt.Errorf("gate %s: got %d parameters, want %d", name, len(params), def.NbParam)
	}
	if len(operands) != def.NbQubit {
		return fmt.Errorf("gate %s: got %d qubit operands, want %d", name, len(operands), def.NbQubit)
	}
	qubits := make([]int, len(operands))
	for i, operand := range operands {
		reg, idx, err := splitOperand(operand)
		if err != nil {
			return fmt.Errorf("gate %s: %w", name, err)
		}
		r, ok := p.regs[reg]
		if !ok {
			return fmt.Errorf("gate %s: unknown register %q", name, reg)
		}
		if idx < 0 || idx >= r.size {
			return fmt.Errorf("gate %s: %s[%d] out of range", name, reg, idx)
		}
		qubits[i] = r.offset + idx
		for j := 0; j < i; j++ {
			if qubits[j] == qubits[i] {
				return fmt.Errorf("gate %s: duplicate qubit operand %s", name, operand)
			}
		}
	}
	p.circ.Gates = append(p.circ.Gates, Gate{Name: name, Qubits: qubits, Params: params})
	return nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "//"); i != -1 {
		return line[:i]
	}
	return line
}

func firstWord(s string) string {
	if i := strings.IndexAny(s, " \t("); i != -1 {
		return s[:i]
	}
	return s
}

// splitIndexed parses "name[size]".
func splitIndexed(s string) (string, int, error) {
	s = strings.TrimSpace(s)
	open := strings.IndexByte(s, '[')
	if open <= 0 || !strings.HasSuffix(s, "]") {
		return "", 0, fmt.Errorf("expected name[index], got %q", s)
	}
	n, err := strconv.Atoi(s[open+1 : len(s)-1])
	if err != nil {
		return "", 0, fmt.Errorf("bad index in %q: %w", s, err)
	}
	return strings.TrimSpace(s[:open]), n, nil
}

func splitOperand(s string) (string, int, error) {
	return splitIndexed(s)
}

// splitGate parses "name(p1,p2) r[i], r[j]".
func splitGate(stmt string) (name string, params []float64, operands []string, err error) {
	rest := stmt
	if open := strings.IndexByte(stmt, '('); open != -1 {
		closing := strings.IndexByte(stmt, ')')
		if closing < open {
			return "", nil, nil, fmt.Errorf("unbalanced parentheses in %q", stmt)
		}
		name = strings.TrimSpace(stmt[:open])
		for _, raw := range strings.Split(stmt[open+1:closing], ",") {
			v, perr := parseParam(strings.TrimSpace(raw))
			if perr != nil {
				return "", nil, nil, fmt.Errorf("gate %s: %w", name, perr)
			}
			params = append(params, v)
		}
		rest = stmt[closing+1:]
	} else {
		i := strings.IndexAny(stmt, " \t")
		if i == -1 {
			return "", nil, nil, fmt.Errorf("gate statement %q has no operands", stmt)
		}
		name = stmt[:i]
		rest = stmt[i:]
	}
	for _, op := range strings.Split(rest, ",") {
		op = strings.TrimSpace(op)
		if op == "" {
			return "", nil, nil, fmt.Errorf("gate %s: empty qubit operand", name)
		}
		operands = append(operands, op)
	}
	return name, params, operands, nil
}

// parseParam accepts decimal literals and the pi spellings used by QASM
// emitters: pi, -pi, pi/k, -pi/k and k*pi.
func parseParam(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty parameter")
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}
	sign := 1.0
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = s[1:]
	}
	switch {
	case s == "pi":
		return sign * math.Pi, nil
	case strings.HasPrefix(s, "pi/"):
		d, err := strconv.ParseFloat(s[len("pi/"):], 64)
		if err != nil || d == 0 {
			return 0, fmt.Errorf("bad parameter %q", s)
		}
		return sign * math.Pi / d, nil
	case strings.HasSuffix(s, "*pi"):
		k, err := strconv.ParseFloat(s[:len(s)-len("*pi")], 64)
		if err != nil {
			return 0, fmt.Errorf("bad parameter %q", s)
		}
		return sign * k * math.Pi, nil
	default:
		return 0, fmt.Errorf("bad parameter %q", s)
	}
}
