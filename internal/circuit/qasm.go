// Package circuit builds OpenQASM 2.0 programs for submission to the
// runtime service. Transpilation onto a backend's native gate set happens
// remotely.
package circuit

import (
	"fmt"
	"strings"
)

// Builder accumulates one OpenQASM 2.0 program.
type Builder struct {
	name         string
	qubits       int
	clbits       int
	gates        []string
	measurements []string
}

func NewBuilder(name string, qubits, clbits int) *Builder {
	return &Builder{name: name, qubits: qubits, clbits: clbits}
}

// Gate appends one gate statement, e.g. Gate("h q[%d];", 0).
func (b *Builder) Gate(format string, args ...any) {
	b.gates = append(b.gates, fmt.Sprintf(format, args...))
}

func (b *Builder) Measure(qubit, clbit int) {
	b.measurements = append(b.measurements, fmt.Sprintf("measure q[%d] -> c[%d];", qubit, clbit))
}

func (b *Builder) MeasureAll() {
	for i := 0; i < b.qubits && i < b.clbits; i++ {
		b.Measure(i, i)
	}
}

// Program renders the complete QASM source.
func (b *Builder) Program() string {
	var out strings.Builder
	out.WriteString("OPENQASM 2.0;\n")
	out.WriteString("include \"qelib1.inc\";\n\n")
	fmt.Fprintf(&out, "qreg q[%d];\n", b.qubits)
	fmt.Fprintf(&out, "creg c[%d];\n\n", b.clbits)
	for _, gate := range b.gates {
		out.WriteString(gate)
		out.WriteString("\n")
	}
	out.WriteString("\n")
	for _, m := range b.measurements {
		out.WriteString(m)
		out.WriteString("\n")
	}
	return out.String()
}

// Info summarizes a built circuit for operator output.
type Info struct {
	Name       string
	Qubits     int
	Clbits     int
	Operations int
	GateCounts map[string]int
}

// Summary computes gate statistics from the builder's statements.
func (b *Builder) Summary() Info {
	counts := map[string]int{}
	for _, stmt := range b.gates {
		name := stmt
		if i := strings.IndexAny(stmt, " ("); i > 0 {
			name = stmt[:i]
		}
		counts[name]++
	}
	if len(b.measurements) > 0 {
		counts["measure"] = len(b.measurements)
	}
	return Info{
		Name:       b.name,
		Qubits:     b.qubits,
		Clbits:     b.clbits,
		Operations: len(b.gates) + len(b.measurements),
		GateCounts: counts,
	}
}
