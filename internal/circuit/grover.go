package circuit

// TargetState is the bitstring the fixed oracle marks.
const TargetState = "11"

// Grover2Bit builds the fixed two-qubit Grover search circuit for |11⟩.
// One iteration suffices for a 4-state space. The sequence is: uniform
// superposition, CZ oracle marking |11⟩, then the diffuser
// (H, X, H-CX-H as a two-qubit controlled-Z, X, H) and measurement.
func Grover2Bit() *Builder {
	b := NewBuilder("grover_2bit", 2, 2)

	// superposition
	b.Gate("h q[0];")
	b.Gate("h q[1];")

	// oracle: phase flip on |11⟩
	b.Gate("cz q[0],q[1];")

	// diffuser
	b.Gate("h q[0];")
	b.Gate("h q[1];")
	b.Gate("x q[0];")
	b.Gate("x q[1];")
	b.Gate("h q[1];")
	b.Gate("cx q[0],q[1];")
	b.Gate("h q[1];")
	b.Gate("x q[0];")
	b.Gate("x q[1];")
	b.Gate("h q[0];")
	b.Gate("h q[1];")

	b.MeasureAll()
	return b
}
