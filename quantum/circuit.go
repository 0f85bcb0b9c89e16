package quantum

import (
	"fmt"
	"strings"

	"quantumLottoServer/lottery"
)

// SuperpositionCircuit builds OpenQASM 3.0 source for the one circuit
// this service ever runs: a Hadamard on every qubit followed by a full
// measurement. One shot collapses an equal superposition of 2^qubits
// states into one uniform bit string.
func SuperpositionCircuit(qubits int) (string, error) {
	if qubits <= 0 {
		return "", fmt.Errorf("%w: circuit needs at least one qubit", lottery.ErrInvalidParameters)
	}

	var b strings.Builder
	b.WriteString("OPENQASM 3.0;\n")
	b.WriteString("include \"stdgates.inc\";\n")
	fmt.Fprintf(&b, "qubit[%d] q;\n", qubits)
	fmt.Fprintf(&b, "bit[%d] c;\n\n", qubits)

	for i := 0; i < qubits; i++ {
		fmt.Fprintf(&b, "h q[%d];\n", i)
	}

	b.WriteString("\nc = measure q;\n")
	return b.String(), nil
}
