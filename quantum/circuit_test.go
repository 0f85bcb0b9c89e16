package quantum

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"quantumLottoServer/lottery"
)

func TestSuperpositionCircuit(t *testing.T) {
	// Test 1: structure for a small register
	t.Run("FourQubits", func(t *testing.T) {
		qasm, err := SuperpositionCircuit(4)
		if err != nil {
			t.Fatalf("SuperpositionCircuit failed: %v", err)
		}

		required := []string{
			"OPENQASM 3.0;",
			"include \"stdgates.inc\";",
			"qubit[4] q;",
			"bit[4] c;",
			"c = measure q;",
		}
		for _, want := range required {
			if !strings.Contains(qasm, want) {
				t.Errorf("circuit missing %q:\n%s", want, qasm)
			}
		}

		for i := 0; i < 4; i++ {
			if !strings.Contains(qasm, fmt.Sprintf("h q[%d];", i)) {
				t.Errorf("no Hadamard on qubit %d:\n%s", i, qasm)
			}
		}
		if got := strings.Count(qasm, "h q["); got != 4 {
			t.Errorf("expected 4 Hadamard gates, found %d", got)
		}
	})

	// Test 2: register size follows the request
	t.Run("WideRegister", func(t *testing.T) {
		qasm, err := SuperpositionCircuit(92)
		if err != nil {
			t.Fatalf("SuperpositionCircuit failed: %v", err)
		}
		if !strings.Contains(qasm, "qubit[92] q;") {
			t.Error("register not sized to 92 qubits")
		}
		if got := strings.Count(qasm, "h q["); got != 92 {
			t.Errorf("expected 92 Hadamard gates, found %d", got)
		}
	})

	// Test 3: degenerate sizes are rejected
	t.Run("RejectsEmptyRegister", func(t *testing.T) {
		for _, n := range []int{0, -1} {
			if _, err := SuperpositionCircuit(n); !errors.Is(err, lottery.ErrInvalidParameters) {
				t.Errorf("SuperpositionCircuit(%d) err = %v, want ErrInvalidParameters", n, err)
			}
		}
	})
}
