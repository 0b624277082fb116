// Package qmap trains a parametrized four qubit circuit to map fixed
// computational basis states onto fixed target basis states.
package qmap

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"qmap/circuit"
	"qmap/mat"
)

// NumQubits is the register size of the mapping task.
const NumQubits = 4

// A Pair maps one computational basis state to another.
// Qubit 0 is the most significant bit of a basis index.
type Pair struct {
	Input  int
	Target int
}

// TrainingPairs returns the four one-hot basis states together with their
// bit-reversed targets.
func TrainingPairs() []Pair {
	pairs := make([]Pair, 0, NumQubits)
	for q := 0; q < NumQubits; q++ {
		in := 1 << q
		pairs = append(pairs, Pair{Input: in, Target: ReverseBits(in)})
	}
	return pairs
}

// HoldoutPair returns a basis state never seen in training,
// with the target implied by the bit-reversal rule.
func HoldoutPair() Pair {
	return Pair{Input: 0b0011, Target: 0b1100}
}

// ReverseBits reverses the qubit order of a basis index.
func ReverseBits(basis int) int {
	r := 0
	for q := 0; q < NumQubits; q++ {
		if basis&(1<<q) != 0 {
			r |= 1 << (NumQubits - 1 - q)
		}
	}
	return r
}

// A Task evaluates the fidelity cost of an ansatz on the training pairs.
type Task struct {
	Ansatz circuit.Ansatz
	Pairs  []Pair

	sim *circuit.Simulator
}

func NewTask(depth int) *Task {
	return &Task{
		Ansatz: circuit.NewAnsatz(NumQubits, depth),
		Pairs:  TrainingPairs(),
		sim:    circuit.NewSimulator(NumQubits),
	}
}

// Fidelity returns |<target|U(params)|input>|^2.
func (t *Task) Fidelity(pair Pair, params []float64) float64 {
	t.sim.Prepare(pair.Input)
	t.Ansatz.Run(t.sim, params)
	a := t.sim.Amplitude(pair.Target)
	re, im := float64(real(a)), float64(imag(a))
	return re*re + im*im
}

// Cost is one minus the mean fidelity over the training pairs.
func (t *Task) Cost(params []float64) float64 {
	var f float64
	for _, pair := range t.Pairs {
		f += t.Fidelity(pair, params)
	}
	return 1 - f/float64(len(t.Pairs))
}

// Gradient fills grad with the parameter-shift gradient of Cost.
// Every ansatz rotation is generated by a Pauli operator,
// so shifting a parameter by half pi gives the exact derivative.
func (t *Task) Gradient(grad, params []float64) {
	if len(grad) != len(params) {
		panic(fmt.Sprintf("%d %d", len(grad), len(params)))
	}
	const shift = math.Pi / 2
	for k := range params {
		orig := params[k]
		params[k] = orig + shift
		plus := t.Cost(params)
		params[k] = orig - shift
		minus := t.Cost(params)
		params[k] = orig

		grad[k] = (plus - minus) / 2
	}
}

// Statistics summarizes a trained parameter vector.
type Statistics struct {
	FinalCost  float64
	Fidelities []float64
	Holdout    float64
}

// GetStatistics evaluates the trained circuit on the training pairs and the
// holdout probe. An error is returned if simulation loses normalization.
func GetStatistics(t *Task, params []float64) (Statistics, error) {
	var stats Statistics
	for _, pair := range t.Pairs {
		stats.Fidelities = append(stats.Fidelities, t.Fidelity(pair, params))
		if norm := t.sim.Norm(); math.Abs(norm-1) > 1e-3 {
			return Statistics{}, errors.Errorf("%f", norm)
		}
	}
	stats.FinalCost = t.Cost(params)
	stats.Holdout = t.Fidelity(HoldoutPair(), params)
	return stats, nil
}

// Unitary builds the explicit circuit operator from Kronecker products.
func Unitary(a circuit.Ansatz, params []float64) *mat.COO {
	if len(params) != a.NumParams() {
		panic(fmt.Sprintf("%d %d", len(params), a.NumParams()))
	}
	n := a.Qubits()
	u := mat.COOIdentity(1 << n)
	p := 0
	for l := 0; l < a.Depth(); l++ {
		for q := 0; q < n; q++ {
			u = mat.Embed1(n, q, mat.RYGate(params[p])).MatMul(u)
			p++
		}
		for q := 0; q < n; q++ {
			u = mat.Embed1(n, q, mat.RZGate(params[p])).MatMul(u)
			p++
		}
		for q := 0; q < n; q++ {
			u = mat.CNOT(n, q, (q+1)%n).MatMul(u)
		}
	}
	return u
}
