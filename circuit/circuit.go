// Package circuit simulates small parametrized quantum circuits.
//
// The statevector of an n qubit register is kept as a tensor with one axis
// per qubit, and gates are applied as tensor contractions.
package circuit

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/fumin/tensor"
)

// Simulator holds the statevector of a small qubit register.
// Qubit 0 is the most significant bit of a basis index.
type Simulator struct {
	qubits int
	state  *tensor.Dense

	buf *tensor.Dense
}

func NewSimulator(qubits int) *Simulator {
	if qubits < 1 {
		panic(fmt.Sprintf("%d", qubits))
	}
	s := &Simulator{qubits: qubits, state: tensor.Zeros(qubitShape(qubits)...), buf: tensor.Zeros(1)}
	s.Prepare(0)
	return s
}

func (s *Simulator) Qubits() int { return s.qubits }

// Prepare resets the register to the given computational basis state.
func (s *Simulator) Prepare(basis int) {
	if basis < 0 || basis >= 1<<s.qubits {
		panic(fmt.Sprintf("%d %d", basis, s.qubits))
	}
	zeros(s.state, qubitShape(s.qubits)...)
	s.state.SetAt(digits(basis, s.qubits), 1)
}

// Amplitude returns the amplitude of a computational basis state.
func (s *Simulator) Amplitude(basis int) complex64 {
	return s.state.At(digits(basis, s.qubits)...)
}

// Amplitudes returns all amplitudes in basis order.
func (s *Simulator) Amplitudes() []complex64 {
	amps := make([]complex64, 0, 1<<s.qubits)
	for b := 0; b < 1<<s.qubits; b++ {
		amps = append(amps, s.Amplitude(b))
	}
	return amps
}

// Norm returns the L2 norm of the statevector.
func (s *Simulator) Norm() float64 {
	var n float64
	for _, v := range s.state.All() {
		n += float64(real(v))*float64(real(v)) + float64(imag(v))*float64(imag(v))
	}
	return math.Sqrt(n)
}

// Apply1 applies a single qubit gate of shape {2, 2} to qubit q.
func (s *Simulator) Apply1(g *tensor.Dense, q int) {
	if q < 0 || q >= s.qubits {
		panic(fmt.Sprintf("%d %d", q, s.qubits))
	}
	// Contract the gate input axis with the qubit axis.
	// The gate output axis lands in front and is transposed back to position q.
	p := tensor.Product(s.buf, g, s.state, [][2]int{{1, q}})
	perm := make([]int, s.qubits)
	for j := range perm {
		switch {
		case j < q:
			perm[j] = j + 1
		case j == q:
			perm[j] = 0
		default:
			perm[j] = j
		}
	}
	resetCopy(s.state, p.Transpose(perm...))
}

// Apply2 applies a two qubit gate of shape {2, 2, 2, 2} to qubits q0 and q1.
// The gate axes are {out0, out1, in0, in1}, with the 0 axes acting on q0.
func (s *Simulator) Apply2(g *tensor.Dense, q0, q1 int) {
	if q0 == q1 || q0 < 0 || q0 >= s.qubits || q1 < 0 || q1 >= s.qubits {
		panic(fmt.Sprintf("%d %d %d", q0, q1, s.qubits))
	}
	p := tensor.Product(s.buf, g, s.state, [][2]int{{2, q0}, {3, q1}})
	perm := make([]int, s.qubits)
	for j := range perm {
		switch j {
		case q0:
			perm[j] = 0
		case q1:
			perm[j] = 1
		default:
			k := j + 2
			if q0 < j {
				k--
			}
			if q1 < j {
				k--
			}
			perm[j] = k
		}
	}
	resetCopy(s.state, p.Transpose(perm...))
}

// RY returns the rotation around the Y axis by theta.
func RY(theta float64) *tensor.Dense {
	c := complex64(complex(math.Cos(theta/2), 0))
	sn := complex64(complex(math.Sin(theta/2), 0))
	return gate2([2][2]complex64{
		{c, -sn},
		{sn, c},
	})
}

// RZ returns the rotation around the Z axis by theta.
func RZ(theta float64) *tensor.Dense {
	e := cmplx.Exp(complex(0, theta/2))
	return gate2([2][2]complex64{
		{complex64(cmplx.Conj(e)), 0},
		{0, complex64(e)},
	})
}

func Hadamard() *tensor.Dense {
	h := complex64(complex(1/math.Sqrt2, 0))
	return gate2([2][2]complex64{
		{h, h},
		{h, -h},
	})
}

func PauliX() *tensor.Dense {
	return gate2([2][2]complex64{
		{0, 1},
		{1, 0},
	})
}

// CNOT returns the controlled-NOT gate with the 0 axes as the control.
func CNOT() *tensor.Dense {
	t := tensor.Zeros(2, 2, 2, 2)
	for ic := 0; ic < 2; ic++ {
		for it := 0; it < 2; it++ {
			t.SetAt([]int{ic, it ^ ic, ic, it}, 1)
		}
	}
	return t
}

// Ansatz is a layered variational circuit.
// Each layer applies RY and RZ rotations on every qubit, followed by a ring
// of CNOTs entangling neighbouring qubits.
type Ansatz struct {
	qubits int
	depth  int
}

func NewAnsatz(qubits, depth int) Ansatz {
	if qubits < 2 || depth < 0 {
		panic(fmt.Sprintf("%d %d", qubits, depth))
	}
	return Ansatz{qubits: qubits, depth: depth}
}

func (a Ansatz) Qubits() int { return a.qubits }
func (a Ansatz) Depth() int  { return a.depth }

// NumParams returns the number of rotation angles of the ansatz.
func (a Ansatz) NumParams() int { return 2 * a.qubits * a.depth }

// Run applies the ansatz with the given rotation angles to the simulator state.
func (a Ansatz) Run(s *Simulator, params []float64) {
	if len(params) != a.NumParams() {
		panic(fmt.Sprintf("%d %d", len(params), a.NumParams()))
	}
	if s.Qubits() != a.qubits {
		panic(fmt.Sprintf("%d %d", s.Qubits(), a.qubits))
	}

	cnot := CNOT()
	p := 0
	for l := 0; l < a.depth; l++ {
		for q := 0; q < a.qubits; q++ {
			s.Apply1(RY(params[p]), q)
			p++
		}
		for q := 0; q < a.qubits; q++ {
			s.Apply1(RZ(params[p]), q)
			p++
		}
		for q := 0; q < a.qubits; q++ {
			s.Apply2(cnot, q, (q+1)%a.qubits)
		}
	}
}

func qubitShape(qubits int) []int {
	shape := make([]int, qubits)
	for i := range shape {
		shape[i] = 2
	}
	return shape
}

func digits(basis, qubits int) []int {
	ds := make([]int, qubits)
	for q := 0; q < qubits; q++ {
		ds[q] = (basis >> (qubits - 1 - q)) & 1
	}
	return ds
}

func gate2(m [2][2]complex64) *tensor.Dense {
	t := tensor.Zeros(2, 2)
	for i := range m {
		for j, v := range m[i] {
			if v != 0 {
				t.SetAt([]int{i, j}, v)
			}
		}
	}
	return t
}

func zeros(t *tensor.Dense, shape ...int) *tensor.Dense {
	t.Reset(shape...)
	for ijk, v := range t.All() {
		if v != 0 {
			t.SetAt(ijk, 0)
		}
	}
	return t
}

func resetCopy(dst, src *tensor.Dense) *tensor.Dense {
	shape := src.Shape()
	zeroDigit := make([]int, len(shape))
	dst.Reset(shape...).Set(zeroDigit, src)
	return dst
}
