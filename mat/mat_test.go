package mat

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"testing"
)

func TestKron(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a *COO
		b *COO
		c *COO
	}{
		{
			a: M([][]complex64{
				{1, 2},
				{0, -1i},
			}),
			b: M(PauliX),
			c: M([][]complex64{
				{0, 1, 0, 2},
				{1, 0, 2, 0},
				{0, 0, 0, -1i},
				{0, 0, -1i, 0},
			}),
		},
		{
			a: M([][]complex64{{1}}),
			b: M([][]complex64{
				{1, 2},
				{3, 4},
			}),
			c: M([][]complex64{
				{1, 2},
				{3, 4},
			}),
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s", test.a), func(t *testing.T) {
			t.Parallel()
			test.a.Kron(test.b)
			if !test.a.Equal(test.c) {
				t.Fatalf("\n%s, expected\n%s", test.a, test.c)
			}
		})
	}
}

func TestCNOT(t *testing.T) {
	t.Parallel()
	tests := []struct {
		control int
		target  int
		op      *COO
	}{
		{
			control: 0,
			target:  1,
			op: M([][]complex64{
				{1, 0, 0, 0},
				{0, 1, 0, 0},
				{0, 0, 0, 1},
				{0, 0, 1, 0},
			}),
		},
		{
			control: 1,
			target:  0,
			op: M([][]complex64{
				{1, 0, 0, 0},
				{0, 0, 0, 1},
				{0, 0, 1, 0},
				{0, 1, 0, 0},
			}),
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d %d", test.control, test.target), func(t *testing.T) {
			t.Parallel()
			op := CNOT(2, test.control, test.target)
			if !op.Equal(test.op) {
				t.Fatalf("\n%s, expected\n%s", op, test.op)
			}
		})
	}
}

func TestEmbed1(t *testing.T) {
	t.Parallel()
	tests := []struct {
		q  int
		op *COO
	}{
		{
			// X on the most significant qubit.
			q: 0,
			op: M([][]complex64{
				{0, 0, 1, 0},
				{0, 0, 0, 1},
				{1, 0, 0, 0},
				{0, 1, 0, 0},
			}),
		},
		{
			q: 1,
			op: M([][]complex64{
				{0, 1, 0, 0},
				{1, 0, 0, 0},
				{0, 0, 0, 1},
				{0, 0, 1, 0},
			}),
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%d", test.q), func(t *testing.T) {
			t.Parallel()
			op := Embed1(2, test.q, M(PauliX))
			if !op.Equal(test.op) {
				t.Fatalf("\n%s, expected\n%s", op, test.op)
			}
		})
	}
}

func TestMatMul(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a *COO
		b *COO
		c *COO
	}{
		{
			a: M([][]complex64{
				{1, 2},
				{3, 4},
			}),
			b: M(PauliX),
			c: M([][]complex64{
				{2, 1},
				{4, 3},
			}),
		},
		{
			a: M([][]complex64{
				{1, 0, -1},
				{0, 2i, 0},
			}),
			b: M([][]complex64{
				{1, 1},
				{0, 3},
				{2, 0},
			}),
			c: M([][]complex64{
				{-1, 1},
				{0, 6i},
			}),
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s", test.a), func(t *testing.T) {
			t.Parallel()
			c := test.a.MatMul(test.b)
			if !c.Equal(test.c) {
				t.Fatalf("\n%s, expected\n%s", c, test.c)
			}
		})
	}
}

func TestMatVec(t *testing.T) {
	t.Parallel()
	op := CNOT(2, 0, 1)
	x := []complex64{0, 0, 1, 0}
	y := op.MatVec(x)
	expected := []complex64{0, 0, 0, 1}
	for i, v := range y {
		if v != expected[i] {
			t.Fatalf("%d %v, expected %v", i, y, expected)
		}
	}
}

func TestRotationUnitary(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		gate func(float64) *COO
	}{
		{name: "RY", gate: RYGate},
		{name: "RZ", gate: RZGate},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			const theta = 0.813
			p := test.gate(theta).MatMul(test.gate(-theta))
			if !p.EqualApprox(COOIdentity(2), 1e-5) {
				t.Fatalf("\n%s", p)
			}
		})
	}
}

func TestRYGate(t *testing.T) {
	t.Parallel()
	const theta = math.Pi / 3
	g := RYGate(theta)
	c := complex64(complex(math.Cos(theta/2), 0))
	s := complex64(complex(math.Sin(theta/2), 0))
	expected := M([][]complex64{
		{c, -s},
		{s, c},
	})
	if !g.Equal(expected) {
		t.Fatalf("\n%s, expected\n%s", g, expected)
	}
}

func TestWriteReadCOO(t *testing.T) {
	t.Parallel()
	dir, err := os.MkdirTemp("", "")
	if err != nil {
		t.Fatalf("%+v", err)
	}
	defer os.RemoveAll(dir)

	m := CNOT(3, 0, 2).MatMul(Embed1(3, 1, RZGate(0.25)))
	if err := m.WriteCOO(dir); err != nil {
		t.Fatalf("%+v", err)
	}

	read, err := ReadCOO(dir)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !read.Equal(m) {
		t.Fatalf("\n%s, expected\n%s", read, m)
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}
