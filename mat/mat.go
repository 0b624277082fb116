// Package mat implements complex sparse matrices in coordinate format,
// together with the quantum gate operators used by the basis mapping task.
package mat

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	FnameShape = "shape.csv"
	FnameCOO   = "coo.csv"
)

var (
	PauliX = [][]complex64{
		{0, 1},
		{1, 0},
	}
	PauliY = [][]complex64{
		{0, -1i},
		{1i, 0},
	}
	PauliZ = [][]complex64{
		{1, 0},
		{0, -1},
	}
	Hadamard = [][]complex64{
		{complex64(complex(1/math.Sqrt2, 0)), complex64(complex(1/math.Sqrt2, 0))},
		{complex64(complex(1/math.Sqrt2, 0)), complex64(complex(-1/math.Sqrt2, 0))},
	}

	identity = COOIdentity(2)
	proj0    = M([][]complex64{
		{1, 0},
		{0, 0},
	})
	proj1 = M([][]complex64{
		{0, 0},
		{0, 1},
	})
)

type vRowCol struct {
	v   complex64
	row int
	col int
}

type COO struct {
	rows int
	cols int
	Data []vRowCol

	m map[[2]int]complex64
}

func M(dense [][]complex64) *COO {
	m := &COO{rows: len(dense), cols: len(dense[0]), Data: make([]vRowCol, 0), m: make(map[[2]int]complex64)}
	for i, row := range dense {
		for j, v := range row {
			if v == 0 {
				continue
			}
			m.Data = append(m.Data, vRowCol{v: v, row: i, col: j})
		}
	}
	return m
}

func COOZeros(rows, cols int) *COO {
	m := M([][]complex64{{0}})
	m.rows, m.cols = rows, cols
	return m
}

func COOIdentity(rows int) *COO {
	m := COOZeros(rows, rows)
	for i := 0; i < rows; i++ {
		m.Data = append(m.Data, vRowCol{v: 1, row: i, col: i})
	}
	return m
}

// RYGate returns the rotation around the Y axis by theta.
func RYGate(theta float64) *COO {
	c := complex64(complex(math.Cos(theta/2), 0))
	s := complex64(complex(math.Sin(theta/2), 0))
	return M([][]complex64{
		{c, -s},
		{s, c},
	})
}

// RZGate returns the rotation around the Z axis by theta.
func RZGate(theta float64) *COO {
	e := cmplx.Exp(complex(0, theta/2))
	return M([][]complex64{
		{complex64(cmplx.Conj(e)), 0},
		{0, complex64(e)},
	})
}

func (m *COO) Rows() int { return m.rows }
func (m *COO) Cols() int { return m.cols }

func (a *COO) Equal(b *COO) bool {
	if a.rows != b.rows {
		return false
	}
	if a.cols != b.cols {
		return false
	}
	if len(a.Data) != len(b.Data) {
		return false
	}
	for i, av := range a.Data {
		if av != b.Data[i] {
			return false
		}
	}
	return true
}

// EqualApprox reports whether a and b differ by at most tol in every entry.
func (a *COO) EqualApprox(b *COO, tol float64) bool {
	if a.rows != b.rows || a.cols != b.cols {
		return false
	}
	diff := a.clone()
	diff.Add(-1, b)
	for _, v := range diff.Data {
		if cmplx.Abs(complex128(v.v)) > tol {
			return false
		}
	}
	return true
}

func (m *COO) clone() *COO {
	c := COOZeros(m.rows, m.cols)
	c.Data = append(c.Data, m.Data...)
	return c
}

func (a *COO) Add(c complex64, b *COO) {
	if a.rows != b.rows || a.cols != b.cols {
		panic(fmt.Sprintf("%d %d %d %d", a.rows, a.cols, b.rows, b.cols))
	}
	clear(b.m)
	for _, v := range b.Data {
		b.m[[2]int{v.row, v.col}] = v.v
	}

	for i, av := range a.Data {
		yx := [2]int{av.row, av.col}
		bv := b.m[yx]
		delete(b.m, yx)

		a.Data[i].v = av.v + c*bv
	}

	a.Data = slices.DeleteFunc(a.Data, func(v vRowCol) bool {
		return v.v == 0
	})
	for yx, bv := range b.m {
		a.Data = append(a.Data, vRowCol{v: c * bv, row: yx[0], col: yx[1]})
	}
	slices.SortFunc(a.Data, rowMajor)
	clear(b.m)
}

func (a *COO) Kron(b *COO) {
	rows := a.rows * b.rows
	cols := a.cols * b.cols
	a.rows, a.cols = rows, cols

	prevElemNum := len(a.Data)
	for i := prevElemNum - 1; i >= 0; i-- {
		av := a.Data[i]
		a.Data[i].v = 0
		for _, bv := range b.Data {
			ky := av.row*b.rows + bv.row
			kx := av.col*b.cols + bv.col
			a.Data = append(a.Data, vRowCol{v: av.v * bv.v, row: ky, col: kx})
		}
	}

	a.Data = slices.DeleteFunc(a.Data, func(v vRowCol) bool {
		return v.v == 0
	})
	slices.SortFunc(a.Data, rowMajor)
}

// MatMul returns the matrix product a@b.
func (a *COO) MatMul(b *COO) *COO {
	if a.cols != b.rows {
		panic(fmt.Sprintf("%d %d", a.cols, b.rows))
	}
	byRow := make(map[int][]vRowCol, b.rows)
	for _, bv := range b.Data {
		byRow[bv.row] = append(byRow[bv.row], bv)
	}

	acc := make(map[[2]int]complex64)
	for _, av := range a.Data {
		for _, bv := range byRow[av.col] {
			acc[[2]int{av.row, bv.col}] += av.v * bv.v
		}
	}

	c := COOZeros(a.rows, b.cols)
	for yx, v := range acc {
		if v == 0 {
			continue
		}
		c.Data = append(c.Data, vRowCol{v: v, row: yx[0], col: yx[1]})
	}
	slices.SortFunc(c.Data, rowMajor)
	return c
}

// MatVec returns the matrix vector product a@x.
func (a *COO) MatVec(x []complex64) []complex64 {
	if a.cols != len(x) {
		panic(fmt.Sprintf("%d %d", a.cols, len(x)))
	}
	y := make([]complex64, a.rows)
	for _, av := range a.Data {
		y[av.row] += av.v * x[av.col]
	}
	return y
}

// Embed1 embeds the single qubit gate g acting on qubit q into the full
// operator of an n qubit register. Qubit 0 is the most significant bit.
func Embed1(n, q int, g *COO) *COO {
	op := COOIdentity(1)
	for i := 0; i < n; i++ {
		switch i {
		case q:
			op.Kron(g)
		default:
			op.Kron(identity)
		}
	}
	return op
}

// CNOT returns the full controlled-NOT operator of an n qubit register,
// built from the projector decomposition P0(c)*I + P1(c)*X(t).
func CNOT(n, control, target int) *COO {
	if control == target {
		panic(fmt.Sprintf("%d %d", control, target))
	}
	keep := COOIdentity(1)
	flip := COOIdentity(1)
	for i := 0; i < n; i++ {
		switch i {
		case control:
			keep.Kron(proj0)
			flip.Kron(proj1)
		case target:
			keep.Kron(identity)
			flip.Kron(M(PauliX))
		default:
			keep.Kron(identity)
			flip.Kron(identity)
		}
	}
	keep.Add(1, flip)
	return keep
}

func (m *COO) Dense() [][]complex64 {
	dense := make([][]complex64, m.rows)
	for i := range dense {
		dense[i] = make([]complex64, m.cols)
	}

	for _, v := range m.Data {
		dense[v.row][v.col] = v.v
	}

	return dense
}

func (m *COO) WriteCOO(dir string) error {
	shapePath := filepath.Join(dir, FnameShape)
	if err := os.WriteFile(shapePath, []byte(fmt.Sprintf("%d,%d", m.rows, m.cols)), 0644); err != nil {
		return errors.Wrap(err, "")
	}

	cooPath := filepath.Join(dir, FnameCOO)
	cooF, err := os.Create(cooPath)
	if err != nil {
		return errors.Wrap(err, "")
	}

	w := csv.NewWriter(cooF)
	for _, v := range m.Data {
		if err1 := w.Write([]string{FormatNumpy(v.v), strconv.Itoa(v.row), strconv.Itoa(v.col)}); err1 != nil && err == nil {
			err = errors.Wrap(err1, "")
			break
		}
	}
	w.Flush()
	if err1 := w.Error(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}

	if err1 := cooF.Close(); err1 != nil && err == nil {
		err = errors.Wrap(err1, "")
	}
	return err
}

func ReadCOO(dir string) (*COO, error) {
	m := M([][]complex64{{0}})
	var err error
	m.rows, m.cols, err = readShape(dir)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}

	f, err := os.Open(filepath.Join(dir, FnameCOO))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer f.Close()
	r := csv.NewReader(f)
	rowI := -1
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%d", rowI))
		}
		rowI++
		if len(record) != 3 {
			return nil, errors.Errorf("%d %#v", rowI, record)
		}

		var vrc vRowCol
		s := strings.ReplaceAll(record[0], "j", "i")
		v, err := strconv.ParseComplex(s, 128)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%d %#v", rowI, record))
		}
		vrc.v = complex64(v)
		vrc.row, err = strconv.Atoi(record[1])
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%d %#v", rowI, record))
		}
		vrc.col, err = strconv.Atoi(record[2])
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%d %#v", rowI, record))
		}

		m.Data = append(m.Data, vrc)
	}

	return m, nil
}

func readShape(dir string) (int, int, error) {
	f, err := os.Open(filepath.Join(dir, FnameShape))
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return -1, -1, errors.Wrap(err, "")
	}
	if len(records) == 0 {
		return -1, -1, errors.Errorf("empty")
	}
	row := records[0]

	if len(row) != 2 {
		return -1, -1, errors.Errorf("%#v", row)
	}
	i, err := strconv.Atoi(row[0])
	if err != nil {
		return -1, -1, errors.Wrap(err, fmt.Sprintf("%#v", row))
	}
	j, err := strconv.Atoi(row[1])
	if err != nil {
		return -1, -1, errors.Wrap(err, fmt.Sprintf("%#v", row))
	}

	return i, j, nil
}

func (m *COO) String() string {
	clear(m.m)
	for _, v := range m.Data {
		m.m[[2]int{v.row, v.col}] = v.v
	}

	lines := []string{}
	for i := 0; i < m.rows; i++ {
		cs := []string{}
		for j := 0; j < m.cols; j++ {
			v := m.m[[2]int{i, j}]
			switch {
			case imag(v) == 0:
				cs = append(cs, format(real(v)))
			case real(v) == 0:
				cs = append(cs, format(imag(v))+"i")
			default:
				cs = append(cs, format(real(v))+"+"+format(imag(v))+"i")
			}
		}
		l := strings.Join(cs, "\t")
		lines = append(lines, l)
	}

	clear(m.m)
	return strings.Join(lines, "\n")
}

func rowMajor(a, b vRowCol) int {
	if c := cmp.Compare(a.row, b.row); c != 0 {
		return c
	}
	return cmp.Compare(a.col, b.col)
}

func format(v float32) string {
	// If v is 0 or -0, return "0" immediately to avoid returning "-0".
	if v == 0 {
		return " 0"
	}

	s := fmt.Sprintf("%v", v)

	// Add a space before non-negative numbers to align with other negative numbers in the same column.
	if v >= 0 {
		s = " " + s
	}

	return s
}

func FormatNumpy(v complex64) string {
	switch {
	case imag(v) == 0:
		return strconv.FormatFloat(float64(real(v)), 'g', -1, 32)
	default:
		s := fmt.Sprintf("%v", v)
		s = strings.ReplaceAll(s, "i", "j")
		return s
	}
}
