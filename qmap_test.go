package qmap

import (
	"flag"
	"log"
	"math"
	"math/cmplx"
	"testing"

	"qmap/circuit"
)

func TestReverseBits(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in  int
		out int
	}{
		{in: 0b0000, out: 0b0000},
		{in: 0b0001, out: 0b1000},
		{in: 0b0011, out: 0b1100},
		{in: 0b0101, out: 0b1010},
		{in: 0b1111, out: 0b1111},
	}
	for _, test := range tests {
		if out := ReverseBits(test.in); out != test.out {
			t.Fatalf("%04b %04b, expected %04b", test.in, out, test.out)
		}
	}
}

func TestTrainingPairs(t *testing.T) {
	t.Parallel()
	pairs := TrainingPairs()
	expected := []Pair{
		{Input: 0b0001, Target: 0b1000},
		{Input: 0b0010, Target: 0b0100},
		{Input: 0b0100, Target: 0b0010},
		{Input: 0b1000, Target: 0b0001},
	}
	if len(pairs) != len(expected) {
		t.Fatalf("%#v", pairs)
	}
	for i, p := range pairs {
		if p != expected[i] {
			t.Fatalf("%d %#v, expected %#v", i, p, expected[i])
		}
	}

	holdout := HoldoutPair()
	for _, p := range pairs {
		if p.Input == holdout.Input {
			t.Fatalf("%#v", holdout)
		}
	}
	if holdout.Target != ReverseBits(holdout.Input) {
		t.Fatalf("%#v", holdout)
	}
}

func TestCostZeroAngles(t *testing.T) {
	t.Parallel()
	// With all angles zero the circuit is the bare CNOT ring,
	// which maps every one-hot input away from its target.
	task := NewTask(1)
	params := make([]float64, task.Ansatz.NumParams())
	if cost := task.Cost(params); math.Abs(cost-1) > 1e-6 {
		t.Fatalf("%f", cost)
	}
}

func TestCostBounds(t *testing.T) {
	t.Parallel()
	task := NewTask(3)
	params := make([]float64, task.Ansatz.NumParams())
	for i := range params {
		params[i] = 0.7*float64(i%11) - 2.1
	}
	cost := task.Cost(params)
	if cost < -1e-6 || cost > 1+1e-6 {
		t.Fatalf("%f", cost)
	}
}

func TestGradientFiniteDifference(t *testing.T) {
	t.Parallel()
	task := NewTask(2)
	params := make([]float64, task.Ansatz.NumParams())
	for i := range params {
		params[i] = 0.3*float64(i%5) - 0.7
	}

	grad := make([]float64, len(params))
	task.Gradient(grad, params)

	const h = 1e-2
	for k := range params {
		orig := params[k]
		params[k] = orig + h
		plus := task.Cost(params)
		params[k] = orig - h
		minus := task.Cost(params)
		params[k] = orig

		fd := (plus - minus) / (2 * h)
		if math.Abs(grad[k]-fd) > 1e-2 {
			t.Fatalf("%d %f %f", k, grad[k], fd)
		}
	}
}

func TestUnitaryMatchesSimulator(t *testing.T) {
	t.Parallel()
	task := NewTask(2)
	params := make([]float64, task.Ansatz.NumParams())
	for i := range params {
		params[i] = 0.5*float64(i%3) - 0.4
	}
	u := Unitary(task.Ansatz, params)

	sim := circuit.NewSimulator(NumQubits)
	for basis := 0; basis < 1<<NumQubits; basis++ {
		sim.Prepare(basis)
		task.Ansatz.Run(sim, params)
		amps := sim.Amplitudes()

		x := make([]complex64, 1<<NumQubits)
		x[basis] = 1
		y := u.MatVec(x)

		for b := range amps {
			if cmplx.Abs(complex128(amps[b]-y[b])) > 1e-4 {
				t.Fatalf("%d %d %v %v", basis, b, amps[b], y[b])
			}
		}
	}
}

func TestTrainDeterministic(t *testing.T) {
	t.Parallel()
	opt := NewTrainOptions().Iterations(10).Seed(3)
	res1 := Train(NewTask(2), opt)
	res2 := Train(NewTask(2), opt)

	if len(res1.Cost) != 11 {
		t.Fatalf("%d", len(res1.Cost))
	}
	for i := range res1.Params {
		if res1.Params[i] != res2.Params[i] {
			t.Fatalf("%d %f %f", i, res1.Params[i], res2.Params[i])
		}
	}
	for i := range res1.Cost {
		if res1.Cost[i] != res2.Cost[i] {
			t.Fatalf("%d %f %f", i, res1.Cost[i], res2.Cost[i])
		}
	}
}

func TestTrainImproves(t *testing.T) {
	t.Parallel()
	task := NewTask(4)
	res := Train(task, NewTrainOptions().Iterations(100).Seed(0))

	best := res.Cost[0]
	for _, c := range res.Cost {
		best = min(best, c)
	}
	if !(best < res.Cost[0]) {
		t.Fatalf("%f %f", best, res.Cost[0])
	}

	stats, err := GetStatistics(task, res.Params)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if len(stats.Fidelities) != len(task.Pairs) {
		t.Fatalf("%#v", stats)
	}
	for i, f := range stats.Fidelities {
		if f < -1e-6 || f > 1+1e-6 {
			t.Fatalf("%d %f", i, f)
		}
	}
	if stats.Holdout < -1e-6 || stats.Holdout > 1+1e-6 {
		t.Fatalf("%f", stats.Holdout)
	}
	if math.Abs(stats.FinalCost-res.Cost[len(res.Cost)-1]) > 1e-6 {
		t.Fatalf("%f %f", stats.FinalCost, res.Cost[len(res.Cost)-1])
	}
}

func TestTrainConverges(t *testing.T) {
	t.Parallel()
	if testing.Short() {
		t.Skip()
	}
	task := NewTask(6)
	res := Train(task, NewTrainOptions().Iterations(200).Seed(0))

	best := res.Cost[0]
	for _, c := range res.Cost {
		best = min(best, c)
	}
	if best > 0.5 {
		t.Fatalf("%f %f", res.Cost[0], best)
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}
