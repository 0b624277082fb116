package qmap

import (
	"math"
	"math/rand/v2"
)

// TrainOptions are options for Train.
type TrainOptions struct {
	iterations   int
	learningRate float64
	seed         uint64
}

// NewTrainOptions returns the default training options.
func NewTrainOptions() TrainOptions {
	opt := TrainOptions{}
	opt.iterations = 200
	opt.learningRate = 0.1
	opt.seed = 0
	return opt
}

// Iterations sets the number of optimizer steps.
func (opt TrainOptions) Iterations(i int) TrainOptions {
	opt.iterations = i
	return opt
}

// LearningRate sets the optimizer step size.
func (opt TrainOptions) LearningRate(lr float64) TrainOptions {
	opt.learningRate = lr
	return opt
}

// Seed sets the parameter initialization seed.
func (opt TrainOptions) Seed(s uint64) TrainOptions {
	opt.seed = s
	return opt
}

// TrainResult holds the trained parameters and the cost at every iteration,
// the initial cost included.
type TrainResult struct {
	Params []float64
	Cost   []float64
}

// Train tunes the task parameters with the Adam optimizer,
// starting from angles drawn uniformly from [-pi, pi).
func Train(t *Task, options ...TrainOptions) TrainResult {
	opt := NewTrainOptions()
	if len(options) > 0 {
		opt = options[0]
	}

	rnd := rand.New(rand.NewPCG(opt.seed, 0))
	params := make([]float64, t.Ansatz.NumParams())
	for i := range params {
		params[i] = (rnd.Float64()*2 - 1) * math.Pi
	}

	grad := make([]float64, len(params))
	adm := newAdam(opt.learningRate, len(params))
	res := TrainResult{Cost: make([]float64, 0, opt.iterations+1)}
	res.Cost = append(res.Cost, t.Cost(params))
	for i := 0; i < opt.iterations; i++ {
		t.Gradient(grad, params)
		adm.step(params, grad)
		res.Cost = append(res.Cost, t.Cost(params))
	}

	res.Params = params
	return res
}

// adam implements the update rule in
// Adam: A Method for Stochastic Optimization, Diederik P. Kingma, Jimmy Ba.
type adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64

	t int
	m []float64
	v []float64
}

func newAdam(lr float64, n int) *adam {
	return &adam{
		lr:    lr,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
		m:     make([]float64, n),
		v:     make([]float64, n),
	}
}

func (a *adam) step(params, grad []float64) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for i, g := range grad {
		a.m[i] = a.beta1*a.m[i] + (1-a.beta1)*g
		a.v[i] = a.beta2*a.v[i] + (1-a.beta2)*g*g

		mHat := a.m[i] / c1
		vHat := a.v[i] / c2
		params[i] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
	}
}
