package forecast

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

// network is one linear head per forecast step over the shared feature
// vector. Raw outputs are pre-activation; the loss decides the output
// mapping.
type network struct {
	// weights is nSteps x nFeatures, bias has one entry per step.
	weights *mat.Dense
	bias    []float64

	nSteps    int
	nFeatures int
}

func newNetwork(nSteps, nFeatures int, rng *rand.Rand) *network {
	w := make([]float64, nSteps*nFeatures)
	scale := 1 / math.Sqrt(float64(nFeatures))
	for i := range w {
		w[i] = rng.NormFloat64() * scale * 0.1
	}
	return &network{
		weights:   mat.NewDense(nSteps, nFeatures, w),
		bias:      make([]float64, nSteps),
		nSteps:    nSteps,
		nFeatures: nFeatures,
	}
}

// forward computes raw outputs for every row of X: rows x nSteps.
func (n *network) forward(X mat.Matrix) *mat.Dense {
	rows, _ := X.Dims()
	out := mat.NewDense(rows, n.nSteps, nil)
	out.Mul(X, n.weights.T())
	for i := 0; i < rows; i++ {
		for j := 0; j < n.nSteps; j++ {
			out.Set(i, j, out.At(i, j)+n.bias[j])
		}
	}
	return out
}

// batchGrad accumulates mean gradients over the batch rows and returns the
// mean training loss together with the flattened activated predictions and
// their targets, for metric updates. Rows whose step target is NaN
// contribute nothing to that step.
func (n *network) batchGrad(X, Y *mat.Dense, rows []int, loss Loss) (dW *mat.Dense, dB []float64, batchLoss float64, preds, targets []float64) {
	dW = mat.NewDense(n.nSteps, n.nFeatures, nil)
	dB = make([]float64, n.nSteps)
	counts := make([]float64, n.nSteps)
	preds = make([]float64, 0, len(rows)*n.nSteps)
	targets = make([]float64, 0, len(rows)*n.nSteps)

	for _, r := range rows {
		x := X.RawRowView(r)
		for j := 0; j < n.nSteps; j++ {
			target := Y.At(r, j)
			if math.IsNaN(target) {
				continue
			}
			z := n.bias[j]
			wRow := n.weights.RawRowView(j)
			for k, xv := range x {
				z += wRow[k] * xv
			}
			g := loss.OutputGrad(z, target)
			dRow := dW.RawRowView(j)
			for k, xv := range x {
				dRow[k] += g * xv
			}
			dB[j] += g
			counts[j]++

			preds = append(preds, loss.Activate(z))
			targets = append(targets, target)
		}
	}

	for j := 0; j < n.nSteps; j++ {
		if counts[j] == 0 {
			continue
		}
		dRow := dW.RawRowView(j)
		for k := range dRow {
			dRow[k] /= counts[j]
		}
		dB[j] /= counts[j]
	}
	if len(preds) > 0 {
		batchLoss = loss.Value(preds, targets)
	}
	return dW, dB, batchLoss, preds, targets
}

// optimizer applies one parameter update from accumulated gradients.
type optimizer interface {
	step(n *network, dW *mat.Dense, dB []float64)
}

// sgd is plain stochastic gradient descent with L2 regularization folded
// into the gradient.
type sgd struct {
	lr float64
	l2 float64
}

func newSGD(lr, l2 float64) *sgd { return &sgd{lr: lr, l2: l2} }

func (o *sgd) step(n *network, dW *mat.Dense, dB []float64) {
	for j := 0; j < n.nSteps; j++ {
		wRow := n.weights.RawRowView(j)
		dRow := dW.RawRowView(j)
		for k := range wRow {
			wRow[k] -= o.lr * (dRow[k] + o.l2*wRow[k])
		}
		n.bias[j] -= o.lr * dB[j]
	}
}

// adamW implements AdamW: Adam moment estimates with decoupled weight
// decay.
type adamW struct {
	lr    float64
	decay float64
	beta1 float64
	beta2 float64
	eps   float64

	t  int
	mW *mat.Dense
	vW *mat.Dense
	mB []float64
	vB []float64
}

func newAdamW(lr, decay float64, nSteps, nFeatures int) *adamW {
	return &adamW{
		lr:    lr,
		decay: decay,
		beta1: 0.9,
		beta2: 0.999,
		eps:   1e-8,
		mW:    mat.NewDense(nSteps, nFeatures, nil),
		vW:    mat.NewDense(nSteps, nFeatures, nil),
		mB:    make([]float64, nSteps),
		vB:    make([]float64, nSteps),
	}
}

func (o *adamW) step(n *network, dW *mat.Dense, dB []float64) {
	o.t++
	c1 := 1 - math.Pow(o.beta1, float64(o.t))
	c2 := 1 - math.Pow(o.beta2, float64(o.t))

	for j := 0; j < n.nSteps; j++ {
		wRow := n.weights.RawRowView(j)
		dRow := dW.RawRowView(j)
		mRow := o.mW.RawRowView(j)
		vRow := o.vW.RawRowView(j)
		for k := range wRow {
			g := dRow[k]
			mRow[k] = o.beta1*mRow[k] + (1-o.beta1)*g
			vRow[k] = o.beta2*vRow[k] + (1-o.beta2)*g*g
			mHat := mRow[k] / c1
			vHat := vRow[k] / c2
			wRow[k] -= o.lr * (mHat/(math.Sqrt(vHat)+o.eps) + o.decay*wRow[k])
		}

		g := dB[j]
		o.mB[j] = o.beta1*o.mB[j] + (1-o.beta1)*g
		o.vB[j] = o.beta2*o.vB[j] + (1-o.beta2)*g*g
		n.bias[j] -= o.lr * (o.mB[j] / c1) / (math.Sqrt(o.vB[j]/c2) + o.eps)
	}
}

func newOptimizer(name string, lr, l2 float64, nSteps, nFeatures int) optimizer {
	if name == "sgd" {
		return newSGD(lr, l2)
	}
	return newAdamW(lr, l2, nSteps, nFeatures)
}
