// Package projection provides dimensionality reduction for high-dimensional embedding vectors.
//
// # t-SNE (t-distributed Stochastic Neighbor Embedding) Overview
//
// t-SNE is a nonlinear technique that keeps points which are neighbors in the
// original space close together in 2D. It works by:
//
//  1. Turning pairwise distances into neighbor probabilities P, with a per-point
//     Gaussian bandwidth chosen so every point sees about `perplexity` neighbors
//  2. Placing the points randomly near the origin in 2D
//  3. Moving them by gradient descent until the heavy-tailed Student-t similarities Q
//     of the 2D layout match P (minimizing the KL divergence KL(P||Q))
//
// This is the exact O(n²) formulation. It is intended for a few thousand points at most.
//
// Reference: van der Maaten, L., & Hinton, G. (2008). Visualizing Data using t-SNE.
// Journal of Machine Learning Research, 9, 2579-2605.
package projection

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/mat"

	"github.com/nicolascine/embedding-viz/vecmath"
)

// Optimization constants.
const (
	bandwidthSearchSteps = 50
	bandwidthLowerBound  = 0.01
	bandwidthUpperBound  = 100.0

	initialJitter      = 0.01
	momentumSwitchIter = 250
	initialMomentum    = 0.5
	finalMomentum      = 0.8
	gainDecay          = 0.8
	gainGrowth         = 0.2
	minGain            = 0.01

	// ProgressInterval is the number of iterations between progress reports.
	ProgressInterval = 50

	probabilityFloor = 1e-10
)

// ProgressFunc receives the iteration index and the current KL divergence.
// It runs synchronously on the optimizing goroutine and must not start another projection.
type ProgressFunc func(iteration int, cost float64)

// NonlinearConfig holds hyperparameters for t-SNE.
type NonlinearConfig struct {
	Perplexity   float64      // Effective number of neighbors (default: 30)
	LearningRate float64      // Gradient descent step size (default: 200)
	Iterations   int          // Number of optimization steps (default: 500)
	Progress     ProgressFunc // Optional, called every ProgressInterval iterations
	RandomSeed   int64        // Random seed for reproducibility
	Rand         *rand.Rand   // Optional random source; overrides RandomSeed when set
	Logger       logr.Logger
}

// DefaultNonlinearConfig returns sensible default hyperparameters.
func DefaultNonlinearConfig() NonlinearConfig {
	return NonlinearConfig{
		Perplexity:   30,
		LearningRate: 200,
		Iterations:   500,
		RandomSeed:   DefaultRandomSeed,
	}
}

func (c NonlinearConfig) validate() error {
	if !(c.Perplexity > 0) {
		return fmt.Errorf("perplexity must be positive, got %v: %w", c.Perplexity, ErrInvalidInput)
	}
	if !(c.LearningRate > 0) {
		return fmt.Errorf("learning rate must be positive, got %v: %w", c.LearningRate, ErrInvalidInput)
	}
	if c.Iterations < 0 {
		return fmt.Errorf("iterations must not be negative, got %d: %w", c.Iterations, ErrInvalidInput)
	}
	return nil
}

// tsneState is the mutable working set of one optimization run. It is owned by a
// single call and discarded when the call returns.
type tsneState struct {
	embedding  [][2]float64
	gains      [][2]float64
	velocities [][2]float64
}

// ProjectNonlinear reduces the rows of data to 2D points using t-SNE.
func ProjectNonlinear(data [][]float64, config NonlinearConfig) ([]Point2D, error) {
	return ProjectNonlinearContext(context.Background(), data, config)
}

// ProjectNonlinearContext is ProjectNonlinear with cooperative cancellation: ctx is
// checked between iterations and its error is returned once it is done.
//
// Fewer than three points carry no neighbor structure, so they are placed at random
// in [0,1)×[0,1) without any optimization.
func ProjectNonlinearContext(ctx context.Context, data [][]float64, config NonlinearConfig) ([]Point2D, error) {
	n, _, err := validateMatrix(data)
	if err != nil {
		return nil, err
	}
	if err := config.validate(); err != nil {
		return nil, err
	}

	rng := newRandomSource(config.RandomSeed, config.Rand)
	logger := config.Logger.WithName("tsne")

	if n < 3 {
		logger.V(1).Info("too few points for t-SNE, using random layout", "points", n)
		return randomLayout(n, rng), nil
	}

	// Clamp perplexity so the bandwidth search stays well-posed for small datasets
	perplexity := math.Min(config.Perplexity, math.Floor(float64(n)/3))
	logger.V(1).Info("starting t-SNE",
		"points", n,
		"perplexity", perplexity,
		"learningRate", config.LearningRate,
		"iterations", config.Iterations)

	// Step 1: Neighbor probabilities in the original space
	dist := pairwiseSquaredDistances(data)
	p := jointProbabilities(dist, perplexity)

	// Step 2: Random initial layout near the origin
	state := newTSNEState(n, rng)

	// Step 3: Gradient descent with momentum and adaptive gains
	q := mat.NewSymDense(n, nil)
	kernel := mat.NewSymDense(n, nil)
	grad := make([][2]float64, n)

	for iter := 0; iter < config.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("projection: t-SNE stopped at iteration %d: %w", iter, err)
		}

		computeLowDimAffinities(state.embedding, kernel, q)
		computeGradient(p, q, kernel, state.embedding, grad)

		momentum := initialMomentum
		if iter >= momentumSwitchIter {
			momentum = finalMomentum
		}
		state.step(grad, momentum, config.LearningRate)
		state.center()

		if config.Progress != nil && iter%ProgressInterval == 0 {
			cost := klDivergence(p, q)
			logger.V(1).Info("t-SNE progress", "iteration", iter, "cost", cost)
			config.Progress(iter, cost)
		}
	}

	return state.points(), nil
}

// randomLayout places n points uniformly in [0,1)×[0,1).
func randomLayout(n int, rng *rand.Rand) []Point2D {
	points := make([]Point2D, n)
	for i := range points {
		points[i] = Point2D{X: rng.Float64(), Y: rng.Float64(), Index: i}
	}
	return points
}

// pairwiseSquaredDistances computes the full symmetric matrix of squared Euclidean
// distances between all rows.
func pairwiseSquaredDistances(data [][]float64) *mat.SymDense {
	n := len(data)
	dist := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist.SetSym(i, j, vecmath.SquaredDistance(data[i], data[j]))
		}
	}
	return dist
}

// jointProbabilities builds the symmetric affinity matrix P.
//
// For every point a bandwidth sigma is found by binary search so that the
// perplexity 2^H of its conditional neighbor distribution matches the target.
// The conditional rows are then symmetrized: P[i][j] = (p(j|i) + p(i|j)) / 2n.
// The diagonal stays zero.
func jointProbabilities(dist *mat.SymDense, perplexity float64) *mat.SymDense {
	n := dist.SymmetricDim()
	conditional := mat.NewDense(n, n, nil)
	target := math.Log2(perplexity)

	for i := 0; i < n; i++ {
		row := conditional.RawRowView(i)
		lo, hi := bandwidthLowerBound, bandwidthUpperBound

		for step := 0; step < bandwidthSearchSteps; step++ {
			sigma := (lo + hi) / 2
			entropy := conditionalRow(dist, i, sigma, row)

			if entropy > target {
				hi = sigma // Too many effective neighbors, tighten the kernel
			} else {
				lo = sigma
			}
		}
	}

	p := mat.NewSymDense(n, nil)
	scale := 2 * float64(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			p.SetSym(i, j, (conditional.At(i, j)+conditional.At(j, i))/scale)
		}
	}
	return p
}

// conditionalRow fills row with the normalized Gaussian similarities of point i for the
// given bandwidth and returns their Shannon entropy in bits. row[i] is left at zero.
//
// Distances are shifted by the nearest neighbor's distance before exponentiating.
// The shift cancels in the normalization, and the nearest neighbor contributes
// exp(0) = 1, so the row never underflows to all zeros and always sums to 1.
func conditionalRow(dist *mat.SymDense, i int, sigma float64, row []float64) float64 {
	denom := 2 * sigma * sigma

	nearest := math.Inf(1)
	for j := range row {
		if j != i {
			nearest = math.Min(nearest, dist.At(i, j))
		}
	}

	var sum float64
	for j := range row {
		if j == i {
			row[j] = 0
			continue
		}
		row[j] = math.Exp(-(dist.At(i, j) - nearest) / denom)
		sum += row[j]
	}
	if sum == 0 {
		// Only reachable for a single point, where the row has no neighbors.
		sum = 1
	}

	var h float64
	for j := range row {
		if j == i {
			continue
		}
		row[j] /= sum
		if row[j] > probabilityFloor {
			h -= row[j] * math.Log2(row[j])
		}
	}
	return h
}

func newTSNEState(n int, rng *rand.Rand) *tsneState {
	s := &tsneState{
		embedding:  make([][2]float64, n),
		gains:      make([][2]float64, n),
		velocities: make([][2]float64, n),
	}
	for i := 0; i < n; i++ {
		s.embedding[i] = [2]float64{
			(rng.Float64() - 0.5) * initialJitter,
			(rng.Float64() - 0.5) * initialJitter,
		}
		s.gains[i] = [2]float64{1, 1}
	}
	return s
}

// computeLowDimAffinities fills kernel with the Student-t similarities 1/(1+|yi-yj|²)
// and q with the same values normalized over all ordered pairs.
func computeLowDimAffinities(y [][2]float64, kernel, q *mat.SymDense) {
	n := len(y)
	var sum float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := y[i][0] - y[j][0]
			dy := y[i][1] - y[j][1]
			k := 1 / (1 + dx*dx + dy*dy)
			kernel.SetSym(i, j, k)
			sum += 2 * k
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			q.SetSym(i, j, kernel.At(i, j)/sum)
		}
	}
}

// computeGradient writes dKL/dy_i = 4 Σ_j (p_ij - q_ij)(1+|yi-yj|²)^-1 (yi - yj) into grad.
func computeGradient(p, q, kernel *mat.SymDense, y [][2]float64, grad [][2]float64) {
	n := len(y)
	for i := 0; i < n; i++ {
		grad[i] = [2]float64{}
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			mult := 4 * (p.At(i, j) - q.At(i, j)) * kernel.At(i, j)
			grad[i][0] += mult * (y[i][0] - y[j][0])
			grad[i][1] += mult * (y[i][1] - y[j][1])
		}
	}
}

// step applies one momentum update with per-coordinate adaptive gains.
// A gain shrinks while the gradient keeps the sign of the previous velocity and grows
// when it flips, never dropping below minGain.
func (s *tsneState) step(grad [][2]float64, momentum, learningRate float64) {
	for i := range s.embedding {
		for d := 0; d < 2; d++ {
			sameSign := (grad[i][d] > 0) == (s.velocities[i][d] > 0)
			if sameSign {
				s.gains[i][d] *= gainDecay
			} else {
				s.gains[i][d] += gainGrowth
			}
			s.gains[i][d] = math.Max(s.gains[i][d], minGain)

			s.velocities[i][d] = momentum*s.velocities[i][d] - learningRate*s.gains[i][d]*grad[i][d]
			s.embedding[i][d] += s.velocities[i][d]
		}
	}
}

// center subtracts the mean coordinate from every point.
func (s *tsneState) center() {
	n := float64(len(s.embedding))
	var mean [2]float64
	for _, y := range s.embedding {
		mean[0] += y[0] / n
		mean[1] += y[1] / n
	}
	for i := range s.embedding {
		s.embedding[i][0] -= mean[0]
		s.embedding[i][1] -= mean[1]
	}
}

func (s *tsneState) points() []Point2D {
	points := make([]Point2D, len(s.embedding))
	for i, y := range s.embedding {
		points[i] = Point2D{X: y[0], Y: y[1], Index: i}
	}
	return points
}

// klDivergence returns Σ p log(p/q) over the pairs where both probabilities exceed 1e-10.
func klDivergence(p, q *mat.SymDense) float64 {
	n := p.SymmetricDim()
	var kl float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pij, qij := p.At(i, j), q.At(i, j)
			if pij > probabilityFloor && qij > probabilityFloor {
				kl += pij * math.Log(pij/qij)
			}
		}
	}
	return kl
}
