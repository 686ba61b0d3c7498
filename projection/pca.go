// Package projection provides dimensionality reduction for high-dimensional embedding vectors.
//
// # Principal Component Analysis (PCA) Overview
//
// PCA reduces high-dimensional data (like 768-dimensional text embeddings) down to fewer
// dimensions (like 2D for visualization) while preserving as much variance as possible.
// It finds the directions (principal components) along which the data varies the most
// and projects every vector onto them.
//
// # Why We Use Power Iteration
//
// The principal components are the dominant eigenvectors of the covariance matrix X^T * X
// of the centered data X. Instead of decomposing that matrix, we approximate its top
// eigenvector by repeatedly multiplying a random start vector by X^T * X and renormalizing:
//
//   - v ← X^T * (X * v), then v ← v / |v|
//   - after enough iterations v points along the direction of maximum variance
//   - deflation (removing each row's projection onto v) exposes the next direction
//
// The iteration count is fixed, so the cost is bounded and predictable:
// O(iterations × components × vectors × dimensions). Components are approximate; runs with
// different seeds may flip signs or differ slightly when two variances are close, but the
// projected shape of the data is stable.
package projection

import (
	"fmt"
	"math/rand"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/nicolascine/embedding-viz/vecmath"
)

// Point2D represents a single data point projected into 2D space for visualization.
// Index is the row of the input matrix the point came from, so callers can re-join
// the labels and metadata they own.
type Point2D struct {
	X, Y  float64
	Index int
}

// LinearConfig holds the parameters of the power-iteration PCA.
type LinearConfig struct {
	TargetDims int        // Number of components to extract (default: 2)
	Iterations int        // Power iterations per component (default: 100)
	RandomSeed int64      // Seed for the initial direction vectors
	Rand       *rand.Rand // Optional random source; overrides RandomSeed when set
	Logger     logr.Logger
}

// DefaultLinearConfig returns the standard PCA parameters.
func DefaultLinearConfig() LinearConfig {
	return LinearConfig{
		TargetDims: 2,
		Iterations: 100,
		RandomSeed: DefaultRandomSeed,
	}
}

// ProjectLinear reduces the rows of data to 2D points using PCA with the given number
// of extracted components. When targetDims is 1 every Y coordinate is 0.
//
// Parameters:
//   - data: N vectors of equal dimensionality D (N >= 1, D >= 1)
//   - targetDims: number of principal components to extract (>= 1)
//
// Returns:
//   - N points in input order, or an error wrapping ErrInvalidInput
func ProjectLinear(data [][]float64, targetDims int) ([]Point2D, error) {
	config := DefaultLinearConfig()
	config.TargetDims = targetDims
	return ProjectLinearWithConfig(data, config)
}

// ProjectLinearWithConfig allows customizing the PCA parameters and random source.
// The input matrix is only read, never modified.
func ProjectLinearWithConfig(data [][]float64, config LinearConfig) ([]Point2D, error) {
	numberOfVectors, embeddingDimension, err := validateMatrix(data)
	if err != nil {
		return nil, err
	}
	if config.TargetDims < 1 {
		return nil, fmt.Errorf("target dimensions must be at least 1, got %d: %w", config.TargetDims, ErrInvalidInput)
	}
	if config.Iterations < 1 {
		return nil, fmt.Errorf("iterations must be at least 1, got %d: %w", config.Iterations, ErrInvalidInput)
	}

	randomSource := newRandomSource(config.RandomSeed, config.Rand)
	logger := config.Logger.WithName("pca")

	// Step 1: Center the data by subtracting the mean of each dimension
	centeredDataMatrix := centerDataMatrix(data, numberOfVectors, embeddingDimension)

	// Step 2: Extract the principal components one at a time, deflating in between
	residualMatrix := mat.DenseCopyOf(centeredDataMatrix)
	principalComponents := make([][]float64, config.TargetDims)

	for componentIndex := 0; componentIndex < config.TargetDims; componentIndex++ {
		dominantDirection, eigenvalueEstimate := findDominantDirection(residualMatrix, config.Iterations, randomSource)
		principalComponents[componentIndex] = dominantDirection

		logger.V(1).Info("extracted principal component",
			"component", componentIndex,
			"variance", eigenvalueEstimate/float64(numberOfVectors))

		deflateResidualMatrix(residualMatrix, dominantDirection)
	}

	// Step 3: Project the centered data onto the first two components
	return projectOntoPrincipalComponents(centeredDataMatrix, principalComponents), nil
}

// centerDataMatrix copies data into a gonum Dense matrix with zero mean in every column.
//
// Centering matters because PCA measures variance around the mean. Without it the first
// component would point toward the centroid of the data instead of along its spread.
func centerDataMatrix(data [][]float64, numberOfVectors, embeddingDimension int) *mat.Dense {
	columnMeans := vecmath.ColumnMeans(data)
	centeredDataMatrix := mat.NewDense(numberOfVectors, embeddingDimension, nil)

	for rowIndex, vector := range data {
		centeredRow := centeredDataMatrix.RawRowView(rowIndex)
		floats.SubTo(centeredRow, vector, columnMeans)
	}

	return centeredDataMatrix
}

// findDominantDirection runs power iteration on the residual matrix and returns the
// approximate dominant eigenvector of its covariance together with the magnitude of the
// last matrix-vector product (an estimate of the matching eigenvalue).
//
// The start vector has independent components in [-0.5, 0.5). If the residual is zero the
// direction degenerates to the zero vector instead of failing: normalization divides by 1
// when the norm vanishes.
func findDominantDirection(residualMatrix *mat.Dense, iterations int, randomSource *rand.Rand) ([]float64, float64) {
	numberOfVectors, embeddingDimension := residualMatrix.Dims()

	initialDirection := make([]float64, embeddingDimension)
	for dimensionIndex := range initialDirection {
		initialDirection[dimensionIndex] = randomSource.Float64() - 0.5
	}
	vecmath.Normalize(initialDirection)

	direction := mat.NewVecDense(embeddingDimension, initialDirection)
	projectedLengths := mat.NewVecDense(numberOfVectors, nil)
	nextDirection := mat.NewVecDense(embeddingDimension, nil)

	var eigenvalueEstimate float64
	for iteration := 0; iteration < iterations; iteration++ {
		// projected[i] = dot(residual[i], direction)
		projectedLengths.MulVec(residualMatrix, direction)

		// direction[j] = Σ_i residual[i][j] * projected[i]
		nextDirection.MulVec(residualMatrix.T(), projectedLengths)

		eigenvalueEstimate = vecmath.Normalize(nextDirection.RawVector().Data)
		direction.CopyVec(nextDirection)
	}

	return direction.RawVector().Data, eigenvalueEstimate
}

// deflateResidualMatrix removes every row's projection onto direction so that the next
// power iteration converges to a different, approximately orthogonal direction.
func deflateResidualMatrix(residualMatrix *mat.Dense, direction []float64) {
	numberOfVectors, _ := residualMatrix.Dims()

	for rowIndex := 0; rowIndex < numberOfVectors; rowIndex++ {
		residualRow := residualMatrix.RawRowView(rowIndex)
		projectionLength := vecmath.Dot(residualRow, direction)
		floats.AddScaled(residualRow, -projectionLength, direction)
	}
}

// projectOntoPrincipalComponents computes x = dot(row, component0) and y = dot(row, component1)
// for every centered row. Y is 0 when only one component was extracted.
func projectOntoPrincipalComponents(centeredDataMatrix *mat.Dense, principalComponents [][]float64) []Point2D {
	numberOfVectors, _ := centeredDataMatrix.Dims()
	points := make([]Point2D, numberOfVectors)

	for rowIndex := 0; rowIndex < numberOfVectors; rowIndex++ {
		centeredRow := centeredDataMatrix.RawRowView(rowIndex)

		xCoordinate := vecmath.Dot(centeredRow, principalComponents[0])
		yCoordinate := 0.0
		if len(principalComponents) > 1 {
			yCoordinate = vecmath.Dot(centeredRow, principalComponents[1])
		}

		points[rowIndex] = Point2D{
			X:     xCoordinate,
			Y:     yCoordinate,
			Index: rowIndex,
		}
	}

	return points
}
