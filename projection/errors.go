package projection

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned, wrapped with the offending detail, when a
// projection is asked to work on a malformed matrix or configuration.
// Match it with errors.Is.
var ErrInvalidInput = errors.New("projection: invalid input")

// validateMatrix checks that data is a non-empty matrix of equal-length,
// finite rows and returns its dimensions.
func validateMatrix(data [][]float64) (numberOfRows, numberOfColumns int, err error) {
	numberOfRows = len(data)
	if numberOfRows == 0 {
		return 0, 0, fmt.Errorf("empty matrix: %w", ErrInvalidInput)
	}

	numberOfColumns = len(data[0])
	if numberOfColumns == 0 {
		return 0, 0, fmt.Errorf("row 0 has no columns: %w", ErrInvalidInput)
	}

	for rowIndex, row := range data {
		if len(row) != numberOfColumns {
			return 0, 0, fmt.Errorf("row %d has length %d, expected %d: %w",
				rowIndex, len(row), numberOfColumns, ErrInvalidInput)
		}
		for columnIndex, value := range row {
			if math.IsNaN(value) || math.IsInf(value, 0) {
				return 0, 0, fmt.Errorf("row %d column %d is not finite: %w",
					rowIndex, columnIndex, ErrInvalidInput)
			}
		}
	}

	return numberOfRows, numberOfColumns, nil
}
