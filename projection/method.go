package projection

import (
	"context"
	"fmt"
	"strings"
)

// Method selects a projection algorithm.
type Method string

const (
	MethodPCA  Method = "pca"
	MethodTSNE Method = "tsne"
)

// Methods lists the supported methods in display order.
func Methods() []Method {
	return []Method{MethodPCA, MethodTSNE}
}

// ParseMethod maps a user-supplied name to a Method. Matching ignores case and
// accepts "t-sne" as an alias.
func ParseMethod(name string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "pca", "linear":
		return MethodPCA, nil
	case "tsne", "t-sne", "nonlinear":
		return MethodTSNE, nil
	default:
		return "", fmt.Errorf("unknown projection method %q: %w", name, ErrInvalidInput)
	}
}

// String returns the display name of the method.
func (m Method) String() string {
	switch m {
	case MethodPCA:
		return "PCA"
	case MethodTSNE:
		return "t-SNE"
	default:
		return string(m)
	}
}

// Next returns the method following m, wrapping around.
func (m Method) Next() Method {
	methods := Methods()
	for i, candidate := range methods {
		if candidate == m {
			return methods[(i+1)%len(methods)]
		}
	}
	return methods[0]
}

// Settings bundles the configuration of both methods with the one to run.
type Settings struct {
	Method    Method
	Linear    LinearConfig
	Nonlinear NonlinearConfig
}

// DefaultSettings returns PCA with default parameters for both methods.
func DefaultSettings() Settings {
	return Settings{
		Method:    MethodPCA,
		Linear:    DefaultLinearConfig(),
		Nonlinear: DefaultNonlinearConfig(),
	}
}

// Project runs the method selected in settings. Only t-SNE observes ctx; PCA always
// finishes its bounded iteration count.
func Project(ctx context.Context, data [][]float64, settings Settings) ([]Point2D, error) {
	switch settings.Method {
	case MethodPCA:
		return ProjectLinearWithConfig(data, settings.Linear)
	case MethodTSNE:
		return ProjectNonlinearContext(ctx, data, settings.Nonlinear)
	default:
		return nil, fmt.Errorf("unknown projection method %q: %w", settings.Method, ErrInvalidInput)
	}
}
