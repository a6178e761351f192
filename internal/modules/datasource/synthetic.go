package datasource

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"madfolio/internal/modules/statistics"
)

// AssetProfile describes one synthetic asset. Mean and Vol are stated as
// monthly gross return ratios (1.0 = flat).
type AssetProfile struct {
	Name  string
	Mean  float64
	Vol   float64
	Class string // bond, cyclical, growth, defensive
}

// DefaultProfiles models a small sector-ETF universe with one bond anchor.
func DefaultProfiles() []AssetProfile {
	return []AssetProfile{
		{Name: "SHY", Mean: 1.0015, Vol: 0.005, Class: "bond"},
		{Name: "XLB", Mean: 1.008, Vol: 0.035, Class: "cyclical"},
		{Name: "XLE", Mean: 1.012, Vol: 0.058, Class: "cyclical"},
		{Name: "XLF", Mean: 1.006, Vol: 0.028, Class: "cyclical"},
		{Name: "XLI", Mean: 1.007, Vol: 0.030, Class: "cyclical"},
		{Name: "XLK", Mean: 1.010, Vol: 0.042, Class: "growth"},
		{Name: "XLP", Mean: 1.005, Vol: 0.018, Class: "defensive"},
		{Name: "XLU", Mean: 1.006, Vol: 0.025, Class: "defensive"},
		{Name: "XLV", Mean: 1.007, Vol: 0.022, Class: "defensive"},
	}
}

// SyntheticSource generates a deterministic, correlated returns matrix for
// demos and tests. Same seed, same data.
type SyntheticSource struct {
	Profiles []AssetProfile
	Periods  int
	Seed     int64
	Start    time.Time // first period, defaults to 2022-01
}

// Load generates the matrix. Returns within an asset class are strongly
// correlated, the bond anchor is weakly or negatively correlated with
// equities, and every ratio is clipped to [0.8, 1.2].
func (s *SyntheticSource) Load(ctx context.Context) (*statistics.ReturnsMatrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	profiles := s.Profiles
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}
	periods := s.Periods
	if periods == 0 {
		periods = 24
	}
	if periods < 2 {
		return nil, &statistics.InvalidInputError{Reason: "synthetic source needs at least 2 periods"}
	}
	start := s.Start
	if start.IsZero() {
		start = time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	rng := rand.New(rand.NewSource(s.Seed))
	n := len(profiles)

	chol, err := factorizeCorrelation(buildCorrelation(profiles, rng))
	if err != nil {
		return nil, err
	}
	var lower mat.TriDense
	chol.LTo(&lower)

	labels := make([]string, periods)
	rows := make([][]float64, periods)
	z := make([]float64, n)
	for t := 0; t < periods; t++ {
		labels[t] = start.AddDate(0, t, 0).Format("2006-01")
		for k := range z {
			z[k] = rng.NormFloat64()
		}
		row := make([]float64, n)
		for i, p := range profiles {
			shock := 0.0
			for k := 0; k <= i; k++ {
				shock += lower.At(i, k) * z[k]
			}
			row[i] = clip(p.Mean+p.Vol*shock, 0.8, 1.2)
		}
		rows[t] = row
	}

	assets := make([]string, n)
	for i, p := range profiles {
		assets[i] = p.Name
	}
	return statistics.NewReturnsMatrix(labels, assets, rows)
}

// buildCorrelation draws pairwise correlations by asset class: same class
// 0.5-0.7, bond vs anything -0.3-0.1, different equity classes 0.2-0.5.
func buildCorrelation(profiles []AssetProfile, rng *rand.Rand) *mat.SymDense {
	n := len(profiles)
	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		corr.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			var lo, hi float64
			switch {
			case profiles[i].Class == profiles[j].Class:
				lo, hi = 0.5, 0.7
			case profiles[i].Class == "bond" || profiles[j].Class == "bond":
				lo, hi = -0.3, 0.1
			default:
				lo, hi = 0.2, 0.5
			}
			corr.SetSym(i, j, lo+(hi-lo)*rng.Float64())
		}
	}
	return corr
}

// factorizeCorrelation returns a Cholesky factorization of corr, shrinking
// toward the identity when the random draw is not positive definite.
func factorizeCorrelation(corr *mat.SymDense) (*mat.Cholesky, error) {
	n := corr.SymmetricDim()
	for shrink := 0.0; shrink <= 1.0; shrink += 0.1 {
		shrunk := mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			for j := i; j < n; j++ {
				v := (1 - shrink) * corr.At(i, j)
				if i == j {
					v += shrink
				}
				shrunk.SetSym(i, j, v)
			}
		}
		var chol mat.Cholesky
		if chol.Factorize(shrunk) {
			return &chol, nil
		}
	}
	return nil, fmt.Errorf("correlation matrix is not positive definite")
}

func clip(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
