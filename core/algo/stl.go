package algo

import (
	"errors"
	"math"
	"slices"
)

// STLConfig holds the smoothing spans and iteration counts of a seasonal-trend
// decomposition. Spans must be odd.
type STLConfig struct {
	Period         int
	SeasonalSpan   int
	TrendSpan      int
	LowPassSpan    int
	SeasonalDegree int
	TrendDegree    int
	LowPassDegree  int
	InnerLoops     int
	OuterLoops     int // robustness iterations; 0 disables robust fitting
}

// Decomposition is the additive split value = Trend + Seasonal + Residual,
// one entry per series position.
type Decomposition struct {
	Seasonal []float64
	Trend    []float64
	Residual []float64
	Weights  []float64 // final robustness weights
}

// DefaultSTLConfig returns the robust configuration used for monthly data.
// Spans follow the usual recommendations: seasonal 7, low-pass the next odd
// integer >= period, trend the next odd integer >= 1.5*period/(1-1.5/seasonal).
// Few iterations are enough since robust fits start from median-based weights.
func DefaultSTLConfig(period int) STLConfig {
	seasonal := 7
	trend := nextOdd(int(math.Ceil(1.5 * float64(period) / (1 - 1.5/float64(seasonal)))))
	return STLConfig{
		Period:         period,
		SeasonalSpan:   seasonal,
		TrendSpan:      trend,
		LowPassSpan:    nextOdd(period),
		SeasonalDegree: 1,
		TrendDegree:    1,
		LowPassDegree:  1,
		InnerLoops:     1,
		OuterLoops:     3,
	}
}

// Decompose runs STL on y. The series must hold at least two full periods.
func Decompose(y []float64, cfg STLConfig) (Decomposition, error) {
	n := len(y)
	np := cfg.Period
	if np < 2 {
		return Decomposition{}, errors.New("stl: period must be at least 2")
	}
	if np > n/2 {
		return Decomposition{}, errors.New("stl: series must cover at least two periods")
	}
	if cfg.SeasonalSpan < 3 || cfg.TrendSpan < 3 || cfg.LowPassSpan < 3 {
		return Decomposition{}, errors.New("stl: spans must be at least 3")
	}

	s := &stlState{
		cfg:    cfg,
		n:      n,
		y:      y,
		trend:  make([]float64, n),
		season: make([]float64, n),
		rw:     make([]float64, n),
		work1:  make([]float64, n+2*np),
		work2:  make([]float64, n+2*np),
		work3:  make([]float64, n+2*np),
		work4:  make([]float64, n+2*np),
		work5:  make([]float64, n+2*np),
	}

	if cfg.OuterLoops > 0 {
		s.robustStart()
	}
	s.innerLoop()
	for range cfg.OuterLoops {
		s.robustnessWeights()
		s.innerLoop()
	}
	if cfg.OuterLoops <= 0 {
		for i := range s.rw {
			s.rw[i] = 1
		}
	}

	residual := make([]float64, n)
	for i := range n {
		residual[i] = y[i] - s.trend[i] - s.season[i]
	}
	return Decomposition{
		Seasonal: s.season,
		Trend:    s.trend,
		Residual: residual,
		Weights:  s.rw,
	}, nil
}

type stlState struct {
	cfg    STLConfig
	n      int
	y      []float64
	trend  []float64
	season []float64
	rw     []float64
	robust bool

	work1, work2, work3, work4, work5 []float64
}

// innerLoop alternates seasonal smoothing and trend smoothing.
func (s *stlState) innerLoop() {
	n, np := s.n, s.cfg.Period
	for range s.cfg.InnerLoops {
		for i := range n {
			s.work1[i] = s.y[i] - s.trend[i]
		}
		// work2 receives the cycle-subseries smooth, extended one period each side.
		s.cycleSubseries(s.work1, s.work2)
		// Low-pass filter of the cycle-subseries smooth into work3.
		s.lowPass(s.work2, n+2*np, s.work3, s.work1)
		loessSmooth(s.work3, n, s.cfg.LowPassSpan, s.cfg.LowPassDegree, false, s.rw, s.work1, s.work4)
		for i := range n {
			s.season[i] = s.work2[np+i] - s.work1[i]
		}
		for i := range n {
			s.work1[i] = s.y[i] - s.season[i]
		}
		loessSmooth(s.work1, n, s.cfg.TrendSpan, s.cfg.TrendDegree, s.robust, s.rw, s.trend, s.work4)
	}
}

// cycleSubseries smooths each cycle-subseries (all Januaries, all Februaries, ...)
// and writes the result, extrapolated one step on each end, into out.
func (s *stlState) cycleSubseries(y, out []float64) {
	n, np, ns := s.n, s.cfg.Period, s.cfg.SeasonalSpan
	k0 := (n-1)/np + 1
	sub := make([]float64, k0)
	subW := make([]float64, k0)
	smooth := make([]float64, k0+2)
	w := make([]float64, k0)

	for j := range np {
		k := (n-1-j)/np + 1
		for i := range k {
			sub[i] = y[i*np+j]
			subW[i] = s.rw[i*np+j]
		}
		loessSmooth(sub, k, ns, s.cfg.SeasonalDegree, s.robust, subW, smooth[1:], w)

		nright := min(ns, k) - 1
		if v, ok := loessEstimate(sub, k, ns, s.cfg.SeasonalDegree, -1, 0, nright, w, s.robust, subW); ok {
			smooth[0] = v
		} else {
			smooth[0] = smooth[1]
		}
		nleft := max(0, k-ns)
		if v, ok := loessEstimate(sub, k, ns, s.cfg.SeasonalDegree, float64(k), nleft, k-1, w, s.robust, subW); ok {
			smooth[k+1] = v
		} else {
			smooth[k+1] = smooth[k]
		}

		for m := range k + 2 {
			out[m*np+j] = smooth[m]
		}
	}
}

// lowPass applies moving averages of width period, period and 3, turning
// n+2*period values into n.
func (s *stlState) lowPass(x []float64, length int, out, tmp []float64) {
	np := s.cfg.Period
	movingAverage(x, length, np, tmp)
	movingAverage(tmp, length-np+1, np, out)
	movingAverage(out, length-2*np+2, 3, tmp)
	copy(out, tmp[:length-2*np])
}

// robustStart seeds the robustness weights from a median decomposition: a
// running median of one period for the trend and the per-subseries median of
// the detrended values for the seasonal part. A spike cannot leak into the
// rest of its subseries this way, which matters when each subseries holds only
// two or three points.
func (s *stlState) robustStart() {
	n, np := s.n, s.cfg.Period
	half := nextOdd(np) / 2
	detrended := s.work1[:n]
	for i := range n {
		lo, hi := max(0, i-half), min(n, i+half+1)
		detrended[i] = s.y[i] - median(s.y[lo:hi])
	}
	abs := s.work5[:n]
	sub := make([]float64, 0, (n-1)/np+1)
	for j := range np {
		sub = sub[:0]
		for i := j; i < n; i += np {
			sub = append(sub, detrended[i])
		}
		m := median(sub)
		for i := j; i < n; i += np {
			abs[i] = math.Abs(detrended[i] - m)
		}
	}
	s.bisquare(abs)
}

// robustnessWeights derives bisquare weights from the current residuals.
func (s *stlState) robustnessWeights() {
	abs := s.work5[:s.n]
	for i := range abs {
		abs[i] = math.Abs(s.y[i] - s.trend[i] - s.season[i])
	}
	s.bisquare(abs)
}

func (s *stlState) bisquare(abs []float64) {
	cmad := 6 * median(abs)
	c9 := 0.999 * cmad
	c1 := 0.001 * cmad
	for i, r := range abs {
		switch {
		case r <= c1:
			s.rw[i] = 1
		case r <= c9:
			q := r / cmad
			q = 1 - q*q
			s.rw[i] = q * q
		default:
			s.rw[i] = 0
		}
	}
	s.robust = true
}

func median(xs []float64) float64 {
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	n := len(sorted)
	return (sorted[(n-1)/2] + sorted[n/2]) / 2
}

func nextOdd(v int) int {
	if v%2 == 0 {
		return v + 1
	}
	return v
}
