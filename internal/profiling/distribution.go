package profiling

import (
	"trialstat/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics of one sample
type Summary struct {
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"` // sample (n-1) standard deviation
	Min      float64 `json:"min"`
	Q25      float64 `json:"q25"`
	Median   float64 `json:"median"`
	Q75      float64 `json:"q75"`
	Max      float64 `json:"max"`
	Skewness float64 `json:"skewness"`
	Kurtosis float64 `json:"kurtosis"` // excess kurtosis
	Outliers int     `json:"outliers"` // outside 1.5 IQR fences
}

// DistributionAnalyzer handles distribution shape analysis
type DistributionAnalyzer struct{}

// NewDistributionAnalyzer creates a new distribution analyzer
func NewDistributionAnalyzer() *DistributionAnalyzer {
	return &DistributionAnalyzer{}
}

// Summarize computes descriptive statistics
func (da *DistributionAnalyzer) Summarize(data []float64) (Summary, error) {
	s := Summary{N: len(data)}
	if len(data) == 0 {
		return s, core.NewInsufficientDataError("summary", 0, 1)
	}

	var err error
	if s.Mean, err = stats.Mean(data); err != nil {
		return s, err
	}
	if s.Min, err = stats.Min(data); err != nil {
		return s, err
	}
	if s.Max, err = stats.Max(data); err != nil {
		return s, err
	}
	if s.Median, err = stats.Median(data); err != nil {
		return s, err
	}
	if len(data) > 1 {
		if s.StdDev, err = stats.StandardDeviationSample(data); err != nil {
			return s, err
		}
	}

	quartiles, err := stats.Quartile(data)
	if err == nil {
		s.Q25, s.Q75 = quartiles.Q1, quartiles.Q3
	} else {
		// fewer than two points have no quartile split
		s.Q25, s.Q75 = s.Median, s.Median
	}

	s.Skewness = calculateSkewness(data, s.StdDev)
	s.Kurtosis = calculateKurtosis(data, s.StdDev)
	s.Outliers = detectOutliers(data, s.Q25, s.Q75)
	return s, nil
}

// calculateSkewness returns the adjusted Fisher-Pearson skewness G1
func calculateSkewness(data []float64, sd float64) float64 {
	if len(data) < 3 || sd == 0 {
		return 0
	}
	return stat.Skew(data, nil)
}

// calculateKurtosis returns the bias-corrected excess kurtosis G2
func calculateKurtosis(data []float64, sd float64) float64 {
	if len(data) < 4 || sd == 0 {
		return 0
	}
	return stat.ExKurtosis(data, nil)
}

// detectOutliers counts points outside the 1.5 IQR fences
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}
