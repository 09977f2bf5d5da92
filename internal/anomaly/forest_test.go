package anomaly

import "testing"

func TestIsolationForest_FlagsObviousOutlier(t *testing.T) {
	var data [][]float64
	for i := 0; i < 50; i++ {
		data = append(data, []float64{1.0, 1.0})
	}
	data = append(data, []float64{500.0, 500.0})

	forest := NewIsolationForest(data, 42)

	inlierScore := forest.RawScore(data[0])
	outlierScore := forest.RawScore(data[len(data)-1])

	if outlierScore <= inlierScore {
		t.Errorf("expected outlier raw score (%f) to exceed inlier raw score (%f)", outlierScore, inlierScore)
	}
}

func TestAveragePathLength_MonotonicInN(t *testing.T) {
	small := averagePathLength(10)
	large := averagePathLength(1000)
	if large <= small {
		t.Errorf("expected average path length to grow with n: c(10)=%f c(1000)=%f", small, large)
	}
	if averagePathLength(1) != 0 {
		t.Errorf("expected c(1) == 0, got %f", averagePathLength(1))
	}
}
