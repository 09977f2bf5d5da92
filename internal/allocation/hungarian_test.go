package allocation

import "testing"

func TestHungarianSolve_MinimizesTotalCost(t *testing.T) {
	cost := [][]float64{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	}
	assignment := hungarianSolve(cost)

	total := 0.0
	usedCols := map[int]bool{}
	for i, j := range assignment {
		if usedCols[j] {
			t.Fatalf("column %d assigned twice", j)
		}
		usedCols[j] = true
		total += cost[i][j]
	}
	if total != 5 {
		t.Errorf("expected minimum total cost 5, got %f", total)
	}
}

func TestHungarianSolve_IdentityMatrixPicksDiagonal(t *testing.T) {
	cost := [][]float64{
		{0, 5, 5},
		{5, 0, 5},
		{5, 5, 0},
	}
	assignment := hungarianSolve(cost)
	for i, j := range assignment {
		if i != j {
			t.Errorf("expected diagonal assignment, row %d got column %d", i, j)
		}
	}
}
