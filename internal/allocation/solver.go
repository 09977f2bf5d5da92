// Package allocation solves the resource-to-need assignment problem:
// each depot resource goes to at most one disaster-zone need and vice
// versa, maximizing weighted urgency/coverage/expiry while penalizing
// delivery distance. The objective mirrors a mixed-integer coverage
// program; the one-to-one matching structure is solved exactly with
// the Hungarian algorithm rather than a general MILP solver.
package allocation

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/reliefgrid/triage-platform/internal/geo"
	"github.com/reliefgrid/triage-platform/internal/models"
)

// Weights are the tunable objective-function coefficients.
type Weights struct {
	UrgencyWeight  float64
	DistanceWeight float64
	ExpiryWeight   float64
	CoverageWeight float64
}

// DefaultWeights mirrors the original optimizer's tuned defaults.
var DefaultWeights = Weights{
	UrgencyWeight:  1.0,
	DistanceWeight: 0.3,
	ExpiryWeight:   0.2,
	CoverageWeight: 1.0,
}

const defaultMaxDistanceKM = 500.0

// solverTimeout is the deadline checked before the Hungarian run
// starts; if it has passed, Solve returns SolverTimeout with no
// allocations. A run that has started is not interrupted.
const solverTimeout = 30 * time.Second

// expiryScore returns a value in [0,1]; higher means the resource is
// closer to expiring and should be prioritized for allocation before
// it's wasted. Non-perishables get a neutral 0.5.
func expiryScore(r models.Resource, now time.Time) float64 {
	if r.ExpiryDate == nil {
		return 0.5
	}
	daysLeft := r.ExpiryDate.Sub(now).Hours() / 24
	if daysLeft < 0 {
		daysLeft = 0
	}
	return math.Exp(-0.05 * daysLeft)
}

// Solve matches resources to needs one-to-one, maximizing the
// weighted objective over eligible pairs (same type, within
// maxDistanceKM, and resource.Quantity >= need.Quantity).
func Solve(ctx context.Context, resources []models.Resource, needs []models.ResourceNeed, weights Weights, maxDistanceKM float64) models.AllocationResult {
	if maxDistanceKM <= 0 {
		maxDistanceKM = defaultMaxDistanceKM
	}

	if len(resources) == 0 || len(needs) == 0 {
		return models.AllocationResult{
			UnmetNeeds: needs,
			Status:     models.SolverTrivialEmpty,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, solverTimeout)
	defer cancel()

	nRes, nNeeds := len(resources), len(needs)
	dist := make([][]float64, nRes)
	eligible := make([][]bool, nRes)
	totalNeedQty := 0.0
	for _, n := range needs {
		totalNeedQty += float64(n.Quantity)
	}
	if totalNeedQty <= 0 {
		totalNeedQty = 1
	}

	now := time.Now().UTC()
	objective := make([][]float64, nRes)
	anyEligible := false

	for i, r := range resources {
		dist[i] = make([]float64, nNeeds)
		eligible[i] = make([]bool, nNeeds)
		objective[i] = make([]float64, nNeeds)
		expScore := expiryScore(r, now)

		for j, n := range needs {
			d := geo.DistanceKM(geo.Point{Lat: r.Latitude, Lon: r.Longitude}, geo.Point{Lat: n.Latitude, Lon: n.Longitude})
			dist[i][j] = d

			elig := r.Type == n.Type && d <= maxDistanceKM && r.Quantity >= n.Quantity
			eligible[i][j] = elig
			if !elig {
				continue
			}
			anyEligible = true

			urgencyVal := float64(n.Urgency) * weights.UrgencyWeight
			coverageVal := (float64(n.Quantity) / totalNeedQty) * weights.CoverageWeight
			distPenalty := (d / math.Max(maxDistanceKM, 1)) * weights.DistanceWeight
			expiryBonus := expScore * weights.ExpiryWeight

			objective[i][j] = urgencyVal + coverageVal + expiryBonus - distPenalty
		}
	}

	if !anyEligible {
		return models.AllocationResult{
			UnmetNeeds: needs,
			Status:     models.SolverInfeasibleNoElig,
		}
	}

	select {
	case <-ctx.Done():
		return models.AllocationResult{UnmetNeeds: needs, Status: models.SolverTimeout}
	default:
	}

	assignment, timedOut := solveAssignment(ctx, objective, eligible)
	if timedOut {
		return models.AllocationResult{UnmetNeeds: needs, Status: models.SolverTimeout}
	}

	var allocations []models.Allocation
	metNeeds := make(map[int]bool)
	totalDist := 0.0

	for i, j := range assignment {
		if j < 0 || !eligible[i][j] {
			continue
		}
		metNeeds[j] = true
		totalDist += dist[i][j]
		allocations = append(allocations, models.Allocation{
			ID:         uuid.NewString(),
			ResourceID: resources[i].ID,
			NeedID:     resourceNeedKey(needs[j], j),
			DistanceKM: round2(dist[i][j]),
			CreatedAt:  now,
		})
	}

	var unmet []models.ResourceNeed
	for j, n := range needs {
		if !metNeeds[j] {
			unmet = append(unmet, n)
		}
	}

	coveragePct := 0.0
	score := 0.0
	if nNeeds > 0 {
		coveragePct = round2(float64(len(metNeeds)) / float64(nNeeds) * 100)
		score = round4(float64(len(metNeeds)) / float64(nNeeds))
	}

	return models.AllocationResult{
		Allocations:         allocations,
		UnmetNeeds:          unmet,
		CoveragePct:         coveragePct,
		EstimatedDeliveryKM: round2(totalDist),
		OptimizationScore:   score,
		Status:              models.SolverOptimal,
	}
}

// resourceNeedKey falls back to a fresh random ID when the need carries
// no persisted ID yet (needs are often assembled in-memory from
// pending requests before they're stored); idx is not used.
func resourceNeedKey(n models.ResourceNeed, idx int) string {
	if n.ID != "" {
		return n.ID
	}
	return uuid.NewString()
}

// solveAssignment pads the rectangular objective matrix to square
// (sentinel rows/columns carry zero value and are never eligible) and
// runs the Hungarian algorithm for a maximum-weight matching. Returns
// true if ctx was already past its deadline before solving began.
func solveAssignment(ctx context.Context, objective [][]float64, eligible [][]bool) ([]int, bool) {
	select {
	case <-ctx.Done():
		return nil, true
	default:
	}

	nRes := len(objective)
	nNeeds := len(objective[0])
	size := nRes
	if nNeeds > size {
		size = nNeeds
	}

	const ineligibleCost = 1e6
	cost := make([][]float64, size)
	for i := 0; i < size; i++ {
		cost[i] = make([]float64, size)
		for j := 0; j < size; j++ {
			switch {
			case i < nRes && j < nNeeds && eligible[i][j]:
				cost[i][j] = -objective[i][j] // minimize negative = maximize
			default:
				cost[i][j] = ineligibleCost
			}
		}
	}

	assignment := hungarianSolve(cost)

	out := make([]int, nRes)
	for i := range out {
		out[i] = -1
	}
	for i := 0; i < nRes; i++ {
		j := assignment[i]
		if j >= 0 && j < nNeeds && eligible[i][j] {
			out[i] = j
		}
	}
	return out, false
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
