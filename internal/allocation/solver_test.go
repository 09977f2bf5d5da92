package allocation

import (
	"context"
	"testing"

	"github.com/reliefgrid/triage-platform/internal/models"
)

func TestSolve_TrivialEmpty(t *testing.T) {
	result := Solve(context.Background(), nil, nil, DefaultWeights, 0)
	if result.Status != models.SolverTrivialEmpty {
		t.Errorf("expected trivial_empty status, got %s", result.Status)
	}
}

func TestSolve_InfeasibleNoEligible(t *testing.T) {
	resources := []models.Resource{
		{ID: "r1", Type: models.ResourceWater, Quantity: 10, Latitude: 0, Longitude: 0},
	}
	needs := []models.ResourceNeed{
		{ID: "n1", Type: models.ResourceFood, Quantity: 5, Urgency: 8, Latitude: 0, Longitude: 0},
	}
	result := Solve(context.Background(), resources, needs, DefaultWeights, 500)
	if result.Status != models.SolverInfeasibleNoElig {
		t.Errorf("expected infeasible_no_eligible, got %s", result.Status)
	}
	if len(result.UnmetNeeds) != 1 {
		t.Errorf("expected 1 unmet need, got %d", len(result.UnmetNeeds))
	}
}

func TestSolve_SingleEligiblePairAllocates(t *testing.T) {
	resources := []models.Resource{
		{ID: "r1", Type: models.ResourceWater, Quantity: 100, Latitude: 10, Longitude: 10},
	}
	needs := []models.ResourceNeed{
		{ID: "n1", Type: models.ResourceWater, Quantity: 10, Urgency: 7, Latitude: 10.1, Longitude: 10.1},
	}
	result := Solve(context.Background(), resources, needs, DefaultWeights, 500)
	if result.Status != models.SolverOptimal {
		t.Fatalf("expected optimal status, got %s", result.Status)
	}
	if len(result.Allocations) != 1 {
		t.Fatalf("expected 1 allocation, got %d", len(result.Allocations))
	}
	if result.Allocations[0].ResourceID != "r1" {
		t.Errorf("expected resource r1 allocated, got %s", result.Allocations[0].ResourceID)
	}
	if result.CoveragePct != 100 {
		t.Errorf("expected 100%% coverage, got %f", result.CoveragePct)
	}
}

func TestSolve_PrefersHigherUrgencyWhenResourceScarce(t *testing.T) {
	resources := []models.Resource{
		{ID: "r1", Type: models.ResourceMedical, Quantity: 10, Latitude: 0, Longitude: 0},
	}
	needs := []models.ResourceNeed{
		{ID: "low", Type: models.ResourceMedical, Quantity: 5, Urgency: 2, Latitude: 0, Longitude: 0},
		{ID: "high", Type: models.ResourceMedical, Quantity: 5, Urgency: 9, Latitude: 0, Longitude: 0},
	}
	result := Solve(context.Background(), resources, needs, DefaultWeights, 500)
	if len(result.Allocations) != 1 {
		t.Fatalf("expected exactly 1 allocation (only 1 resource), got %d", len(result.Allocations))
	}
	if result.Allocations[0].NeedID == "" {
		t.Fatal("expected a need id to be recorded")
	}
	if result.Allocations[0].NeedID != "high" {
		t.Errorf("expected the scarce resource to go to need %q, got %q", "high", result.Allocations[0].NeedID)
	}
}

func TestSolve_OneToOneMatching(t *testing.T) {
	resources := []models.Resource{
		{ID: "r1", Type: models.ResourceFood, Quantity: 10, Latitude: 0, Longitude: 0},
		{ID: "r2", Type: models.ResourceFood, Quantity: 10, Latitude: 0, Longitude: 0},
	}
	needs := []models.ResourceNeed{
		{ID: "n1", Type: models.ResourceFood, Quantity: 5, Urgency: 5, Latitude: 0, Longitude: 0},
		{ID: "n2", Type: models.ResourceFood, Quantity: 5, Urgency: 5, Latitude: 0, Longitude: 0},
	}
	result := Solve(context.Background(), resources, needs, DefaultWeights, 500)
	if len(result.Allocations) != 2 {
		t.Fatalf("expected both needs matched 1:1, got %d allocations", len(result.Allocations))
	}
	seen := map[string]bool{}
	for _, a := range result.Allocations {
		if seen[a.ResourceID] {
			t.Errorf("resource %s allocated more than once", a.ResourceID)
		}
		seen[a.ResourceID] = true
	}
}
