package models

import "time"

type ResourceType string

const (
	ResourceFood         ResourceType = "Food"
	ResourceWater        ResourceType = "Water"
	ResourceMedical      ResourceType = "Medical"
	ResourceShelter      ResourceType = "Shelter"
	ResourceClothing     ResourceType = "Clothing"
	ResourceEvacuation   ResourceType = "Evacuation"
	ResourceVolunteers   ResourceType = "Volunteers"
	ResourceFinancialAid ResourceType = "Financial Aid"
	ResourceCustom       ResourceType = "Custom"
)

type ResourceStatus string

const (
	ResourceAvailable ResourceStatus = "available"
	ResourceAllocated ResourceStatus = "allocated"
	ResourceInTransit ResourceStatus = "in_transit"
	ResourceDeployed  ResourceStatus = "deployed"
)

// Resource is one depot-held stock row available for allocation.
type Resource struct {
	ID         string
	Type       ResourceType
	Quantity   int
	Priority   int // 1..10
	Status     ResourceStatus
	LocationID string
	Latitude   float64
	Longitude  float64
	ExpiryDate *time.Time
	DisasterID *string
	UpdatedAt  time.Time
}

// Perishable reports whether r decays and therefore carries an expiry
// score based on days remaining.
func (r Resource) Perishable() bool {
	return r.ExpiryDate != nil
}

// ResourceNeed is one disaster-zone demand row the solver tries to
// satisfy from available resources.
type ResourceNeed struct {
	ID        string
	Type      ResourceType
	Quantity  int
	Urgency   int // 1..10
	Latitude  float64
	Longitude float64
}

// Allocation binds exactly one Resource to exactly one ResourceNeed.
type Allocation struct {
	ID         string
	ResourceID string
	NeedID     string
	DistanceKM float64
	CreatedAt  time.Time
}

type SolverStatus string

const (
	SolverOptimal           SolverStatus = "optimal"
	SolverInfeasibleNoElig  SolverStatus = "infeasible_no_eligible"
	SolverTrivialEmpty      SolverStatus = "trivial_empty"
	SolverTimeout           SolverStatus = "solver_timeout"
)

// AllocationResult is the solver's full output for one run.
type AllocationResult struct {
	Allocations         []Allocation
	UnmetNeeds          []ResourceNeed
	CoveragePct         float64
	EstimatedDeliveryKM float64
	OptimizationScore   float64
	Status              SolverStatus
}
