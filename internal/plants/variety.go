package plants

import (
	"fmt"
	"strings"
)

// ValidationError collects every rule a variety definition violates.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid variety: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "variety validation errors: " + strings.Join(e.Issues, "; ")
}

// Add records one violated rule.
func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

// HasIssues reports whether any rule was violated.
func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// Variety is an immutable template shared by every plant grown from it.
// It can only be obtained through NewVariety, which validates it.
type Variety struct {
	name         string
	radius       int
	species      Species
	coefficients [numNutrients]float64
}

// NewVariety validates and builds a variety. Coefficients must contain an
// entry for every nutrient. On failure the error is a *ValidationError.
func NewVariety(name string, radius int, species Species, coefficients map[Nutrient]float64) (*Variety, error) {
	v := &Variety{name: name, radius: radius, species: species}
	err := &ValidationError{}
	prefix := "variety '" + name + "'"

	if radius < 1 || radius > 3 {
		err.Add(fmt.Sprintf("%s: radius %d must be 1, 2 or 3", prefix, radius))
	}
	if species > SpeciesBegonia {
		err.Add(fmt.Sprintf("%s: unknown species %d", prefix, uint8(species)))
	}

	missing := false
	for _, n := range AllNutrients {
		c, ok := coefficients[n]
		if !ok {
			err.Add(fmt.Sprintf("%s: missing coefficient for %s", prefix, n))
			missing = true
			continue
		}
		v.coefficients[n] = c
	}
	if missing || err.HasIssues() {
		return nil, err
	}

	limit := float64(2 * radius)
	sum := 0.0
	for _, n := range AllNutrients {
		c := v.coefficients[n]
		sum += c
		if c < -limit || c > limit {
			err.Add(fmt.Sprintf("%s: coefficient for %s is %g, must be between %g and %g", prefix, n, c, -limit, limit))
		}
	}

	produced := species.Produces()
	for _, n := range AllNutrients {
		c := v.coefficients[n]
		if n == produced && c <= 0 {
			err.Add(fmt.Sprintf("%s: %s must produce %s (coefficient > 0), got %g", prefix, species, n, c))
		}
		if n != produced && c >= 0 {
			err.Add(fmt.Sprintf("%s: %s must consume %s (coefficient < 0), got %g", prefix, species, n, c))
		}
	}

	if sum <= 0 {
		err.Add(fmt.Sprintf("%s: net production R+G+B is %g, must be positive", prefix, sum))
	}

	if err.HasIssues() {
		return nil, err
	}
	return v, nil
}

func (v *Variety) Name() string     { return v.name }
func (v *Variety) Radius() int      { return v.radius }
func (v *Variety) Species() Species { return v.species }

// Coefficient returns the per-turn production (positive) or consumption
// (negative) of the given nutrient.
func (v *Variety) Coefficient(n Nutrient) float64 {
	return v.coefficients[n]
}

// Coefficients returns a copy of the coefficient table.
func (v *Variety) Coefficients() map[Nutrient]float64 {
	out := make(map[Nutrient]float64, numNutrients)
	for _, n := range AllNutrients {
		out[n] = v.coefficients[n]
	}
	return out
}

func (v *Variety) String() string {
	return fmt.Sprintf("%s(%s r=%d R=%g G=%g B=%g)", v.name, v.species, v.radius,
		v.coefficients[NutrientR], v.coefficients[NutrientG], v.coefficients[NutrientB])
}
