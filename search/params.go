// Package search runs batches of short headless simulations over the
// physics parameter space and ranks them by stability.
package search

import (
	"math/rand"

	"github.com/pthm-cable/hexarena/config"
)

// ParamSpec defines a single searchable parameter.
type ParamSpec struct {
	Name    string  // column/log name
	Min     float64 // lower bound
	Max     float64 // upper bound
	Default float64
}

// ParamVector holds the searchable physics parameters in a fixed order.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of searchable parameters. Bounds
// match the documented valid ranges; defaults are the embedded config
// defaults.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "damage_coefficient", Min: 0.5, Max: 1.5, Default: 0.85},
			{Name: "growth_factor", Min: 1.0, Max: 3.0, Default: 1.7},
			{Name: "gravity", Min: 0.01, Max: 0.2, Default: 0.06},
			{Name: "energy_loss_factor", Min: 0.7, Max: 1.0, Default: 0.86},
			{Name: "restitution", Min: 0.5, Max: 1.0, Default: 0.72},
			{Name: "safety_margin", Min: 0.5, Max: 50, Default: 6},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp forces all values into their bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		val := v[i]
		if val < spec.Min {
			val = spec.Min
		}
		if val > spec.Max {
			val = spec.Max
		}
		clamped[i] = val
	}
	return clamped
}

// ToParams converts a value slice into a Params struct. Order must match
// Specs order.
func (pv *ParamVector) ToParams(values []float64) config.Params {
	v := pv.Clamp(values)
	return config.Params{
		DamageCoefficient: v[0],
		GrowthFactor:      v[1],
		Gravity:           v[2],
		EnergyLossFactor:  v[3],
		Restitution:       v[4],
		SafetyMargin:      v[5],
	}
}

// FromParams extracts a value slice from a Params struct.
func (pv *ParamVector) FromParams(p config.Params) []float64 {
	return []float64{
		p.DamageCoefficient,
		p.GrowthFactor,
		p.Gravity,
		p.EnergyLossFactor,
		p.Restitution,
		p.SafetyMargin,
	}
}

// Perturb returns a copy of values with each component jittered by a uniform
// fraction of its range, clamped to bounds. scale 0.1 means up to ±10% of
// the range per component.
func (pv *ParamVector) Perturb(values []float64, scale float64, rng *rand.Rand) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		span := spec.Max - spec.Min
		out[i] = values[i] + (rng.Float64()*2-1)*scale*span
	}
	return pv.Clamp(out)
}
