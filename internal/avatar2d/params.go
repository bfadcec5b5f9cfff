package avatar2d

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// Param identifies one named rig parameter.
type Param int

const (
	HeadAngleX Param = iota
	HeadAngleY
	HeadAngleZ
	EyeLOpen
	EyeROpen
	MouthOpen
	MouthForm
	BodyAngleX
	BodyAngleY
	BodyAngleZ
	Breath
	ParamCount
)

var ParamNames = [ParamCount]string{
	"headAngleX",
	"headAngleY",
	"headAngleZ",
	"eyeLOpen",
	"eyeROpen",
	"mouthOpen",
	"mouthForm",
	"bodyAngleX",
	"bodyAngleY",
	"bodyAngleZ",
	"breath",
}

func (p Param) String() string {
	if p < 0 || p >= ParamCount {
		return fmt.Sprintf("param(%d)", int(p))
	}
	return ParamNames[p]
}

// ParamFromName returns the parameter with the given name, or -1. Case is
// ignored; viper lowercases map keys.
func ParamFromName(name string) Param {
	for i, n := range ParamNames {
		if strings.EqualFold(n, name) {
			return Param(i)
		}
	}
	return -1
}

// Vector is a pose snapshot. Keys that are not set mean "no opinion"; a
// composed frame always has every key set.
type Vector struct {
	values [ParamCount]float64
	set    [ParamCount]bool
}

// Baseline returns the rest pose: eyes open, everything else centered.
func Baseline() Vector {
	var v Vector
	for p := Param(0); p < ParamCount; p++ {
		v.Set(p, 0)
	}
	v.Set(EyeLOpen, 1)
	v.Set(EyeROpen, 1)
	return v
}

func (v *Vector) Set(p Param, value float64) {
	v.values[p] = value
	v.set[p] = true
}

func (v *Vector) Get(p Param) float64 {
	return v.values[p]
}

// Lookup returns the value and whether the key is present.
func (v *Vector) Lookup(p Param) (float64, bool) {
	return v.values[p], v.set[p]
}

func (v *Vector) Has(p Param) bool {
	return v.set[p]
}

func (v *Vector) Delete(p Param) {
	v.values[p] = 0
	v.set[p] = false
}

// Len returns the number of keys present.
func (v *Vector) Len() int {
	n := 0
	for _, ok := range v.set {
		if ok {
			n++
		}
	}
	return n
}

func (v *Vector) IsTotal() bool {
	return v.Len() == int(ParamCount)
}

// Keys returns the present keys in vocabulary order.
func (v *Vector) Keys() []Param {
	keys := make([]Param, 0, ParamCount)
	for p := Param(0); p < ParamCount; p++ {
		if v.set[p] {
			keys = append(keys, p)
		}
	}
	return keys
}

// Overlay writes every key present in other over v.
func (v *Vector) Overlay(other Vector) {
	for p := Param(0); p < ParamCount; p++ {
		if other.set[p] {
			v.Set(p, other.values[p])
		}
	}
}

// AddScaled adds factor*other onto the keys of v that other sets. Keys v does
// not have yet start from zero.
func (v *Vector) AddScaled(other Vector, factor float64) {
	for p := Param(0); p < ParamCount; p++ {
		if other.set[p] {
			v.Set(p, v.values[p]+other.values[p]*factor)
		}
	}
}

// Restrict returns a copy of v holding only the keys present in mask.
func (v Vector) Restrict(mask Vector) Vector {
	var out Vector
	for p := Param(0); p < ParamCount; p++ {
		if mask.set[p] && v.set[p] {
			out.Set(p, v.values[p])
		}
	}
	return out
}

// Equal reports whether both vectors have the same keys and values within
// the mgl64 float tolerance.
func (v Vector) Equal(other Vector) bool {
	for p := Param(0); p < ParamCount; p++ {
		if v.set[p] != other.set[p] {
			return false
		}
		if v.set[p] && !mgl64.FloatEqual(v.values[p], other.values[p]) {
			return false
		}
	}
	return true
}

// Map returns the present keys keyed by parameter name.
func (v Vector) Map() map[string]float64 {
	out := make(map[string]float64, v.Len())
	for p := Param(0); p < ParamCount; p++ {
		if v.set[p] {
			out[ParamNames[p]] = v.values[p]
		}
	}
	return out
}

// VectorFromMap builds a partial vector from parameter names.
func VectorFromMap(m map[string]float64) (Vector, error) {
	var v Vector
	for name, value := range m {
		p := ParamFromName(name)
		if p < 0 {
			return Vector{}, fmt.Errorf("unknown parameter %q", name)
		}
		v.Set(p, value)
	}
	return v, nil
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp(v, min, max float64) float64 {
	return mgl64.Clamp(v, min, max)
}
