// Package animate computes the time-varying fields of the scene: the mist shader time, the bob of
// every firefly and the slow rotation of the firefly group.
package animate

import (
	"math"

	"github.com/Carmen-Shannon/moonlit/engine/scene"
)

// Firefly bob around the hover height.
const (
	fireflyHover     = 4
	fireflyAmplitude = 0.5
	groupSpin        = 0.05
)

// MistTime returns the mist shader time uniform for elapsed time t.
func MistTime(t float64) float32 {
	return float32(t)
}

// FireflyY returns the height of a firefly whose generated x coordinate is x. It is 2π-periodic in
// t and stays within [3.5, 4.5].
func FireflyY(t float64, x float32) float32 {
	return float32(math.Sin(t+float64(x))*fireflyAmplitude + fireflyHover)
}

// GroupRotationY returns the rotation of the firefly group about +Y in radians. It is 0 at t = 0
// and never decreases.
func GroupRotationY(t float64) float32 {
	return float32(t * groupSpin)
}

// Sample writes every animated field of st for elapsed time t. Base positions and sizes of the
// fireflies are only read.
//
// Parameters:
//   - t: elapsed seconds since the driver started
//   - st: the scene
func Sample(t float64, st *scene.State) {
	st.Mist.Time = MistTime(t)

	if buf := st.Fireflies.Buffer; buf != nil {
		for i := range buf.Len() {
			buf.SetY(i, FireflyY(t, buf.BaseX(i)))
		}
		buf.MarkDirty()
	}
	st.Fireflies.RotationY = GroupRotationY(t)
}

// Sampler binds Sample to one scene so the frame driver can call it.
type Sampler struct {
	state *scene.State
}

// NewSampler creates a Sampler for st.
func NewSampler(st *scene.State) *Sampler {
	return &Sampler{state: st}
}

// Sample implements frame.Sampler.
func (s *Sampler) Sample(t float64) {
	Sample(t, s.state)
}
