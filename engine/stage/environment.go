package stage

import (
	"math"

	"github.com/Carmen-Shannon/moonlit/engine/loader"
	"github.com/go-gl/mathgl/mgl32"
)

// AverageRadiance is the mean radiance of an equirectangular map over the sphere. Rows are weighted
// by the solid angle they cover, so the stretched poles do not dominate.
//
// Parameters:
//   - img: the environment map; nil yields zero
//
// Returns:
//   - mgl32.Vec3: the average linear RGB radiance
func AverageRadiance(img *loader.HDRImage) mgl32.Vec3 {
	if img == nil || img.Width == 0 || img.Height == 0 {
		return mgl32.Vec3{}
	}
	var sum [3]float64
	var weight float64
	for y := range img.Height {
		w := math.Sin(math.Pi * (float64(y) + 0.5) / float64(img.Height))
		for x := range img.Width {
			p := img.At(x, y)
			sum[0] += float64(p[0]) * w
			sum[1] += float64(p[1]) * w
			sum[2] += float64(p[2]) * w
		}
		weight += w * float64(img.Width)
	}
	return mgl32.Vec3{float32(sum[0] / weight), float32(sum[1] / weight), float32(sum[2] / weight)}
}
