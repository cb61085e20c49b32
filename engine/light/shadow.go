package light

// ShadowMapResolution is the width and height in texels of the shadow depth texture.
const ShadowMapResolution = 2048

// DefaultShadowHalfExtent is the orthographic half-extent (in world units) of the directional
// shadow frustum around the light's target.
const DefaultShadowHalfExtent float32 = 5.0

// DefaultShadowNear is the near plane of the directional light's orthographic shadow projection.
const DefaultShadowNear float32 = 0.5

// DefaultShadowFar is the far plane of the directional light's orthographic shadow projection.
const DefaultShadowFar float32 = 500.0

// DefaultShadowBias is the constant depth bias applied to shadow comparisons.
const DefaultShadowBias float32 = 0.0005

// DefaultShadowNormalBiasScale is the multiplier applied to the shadow map texel world-size to
// compute the normal-offset bias.
const DefaultShadowNormalBiasScale float32 = 2.0
