package mathutil

// Vec3 is a 3-component vector (value type, stack-allocated).
type Vec3 [3]float64

// Vec3One is the unit scale.
var Vec3One = Vec3{1, 1, 1}
