package mathutil

// PreviewView is the skeleton preview camera: Rx(-15°) @ Ry(12°), a slightly
// raised three-quarter view of a Y-up rig.
var PreviewView = Mat3Mul(RotX(Deg2Rad(-15)), RotY(Deg2Rad(12)))
