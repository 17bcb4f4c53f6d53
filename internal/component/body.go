package component

// Body is a rigid body handle in the physics host.
type Body struct {
	Mass      float64
	Kinematic bool
}
