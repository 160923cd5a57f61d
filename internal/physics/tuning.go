package physics

const (
	NodeCount = 30

	NodeDamping   = 0.84
	NodeBounce    = 0.9
	NodeStiffness = 0.3
	// ShapeForceDivisor scales the pull of a node toward its slot on the ring.
	ShapeForceDivisor = 1000.0

	BodyDamping = 0.99
	BodyBounce  = 0.9
	BodyFollow  = 0.98 // homing acceleration while grabbed
	// CenterForceDivisor scales the pull of the node cloud toward the center.
	CenterForceDivisor = 100000.0

	DefaultRadius     = 50.0
	SpawnRadiusMin    = 20.0
	SpawnRadiusSpread = 40.0
)
