package node

// Role is the part this peer currently plays in the scene.
type Role int

const (
	RoleMirror    Role = iota // replays the authority's snapshots
	RoleAuthority             // simulates and publishes the world
)

func (r Role) String() string {
	switch r {
	case RoleAuthority:
		return "authority"
	default:
		return "mirror"
	}
}

func roleOf(authority bool) Role {
	if authority {
		return RoleAuthority
	}
	return RoleMirror
}
