package tutor

// Identity is who is using the dashboard.
type Identity struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

func (id Identity) IsTeacher() bool { return id.Role == RoleTeacher }

func (id Identity) IsStudent() bool { return id.Role == RoleStudent }

// Session holds the identity for the duration of one visit.
// It is created per request and only changes on Login and Logout.
type Session struct {
	Authenticated bool
	Identity      Identity
}

// NewSession returns an unauthenticated session.
func NewSession() *Session {
	return &Session{}
}

func (s *Session) Login(id Identity) {
	s.Authenticated = true
	s.Identity = id
}

func (s *Session) Logout() {
	s.Authenticated = false
	s.Identity = Identity{}
}
