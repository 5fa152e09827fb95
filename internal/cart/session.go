package cart

// Session decides which API surface a call is routed to. It is sealed: the only implementations are
// Anonymous and Authenticated, so a type switch over them covers every case.
type Session interface {
	Kind() string
	isSession()
}

// Anonymous is a session identified by a locally persisted cart id. ID is empty until one is generated.
type Anonymous struct {
	ID string
}

// Authenticated is a session located by the identity provider; no client-side cart id is needed.
type Authenticated struct{}

func (Anonymous) Kind() string     { return "anonymous" }
func (Authenticated) Kind() string { return "authenticated" }

func (Anonymous) isSession()     {}
func (Authenticated) isSession() {}

// HasID reports whether the anonymous session already owns a cart id.
func (a Anonymous) HasID() bool {
	return a.ID != ""
}
