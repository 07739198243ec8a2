// Package auth resolves who is making a request and whether they may touch a resource.
package auth

// Source records how an identity was established
type Source string

const (
	SourceSession Source = "session"
	SourceToken   Source = "token"
)

// Identity is the resolved requester. The zero value is Anonymous.
type Identity struct {
	UserID uint
	Source Source
}

// Anonymous is a valid outcome of resolution, not an error
var Anonymous = Identity{}

// IsAnonymous reports whether no user could be resolved
func (i Identity) IsAnonymous() bool {
	return i.UserID == 0
}

func sessionIdentity(userID uint) Identity {
	return Identity{UserID: userID, Source: SourceSession}
}

func tokenIdentity(userID uint) Identity {
	return Identity{UserID: userID, Source: SourceToken}
}
