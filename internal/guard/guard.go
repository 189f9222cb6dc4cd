// Package guard decides whether a session may enter a route.
package guard

import (
	"net/http"

	"github.com/abrezinsky/f1bet/internal/session"
)

// Role is the role a route requires. RoleUser admits any logged in user.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Outcome is the kind of access decision
type Outcome int

const (
	Allow Outcome = iota
	Pending
	Redirect
)

// Decision is the result of DecideAccess. Location is set for Redirect.
type Decision struct {
	Outcome  Outcome
	Location string
}

// RedirectTo returns a redirect decision
func RedirectTo(path string) Decision {
	return Decision{Outcome: Redirect, Location: path}
}

// DecideAccess applies the access rules in order: a session that is still
// resolving is pending, an anonymous one goes to the login page, a
// non-admin on an admin route goes home, everything else is allowed.
func DecideAccess(s session.Session, required Role) Decision {
	switch {
	case s.Loading:
		return Decision{Outcome: Pending}
	case s.User == nil:
		return RedirectTo("/login")
	case required == RoleAdmin && !s.User.IsAdmin:
		return RedirectTo("/")
	default:
		return Decision{Outcome: Allow}
	}
}

// SessionSource provides the session as seen by the browser that sent r
type SessionSource interface {
	SessionFor(r *http.Request) session.Session
}

const pendingPage = `<!DOCTYPE html>
<html><head><meta charset="utf-8"><meta http-equiv="refresh" content="1"><title>Loading...</title></head>
<body><p>Loading...</p></body></html>`

// Require is middleware enforcing DecideAccess. Pending sessions get a
// loading page that reloads itself instead of a redirect.
func Require(src SessionSource, role Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := DecideAccess(src.SessionFor(r), role)
			switch d.Outcome {
			case Allow:
				next.ServeHTTP(w, r)
			case Pending:
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.Header().Set("Cache-Control", "no-store")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(pendingPage))
			default:
				http.Redirect(w, r, d.Location, http.StatusFound)
			}
		})
	}
}
