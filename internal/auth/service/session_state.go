package service

import (
	"crypto/subtle"

	"github.com/filmdoms/community/internal/auth/store"
)

type sessionEventKind int

const (
	eventLogin sessionEventKind = iota
	eventRefresh
	eventLogout
)

func (k sessionEventKind) String() string {
	switch k {
	case eventLogin:
		return "login"
	case eventRefresh:
		return "refresh"
	case eventLogout:
		return "logout"
	default:
		return "unknown"
	}
}

// sessionEvent drives nextSession. Login events carry reusable, which
// reports whether the token on record may be handed out again, and mint,
// which produces a replacement. Refresh and logout events carry the token
// the client presented.
type sessionEvent struct {
	kind      sessionEventKind
	presented string
	reusable  func(token string) bool
	mint      func() (string, error)
}

func loginEvent(reusable func(string) bool, mint func() (string, error)) sessionEvent {
	return sessionEvent{kind: eventLogin, reusable: reusable, mint: mint}
}

func refreshEvent(presented string) sessionEvent {
	return sessionEvent{kind: eventRefresh, presented: presented}
}

func logoutEvent(presented string) sessionEvent {
	return sessionEvent{kind: eventLogout, presented: presented}
}

// nextSession is the single transition function for the per-key session:
//
//	NoSession        --login-->   ActiveSession(minted)
//	Active(t)        --login-->   Active(t) if t is reusable, else Active(minted)
//	Active(t)        --refresh(t)--> Active(t)
//	Active(t)        --logout(t)-->  NoSession
//
// Refresh and logout fail with ErrTokenNotFound on NoSession and with
// ErrTokenMismatch when the presented token differs from t.
func nextSession(state store.Record, ev sessionEvent) (store.Record, error) {
	switch ev.kind {
	case eventLogin:
		if state.Present && ev.reusable(state.Token) {
			return state, nil
		}
		minted, err := ev.mint()
		if err != nil {
			return store.Record{}, err
		}
		return store.Record{Token: minted, Present: true}, nil

	case eventRefresh, eventLogout:
		if !state.Present {
			return store.Record{}, ErrTokenNotFound
		}
		if subtle.ConstantTimeCompare([]byte(state.Token), []byte(ev.presented)) != 1 {
			return store.Record{}, ErrTokenMismatch
		}
		if ev.kind == eventLogout {
			return store.Record{}, nil
		}
		return state, nil

	default:
		return store.Record{}, newInternalError("UNKNOWN_SESSION_EVENT", "unknown session event", nil)
	}
}

type loginOutcome string

const (
	loginMinted   loginOutcome = "minted"
	loginReused   loginOutcome = "reused"
	loginReplaced loginOutcome = "replaced"
)

func classifyLogin(prev, next store.Record) loginOutcome {
	switch {
	case !prev.Present:
		return loginMinted
	case prev.Token == next.Token:
		return loginReused
	default:
		return loginReplaced
	}
}
