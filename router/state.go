package router

import "github.com/gin-gonic/gin"

// State is the position of a request in its route's validation chain.
type State int

const (
	Start State = iota
	ParameterValidating
	BodyValidating
	Handling
	Rejected
)

func (s State) String() string {
	switch s {
	case Start:
		return "start"
	case ParameterValidating:
		return "parameter_validating"
	case BodyValidating:
		return "body_validating"
	case Handling:
		return "handling"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool { return s == Handling || s == Rejected }

const (
	stateKey   = "openapiroute.state"
	paramsKey  = "openapiroute.params"
	queryKey   = "openapiroute.query"
	cookiesKey = "openapiroute.cookies"
	bodyKey    = "openapiroute.body"
	requestKey = "openapiroute.request"
)

// StateOf returns the request's current state.
func StateOf(c *gin.Context) State {
	if s, ok := c.Get(stateKey); ok {
		if st, ok := s.(State); ok {
			return st
		}
	}
	return Start
}

func setState(c *gin.Context, s State) { c.Set(stateKey, s) }
