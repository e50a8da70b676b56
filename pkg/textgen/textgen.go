// Package textgen provides a narrow boundary to text-generation services.
// A request is an ordered sequence of role-tagged turns; the response is a
// single textual completion. All service failures (network, quota, model)
// collapse to one error kind at this boundary.
package textgen

import "context"

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Role tags a conversation turn.
type Role string

func (r Role) String() string {
	return string(r)
}

// Turn is one role-tagged message in a completion request.
type Turn struct {
	Role    Role
	Content string
}

// Request is a completion request: ordered turns plus optional sampling
// parameters. Model may be left empty to use the completer's default.
type Request struct {
	Model string
	Turns []Turn

	// Temperature, when non-nil, overrides the service default.
	Temperature *float64
}

// System appends a system turn and returns the request for chaining.
func (r Request) System(content string) Request {
	r.Turns = append(r.Turns, Turn{Role: RoleSystem, Content: content})
	return r
}

// User appends a user turn and returns the request for chaining.
func (r Request) User(content string) Request {
	r.Turns = append(r.Turns, Turn{Role: RoleUser, Content: content})
	return r
}

// Assistant appends an assistant turn and returns the request for chaining.
func (r Request) Assistant(content string) Request {
	r.Turns = append(r.Turns, Turn{Role: RoleAssistant, Content: content})
	return r
}

// Completer is the interface that wraps the Complete method.
type Completer interface {
	// Complete submits the request and returns the textual completion.
	Complete(ctx context.Context, req Request) (string, error)
}

// CompleteFunc is an adapter to allow the use of ordinary functions as
// Completers.
type CompleteFunc func(ctx context.Context, req Request) (string, error)

// Complete calls the underlying function.
func (f CompleteFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
