// Package command defines the commands a palette lists and how they are
// loaded from disk.
//
// A command is either Informational (selecting it does nothing beyond
// showing its detail) or Actionable (selecting it runs its Action). The
// variant is fixed when the command is built, so consumers switch on the
// concrete type instead of checking for a nil function.
package command

import "context"

// Action performs the side effect of an actionable command. It may return
// immediately or block until its work completes; callers treat the return
// as the settlement of the command, whatever the error value.
type Action func(ctx context.Context) error

// Command is a unit of user-invokable functionality.
type Command interface {
	// CommandID returns the identity key, unique within one palette.
	CommandID() string
	// CommandName returns the label used for display and fuzzy search.
	CommandName() string
	// CommandDetail returns the opaque preview payload, or nil.
	CommandDetail() any
}

// Informational is a command without an action.
type Informational struct {
	ID     string
	Name   string
	Detail any
}

func (c Informational) CommandID() string   { return c.ID }
func (c Informational) CommandName() string { return c.Name }
func (c Informational) CommandDetail() any  { return c.Detail }

// Actionable is a command with an action.
type Actionable struct {
	ID     string
	Name   string
	Detail any
	Action Action
}

func (c Actionable) CommandID() string   { return c.ID }
func (c Actionable) CommandName() string { return c.Name }
func (c Actionable) CommandDetail() any  { return c.Detail }

// Variant identifies which concrete command type a value holds.
type Variant int

const (
	VariantUnknown Variant = iota
	VariantInformational
	VariantActionable
)

// String returns the variant name.
func (v Variant) String() string {
	switch v {
	case VariantInformational:
		return "informational"
	case VariantActionable:
		return "actionable"
	default:
		return "unknown"
	}
}

// New builds the right variant for the given action. A nil action yields an
// Informational command.
func New(id, name string, detail any, action Action) Command {
	if action == nil {
		return Informational{ID: id, Name: name, Detail: detail}
	}
	return Actionable{ID: id, Name: name, Detail: detail, Action: action}
}

// Kind reports the variant of c. Actionable values with a nil Action are
// reported as informational, so hand-built values behave like New's output.
func Kind(c Command) Variant {
	switch typed := c.(type) {
	case Informational, *Informational:
		return VariantInformational
	case Actionable:
		if typed.Action == nil {
			return VariantInformational
		}
		return VariantActionable
	case *Actionable:
		if typed == nil || typed.Action == nil {
			return VariantInformational
		}
		return VariantActionable
	default:
		return VariantUnknown
	}
}

// ActionOf returns the action of an actionable command.
func ActionOf(c Command) (Action, bool) {
	switch typed := c.(type) {
	case Actionable:
		return typed.Action, typed.Action != nil
	case *Actionable:
		if typed == nil || typed.Action == nil {
			return nil, false
		}
		return typed.Action, true
	default:
		return nil, false
	}
}

// IDs returns the ids of cmds in order.
func IDs(cmds []Command) []string {
	ids := make([]string, len(cmds))
	for i, c := range cmds {
		ids[i] = c.CommandID()
	}
	return ids
}

// Find returns the first command with the given id.
func Find(cmds []Command, id string) (Command, bool) {
	for _, c := range cmds {
		if c.CommandID() == id {
			return c, true
		}
	}
	return nil, false
}
