package actions

import (
	"context"
	"encoding/json"
)

// Action is a named, schema-described capability exposed to an agent
// framework. Implementations are constructed once at catalog-assembly time
// and immutable afterwards.
type Action interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// InvokeFunc performs the provider call for one action and formats the
// response as human-readable text.
type InvokeFunc func(ctx context.Context, args map[string]any) (string, error)

// Descriptor is the provider-facing description of one action.
type Descriptor struct {
	Name        string
	Description string
	Schema      json.RawMessage
	Func        InvokeFunc
}

// FuncAction is the standard Action built from a Descriptor.
type FuncAction struct {
	desc Descriptor
}

// New creates an Action from a Descriptor.
func New(desc Descriptor) *FuncAction {
	return &FuncAction{desc: desc}
}

func (a *FuncAction) Name() string            { return a.desc.Name }
func (a *FuncAction) Description() string     { return a.desc.Description }
func (a *FuncAction) Schema() json.RawMessage { return a.desc.Schema }

func (a *FuncAction) Invoke(ctx context.Context, args map[string]any) (string, error) {
	return a.desc.Func(ctx, args)
}
