package actions

// Catalog is the flat, ordered collection of every registered action,
// assembled by concatenating each provider's action list. Assembly does no
// de-duplication: a name registered by two providers appears twice, and
// Find returns the first. This mirrors the discovery-order semantics host
// frameworks apply to tool lists and is intentional, not a bug.
type Catalog struct {
	actions []Action
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{}
}

// Add appends a provider's action list to the catalog.
func (c *Catalog) Add(acts ...Action) {
	c.actions = append(c.actions, acts...)
}

// All returns the actions in registration order.
func (c *Catalog) All() []Action {
	return c.actions
}

// Find returns the first action with the given name, or nil.
func (c *Catalog) Find(name string) Action {
	for _, a := range c.actions {
		if a.Name() == name {
			return a
		}
	}
	return nil
}

// Names returns every action name in registration order, duplicates included.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.actions))
	for _, a := range c.actions {
		names = append(names, a.Name())
	}
	return names
}

// Len returns the number of registered actions.
func (c *Catalog) Len() int {
	return len(c.actions)
}
