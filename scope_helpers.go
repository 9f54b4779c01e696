package params

const (
	// Recommended priorities for common layering patterns. Higher numbers win.
	ScopePrioritySystem = 100
	ScopePrioritySite   = 200
	ScopePriorityUser   = 300
)

// SystemSiteUser merges three stores (system defaults, site configuration and
// user overrides) into a single Configuration. Nil stores are skipped.
func SystemSiteUser(system, site, user *Store, opts ...Option) (*Configuration, error) {
	candidates := []Layer{
		NewLayer(NewScope("user", ScopePriorityUser, WithScopeLabel("User")), user),
		NewLayer(NewScope("site", ScopePrioritySite, WithScopeLabel("Site")), site),
		NewLayer(NewScope("system", ScopePrioritySystem, WithScopeLabel("System Defaults")), system),
	}
	layers := make([]Layer, 0, len(candidates))
	for _, layer := range candidates {
		if layer.Store != nil {
			layers = append(layers, layer)
		}
	}
	stack, err := NewStack(layers...)
	if err != nil {
		return nil, err
	}
	return stack.Merge(opts...)
}
