package settings

import "log/slog"

// Chain is the result of resolving the full settings chain for one
// decision. It keeps the raw per-scope documents alongside the merged
// view: policy text must be composed from the raw fragments, not fished
// out of the generic merge.
type Chain struct {
	Documents map[Scope]Document
	Effective Document
	Present   []Scope
}

// Document returns the raw document for a scope, or nil when absent.
func (c *Chain) Document(scope Scope) Document {
	if c == nil {
		return nil
	}
	return c.Documents[scope]
}

// Resolver loads and merges the three-scope settings chain.
type Resolver struct {
	store *Store
}

// NewResolver creates a resolver rooted at the given project directory.
func NewResolver(projectDir string) *Resolver {
	return &Resolver{store: NewStore(projectDir)}
}

// Resolve loads global, project, and local scopes in precedence order and
// deep-merges the ones that exist. A malformed scope propagates: dropping
// a broken local override could make the effective policy more permissive
// than its author intended. All scopes absent yields an empty effective
// document, which downstream treats as "no policy configured".
func (r *Resolver) Resolve() (*Chain, error) {
	chain := &Chain{
		Documents: make(map[Scope]Document, 3),
		Effective: Document{},
	}

	for _, scope := range ScopeOrder() {
		doc, err := r.store.Load(scope)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			slog.Debug("settings scope absent", "scope", scope)
			continue
		}
		chain.Documents[scope] = doc
		chain.Present = append(chain.Present, scope)
		chain.Effective = Merge(chain.Effective, doc)
	}

	return chain, nil
}
