package auth

import (
	"strings"
)

// DefaultProviderIcon is used for providers configured without an icon
const DefaultProviderIcon = "facebook"

// ProviderActionLogin is the callback action precomputed for each descriptor
const ProviderActionLogin = "login"

// ProviderDescriptor describes an enabled OAuth2 provider
type ProviderDescriptor struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
	Icon    string `json:"icon"`
	URL     string `json:"url"`
}

// URLBuilder renders the callback link for provider and action
type URLBuilder func(provider, action string) string

// TemplateURLBuilder substitutes {provider} and {action} in template
func TemplateURLBuilder(template string) URLBuilder {
	if template == "" {
		template = DefaultCallbackURL
	}
	return func(provider, action string) string {
		r := strings.NewReplacer("{provider}", provider, "{action}", action)
		return r.Replace(template)
	}
}

// Linkage maps a provider to the identity field holding its user id
type Linkage struct {
	Provider string
	Field    string
}

// Value reads the linked provider id from p
func (l Linkage) Value(p Principal) (string, bool) {
	return p.Link(l.Provider)
}

// ProviderRegistry is built once from configuration and never mutated.
type ProviderRegistry struct {
	providers []ProviderDescriptor
	byName    map[string]int
	build     URLBuilder
}

// NewProviderRegistry keeps enabled providers in configuration order. An
// inactive OAuth section yields an empty registry. A nil build uses the
// configured callback template.
func NewProviderRegistry(cfg OAuthConfig, build URLBuilder) *ProviderRegistry {
	if build == nil {
		build = TemplateURLBuilder(cfg.CallbackURL)
	}

	reg := &ProviderRegistry{
		providers: []ProviderDescriptor{},
		byName:    map[string]int{},
		build:     build,
	}

	if !cfg.Active {
		return reg
	}

	for _, p := range cfg.Providers {
		name := strings.TrimSpace(p.Name)
		if !p.Enabled || name == "" {
			continue
		}
		if _, dup := reg.byName[name]; dup {
			continue
		}

		icon := p.Icon
		if icon == "" {
			icon = DefaultProviderIcon
		}

		reg.byName[name] = len(reg.providers)
		reg.providers = append(reg.providers, ProviderDescriptor{
			Name:    name,
			Enabled: true,
			Icon:    icon,
			URL:     build(name, ProviderActionLogin),
		})
	}

	return reg
}

// Providers returns a copy of the enabled descriptors
func (r *ProviderRegistry) Providers() []ProviderDescriptor {
	if r == nil {
		return []ProviderDescriptor{}
	}
	out := make([]ProviderDescriptor, len(r.providers))
	copy(out, r.providers)
	return out
}

// Lookup returns the descriptor for an enabled provider
func (r *ProviderRegistry) Lookup(name string) (ProviderDescriptor, bool) {
	if r == nil {
		return ProviderDescriptor{}, false
	}
	i, ok := r.byName[name]
	if !ok {
		return ProviderDescriptor{}, false
	}
	return r.providers[i], true
}

// URL renders the callback link for an enabled provider and action
func (r *ProviderRegistry) URL(name, action string) (string, error) {
	if _, ok := r.Lookup(name); !ok {
		return "", providerNotFound(name)
	}
	return r.build(name, action), nil
}

// Linkage returns the identity field accessor for an enabled provider
func (r *ProviderRegistry) Linkage(name string) (Linkage, error) {
	if _, ok := r.Lookup(name); !ok {
		return Linkage{}, providerNotFound(name)
	}
	return Linkage{Provider: name, Field: LinkField(name)}, nil
}

// UniqueKey is the package level UniqueKey with provider validation
func (r *ProviderRegistry) UniqueKey(value, provider string) (string, error) {
	if provider == "" {
		return UniqueKey(value, ""), nil
	}
	link, err := r.Linkage(provider)
	if err != nil {
		return "", err
	}
	return link.Field, nil
}

func providerNotFound(name string) error {
	return annotate(ErrProviderNotFound, map[string]any{"provider": name})
}
