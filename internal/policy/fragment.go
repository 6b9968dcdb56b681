package policy

import (
	"strings"

	"github.com/ccapprove/ccapprove/internal/settings"
	"github.com/go-viper/mapstructure/v2"
)

// MergeStrategy controls how the local scope's policy text combines with
// the global+project base text. Only the local fragment's strategy is
// ever consulted; global and project contribute base text only.
type MergeStrategy string

const (
	StrategyAppend  MergeStrategy = "append"
	StrategyPrepend MergeStrategy = "prepend"
	StrategyReplace MergeStrategy = "replace"
)

// Fragment is one scope's contribution of policy text.
type Fragment struct {
	Text     string        `mapstructure:"instructions"`
	Strategy MergeStrategy `mapstructure:"mergeStrategy"`
}

// Empty reports whether the fragment contributes no text.
func (f Fragment) Empty() bool {
	return strings.TrimSpace(f.Text) == ""
}

// FragmentFromDocument extracts a scope's policy fragment from its raw,
// pre-merge settings document. Policy text is a scalar that must be
// combined by an explicit strategy, never silently overwritten by the
// generic settings merge; that is why extraction starts from the raw
// per-scope documents rather than the effective settings.
func FragmentFromDocument(doc settings.Document) Fragment {
	var fragment Fragment
	if doc == nil {
		return fragment
	}
	raw, ok := doc["policy"]
	if !ok {
		return fragment
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &fragment,
		TagName: "mapstructure",
		MatchName: func(mapKey, fieldName string) bool {
			return normalizeKey(mapKey) == normalizeKey(fieldName)
		},
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Fragment{}
	}
	if err := decoder.Decode(raw); err != nil {
		return Fragment{}
	}

	fragment.Strategy = normalizeStrategy(fragment.Strategy)
	return fragment
}

// normalizeStrategy maps unknown or absent strategies to append, the
// least surprising combination.
func normalizeStrategy(s MergeStrategy) MergeStrategy {
	switch MergeStrategy(strings.ToLower(strings.TrimSpace(string(s)))) {
	case StrategyPrepend:
		return StrategyPrepend
	case StrategyReplace:
		return StrategyReplace
	default:
		return StrategyAppend
	}
}

func normalizeKey(input string) string {
	input = strings.ReplaceAll(input, "_", "")
	input = strings.ReplaceAll(input, "-", "")
	return strings.ToLower(input)
}
