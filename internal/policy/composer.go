package policy

import "strings"

// Section banners keep fragment identity unambiguous to the decision
// function once fragments are concatenated. Composition is lossy by
// design: there is no reverse mapping from composed text to fragments.
const (
	bannerGlobal  = "GLOBAL RULES:"
	bannerProject = "PROJECT-SPECIFIC RULES:"
	bannerLocal   = "LOCAL RULES (HIGHEST PRIORITY):"

	sectionBoundary = "\n\n"
)

type section struct {
	banner string
	text   string
}

// Compose combines per-scope policy fragments into the single policy
// text handed to the decision function.
//
// Global and project text concatenate in scope order; project never
// overrides global text, it only extends it. The local fragment then
// combines with that base according to its merge strategy: append
// (default), prepend, or replace. An empty result is a legitimate value
// meaning "no policy configured", which downstream treats as deny-all.
func Compose(global, project, local Fragment) string {
	upper := make([]section, 0, 2)
	if !global.Empty() {
		upper = append(upper, section{banner: bannerGlobal, text: global.Text})
	}
	if !project.Empty() {
		upper = append(upper, section{banner: bannerProject, text: project.Text})
	}

	if local.Empty() {
		return render(upper)
	}

	localSection := section{banner: bannerLocal, text: local.Text}
	switch normalizeStrategy(local.Strategy) {
	case StrategyReplace:
		return strings.TrimSpace(local.Text)
	case StrategyPrepend:
		return render(append([]section{localSection}, upper...))
	default:
		return render(append(upper, localSection))
	}
}

// render joins sections with banners. A single contributing fragment
// passes through verbatim; banners only appear once fragments from more
// than one scope have to coexist.
func render(sections []section) string {
	switch len(sections) {
	case 0:
		return ""
	case 1:
		return strings.TrimSpace(sections[0].text)
	}

	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, s.banner+"\n"+strings.TrimSpace(s.text))
	}
	return strings.Join(parts, sectionBoundary)
}
