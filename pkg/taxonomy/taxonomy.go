// Package taxonomy holds the fixed ordered list of categories starred
// repositories are sorted into, and the normalization of raw classifier
// output against that list.
package taxonomy

import (
	"strings"

	"github.com/umputun/starscope/pkg/domain"
)

// FallbackName is the designated catch-all category. Unmatched classifier
// output and failed analyses both land here.
const FallbackName = "Other Tools"

// categories is the process-wide taxonomy, order matters for normalization
// tie-breaks. Names are unique, descriptions instruct the classifier.
var categories = []domain.Category{
	{Name: "AI & Machine Learning", Emoji: "🤖", Description: "LLMs, model training and inference, agents, prompt tooling, ML frameworks and datasets"},
	{Name: "Frontend Frameworks", Emoji: "🎨", Description: "web UI frameworks and component libraries: React, Vue, Svelte, CSS toolkits, design systems"},
	{Name: "Backend & APIs", Emoji: "⚙️", Description: "server frameworks, API toolkits, microservice scaffolding, authentication and middleware"},
	{Name: "DevOps & Infrastructure", Emoji: "🚀", Description: "deployment, containers, orchestration, CI/CD, infrastructure as code, monitoring and observability"},
	{Name: "Databases & Storage", Emoji: "🗄️", Description: "databases, caches, queues, search engines, ORMs and data persistence tooling"},
	{Name: "Programming Languages", Emoji: "📝", Description: "language implementations, compilers, interpreters, language servers and standard-library extensions"},
	{Name: "Security & Privacy", Emoji: "🔒", Description: "security scanners, cryptography, secrets management, penetration testing, privacy tooling"},
	{Name: "Data Science & Analytics", Emoji: "📊", Description: "data processing, visualization, notebooks, ETL pipelines and statistical tooling"},
	{Name: "CLI & Terminal Tools", Emoji: "💻", Description: "command-line utilities, shells, terminal emulators, dotfiles and productivity tools for the terminal"},
	{Name: "Mobile Development", Emoji: "📱", Description: "iOS, Android and cross-platform mobile frameworks and libraries"},
	{Name: "Game Development", Emoji: "🎮", Description: "game engines, graphics libraries, physics, audio and game tooling"},
	{Name: "Learning Resources", Emoji: "📚", Description: "tutorials, courses, books, awesome-lists, interview prep and reference material"},
	{Name: FallbackName, Emoji: "🔧", Description: "anything that does not fit the categories above"},
}

// All returns the taxonomy in declaration order. Callers must not mutate it.
func All() []domain.Category {
	return categories
}

// Names returns category names in declaration order
func Names() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}

// Fallback returns the catch-all category
func Fallback() domain.Category {
	return categories[len(categories)-1]
}

// ByName returns the category with the given exact name
func ByName(name string) (domain.Category, bool) {
	for _, c := range categories {
		if c.Name == name {
			return c, true
		}
	}
	return domain.Category{}, false
}

// Normalize matches raw classifier output against the taxonomy. Match rules,
// in order: exact name, exact "emoji name" form, raw containing the name as
// a substring. First declaration-order match wins; this tie-break is kept
// deliberately even though multiple names can be substrings of one response.
// Returns the fallback with ok=false when nothing matches.
func Normalize(raw string) (cat domain.Category, ok bool) {
	raw = strings.TrimSpace(raw)
	for _, c := range categories {
		if raw == c.Name || raw == c.Emoji+" "+c.Name || strings.Contains(raw, c.Name) {
			return c, true
		}
	}
	return Fallback(), false
}
