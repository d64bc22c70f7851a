// Package filter ranks palette items against a free-text query. It is
// the default implementation of the filtering collaborator; callers
// can swap in their own matcher without touching the controller.
package filter

import (
	"github.com/sahilm/fuzzy"
)

// Match reports whether the query fuzzily matches any of the targets,
// and the best score when it does. Higher scores rank better; scores
// are only comparable for the same query.
func Match(query string, targets ...string) (int, bool) {
	if query == "" {
		return 0, true
	}
	matches := fuzzy.Find(query, targets)
	if len(matches) == 0 {
		return 0, false
	}
	// fuzzy.Find sorts by descending score
	return matches[0].Score, true
}

// Matches reports whether the query matches any of the targets
func Matches(query string, targets ...string) bool {
	_, ok := Match(query, targets...)
	return ok
}
