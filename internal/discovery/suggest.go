package discovery

var suggestedTasks = map[string][]string{
	"laravel": {
		"Review and implement missing Policies",
		"Add comprehensive test coverage",
		"Optimize database queries (N+1 prevention)",
		"Add API documentation",
		"Implement queue monitoring",
		"Add security audit tasks",
	},
	"react": {
		"Add component unit tests",
		"Implement accessibility improvements",
		"Optimize bundle size",
		"Add error boundaries",
		"Implement performance monitoring",
	},
	"node": {
		"Add API endpoint tests",
		"Implement error handling middleware",
		"Add request validation",
		"Optimize database connections",
		"Add security headers",
	},
}

// SuggestedTasks returns framework best-practice hints for a profile, or nil
// when the project type has none.
func SuggestedTasks(p Profile) []string {
	return suggestedTasks[p.Type]
}
