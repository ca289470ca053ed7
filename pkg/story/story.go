// Package story maps character names to the narrative shown when they are selected.
package story

import "fmt"

var messages = map[string]string{
	"matt": "Matt plans to take over the office by getting " +
		"everyone else fired",
	"susan": "Susan wants to save the company by adapting " +
		"a new AI model she tuned for healthcare data " +
		"to  product delivery logistics",
	"jerry": "Jerry is supporting Susan.  He is trying to " +
		"tune her AI model.  He asked her out last year, " +
		"but got turned down.  He still admires her as a " +
		"person and leader",
	"cory": "Cory met a woman at a bar who manages logistics " +
		"at a health product delivery.  His new friend " +
		"agreed to use Susan's prototype in a limited trial",
	"kristi": "Kristi initially was supporting Matt after she " +
		"slept with him following a company bar outing " +
		"in San Francisco.  However, she is now supporting " +
		"Susan's plan and has advanced the distribution algorithm.",
}

// Resolve returns the narrative for name. Names without an entry get a
// generic opening line, so a lookup miss never blocks rendering.
func Resolve(name string) string {
	if m, ok := messages[name]; ok {
		return m
	}
	return fmt.Sprintf("The story of %s begins!", name)
}

// Known reports whether name has its own narrative.
func Known(name string) bool {
	_, ok := messages[name]
	return ok
}
