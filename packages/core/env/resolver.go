package env

import (
	"os"
	"regexp"
	"sync"
)

// variablePattern matches ${NAME} references.
var variablePattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver expands ${NAME} references in config values. Variables set on the
// resolver take precedence over the process environment.
type Resolver struct {
	mu        sync.RWMutex
	variables map[string]string
	warnFunc  WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		variables: make(map[string]string),
	}
}

// SetWarnFunc sets a function to be called when warnings occur (e.g., unresolved variables)
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

func (r *Resolver) SetVariables(vars map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range vars {
		r.variables[k] = v
	}
}

func (r *Resolver) SetVariable(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.variables[name] = value
}

func (r *Resolver) GetVariable(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.variables[name]
	return v, ok
}

// Resolve expands every ${NAME} in input. Unknown names are left untouched
// and reported through the warn func.
func (r *Resolver) Resolve(input string) string {
	return variablePattern.ReplaceAllStringFunc(input, func(match string) string {
		name := match[2 : len(match)-1]

		if val, ok := r.GetVariable(name); ok {
			return val
		}
		if val, ok := os.LookupEnv(name); ok {
			return val
		}

		r.warn("unresolved variable: ${%s}", name)
		return match
	})
}

func (r *Resolver) ResolveAll(values map[string]string) map[string]string {
	result := make(map[string]string, len(values))
	for k, v := range values {
		result[k] = r.Resolve(v)
	}
	return result
}

// ResolveArgs expands every element of a command line.
func (r *Resolver) ResolveArgs(args []string) []string {
	result := make([]string, len(args))
	for i, a := range args {
		result[i] = r.Resolve(a)
	}
	return result
}

// Unresolved returns the ${NAME} references in input that the resolver
// cannot expand.
func (r *Resolver) Unresolved(input string) []string {
	var names []string
	for _, m := range variablePattern.FindAllStringSubmatch(input, -1) {
		if _, ok := r.GetVariable(m[1]); ok {
			continue
		}
		if _, ok := os.LookupEnv(m[1]); ok {
			continue
		}
		names = append(names, m[1])
	}
	return names
}
