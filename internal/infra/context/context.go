// Package context carries request scoped values through context.Context.
package context

type contextKey string
