//go:build noopenaisdk

package openai

import "github.com/leofalp/llmblanket/providers/ai"

// newBackend fails in builds that exclude the SDK. The error surfaces on the
// first Invoke, so constructing the provider still succeeds.
func newBackend(settings handleSettings) (backend, error) {
	return nil, &ai.DependencyError{
		Provider:   settings.provider,
		Dependency: sdkModule,
		Hint:       "rebuild without the noopenaisdk build tag",
	}
}
