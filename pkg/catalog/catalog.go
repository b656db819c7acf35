// Package catalog assembles the fixed set of operations a toolhost process serves.
package catalog

import (
	"fmt"
	"time"

	"github.com/entrhq/toolhost/pkg/prompts"
	"github.com/entrhq/toolhost/pkg/registry"
	"github.com/entrhq/toolhost/pkg/resources"
	"github.com/entrhq/toolhost/pkg/tools/basic"
	"github.com/entrhq/toolhost/pkg/tools/browser"
	"github.com/entrhq/toolhost/pkg/tools/shell"
)

// Deps are the collaborators the operations need.
type Deps struct {
	Sessions  *browser.SessionManager
	Runner    *shell.Runner
	Resources *resources.Reader

	// Now is the clock for time-based operations; nil means time.Now
	Now func() time.Time
}

// Build registers every tool, prompt and resource and returns the sealed registry.
func Build(deps Deps) (*registry.Registry, error) {
	if deps.Sessions == nil || deps.Runner == nil || deps.Resources == nil {
		return nil, fmt.Errorf("catalog requires a session manager, a command runner and a resource reader")
	}

	descriptors := basic.All(deps.Now)
	descriptors = append(descriptors,
		resources.ReadResourceTool(deps.Resources),
		shell.NewExecuteCommandTool(deps.Runner).Descriptor(),
		browser.NewBrowseTool(deps.Sessions).Descriptor(),
	)
	descriptors = append(descriptors, prompts.All()...)
	descriptors = append(descriptors,
		resources.Greeting(deps.Resources),
		resources.Time(deps.Now),
	)

	reg := registry.New()
	for _, d := range descriptors {
		if err := reg.Register(d); err != nil {
			return nil, fmt.Errorf("failed to register %s %q: %w", d.Kind, d.Name, err)
		}
	}
	reg.Seal()
	return reg, nil
}
