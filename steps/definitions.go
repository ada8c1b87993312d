package steps

import (
	"fmt"

	"github.com/CrisisTextLine/stepkit"
)

// Definitions returns every step group in dependency order: a group only
// requires groups listed before it.
func Definitions() []Definition {
	return []Definition{
		MinkDefinition,
		BrowserDefinition,
		EntityDefinition,
		ElementDefinition,
		LinkDefinition,
		JavascriptDefinition,
		IframeDefinition,
		SequentialDefinition,
		FormDefinition,
		NodeDefinition,
		TaxonomyDefinition,
		MediaDefinition,
		MenuDefinition,
		MetaTagDefinition,
		ModuleDefinition,
		EntityQueueDefinition,
		ParagraphsDefinition,
		ProfileDefinition,
		SearchDefinition,
		SmokeTestDefinition,
		FileDefinition,
		FailureDefinition,
	}
}

// Wire builds defs in order and registers each group in env under its
// name so later groups can resolve it. On error the groups built so far
// are returned with it.
func Wire(env *stepkit.Environment, defs []Definition) ([]Group, error) {
	groups := make([]Group, 0, len(defs))
	for _, def := range defs {
		for _, name := range def.Requires {
			if !env.Has(name) {
				return groups, fmt.Errorf("%w: %s requires %s", ErrMissingDependency, def.Name, name)
			}
		}
		group, err := def.New(env)
		if err != nil {
			return groups, fmt.Errorf("build %s: %w", def.Name, err)
		}
		if err := env.Register(def.Name, group); err != nil {
			return groups, err
		}
		groups = append(groups, group)
	}
	return groups, nil
}
