package steps

import (
	"context"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/cucumber/godog"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/cms"
)

// TaxonomyContext creates, finds and deletes taxonomy terms.
type TaxonomyContext struct {
	entity *EntityContext
	faker  *gofakeit.Faker
}

// NewTaxonomyContext creates the context. Generated term names come from a
// randomly seeded faker.
func NewTaxonomyContext(entity *EntityContext) *TaxonomyContext {
	return &TaxonomyContext{entity: entity, faker: gofakeit.New(0)}
}

// TaxonomyDefinition builds the TaxonomyContext.
var TaxonomyDefinition = Definition{
	Name:     "taxonomy",
	Requires: []string{"entity"},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		entity := resolve[*EntityContext](r, "entity")
		if r.err != nil {
			return nil, r.err
		}
		return NewTaxonomyContext(entity), nil
	},
}

// RegisterSteps implements Group.
func (c *TaxonomyContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^(\d+) "([^"]*)" terms:?$`, c.terms)
	sc.Step(`^"([^"]*)" terms:$`, c.termsTable)
	sc.Step(`^I delete the term with name "([^"]*)"$`, c.DeleteTermsByName)
}

// terms creates amount terms with random names in vocabulary.
func (c *TaxonomyContext) terms(ctx context.Context, amount int, vocabulary string) error {
	for i := 0; i < amount; i++ {
		_, err := c.entity.CreateEntity(ctx, "taxonomy_term", map[string]any{
			"name":                    c.faker.LetterN(8),
			"vocabulary_machine_name": vocabulary,
			"description":             c.faker.LetterN(255),
			"disabled":                "0",
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *TaxonomyContext) termsTable(ctx context.Context, vocabulary string, table *godog.Table) error {
	rows, err := tableHash(table)
	if err != nil {
		return err
	}
	for _, row := range rows {
		fields := fieldsOf(row)
		fields["vocabulary_machine_name"] = vocabulary
		if _, err := c.entity.CreateEntity(ctx, "taxonomy_term", fields); err != nil {
			return err
		}
	}
	return nil
}

// LoadTermByName loads the only term named name.
func (c *TaxonomyContext) LoadTermByName(ctx context.Context, name string) (*cms.Entity, error) {
	tid, err := c.entity.FindEntityWithFieldValue(ctx, "taxonomy_term", "name", name)
	if err != nil {
		return nil, err
	}
	return c.loadTerm(ctx, name, tid)
}

// LoadTermByNameAndVocabulary loads the only term named name in vocabulary.
func (c *TaxonomyContext) LoadTermByNameAndVocabulary(ctx context.Context, name, vocabulary string) (*cms.Entity, error) {
	tid, err := c.entity.FindEntityWithFieldValues(ctx, "taxonomy_term", map[string]any{
		"name": name,
		"vid":  vocabulary,
	})
	if err != nil {
		return nil, err
	}
	return c.loadTerm(ctx, name, tid)
}

func (c *TaxonomyContext) loadTerm(ctx context.Context, name, tid string) (*cms.Entity, error) {
	term, err := c.entity.EntityLoad(ctx, "taxonomy_term", tid)
	if err != nil {
		return nil, stepkit.Errorf(stepkit.ErrNotFound, "%s could not be loaded: %w", name, err)
	}
	return term, nil
}

// DeleteTermsByName deletes every term named name.
func (c *TaxonomyContext) DeleteTermsByName(ctx context.Context, name string) error {
	storage := c.entity.CMS()
	terms, err := storage.LoadByProperties(ctx, "taxonomy_term", cms.Eq("name", name))
	if err != nil {
		return stepkit.Errorf(stepkit.ErrPrecondition, "Cannot delete term %s: %w", name, err)
	}
	for _, term := range terms {
		if err := storage.Delete(ctx, "taxonomy_term", term.ID); err != nil {
			return stepkit.Errorf(stepkit.ErrPrecondition, "Cannot delete term %s: %w", name, err)
		}
	}
	return nil
}
