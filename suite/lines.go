package suite

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"github.com/cucumber/godog"
	gherkin "github.com/cucumber/gherkin/go/v26"
	messages "github.com/cucumber/messages/go/v21"
)

// lineIndex finds the feature file line of a scenario step. godog numbers
// AST nodes across every parsed feature, so each file is parsed again on
// its own and scenarios are matched by name and step text.
type lineIndex struct {
	mu       sync.Mutex
	features map[string]*featureLines
	read     func(string) ([]byte, error)
}

type featureLines struct {
	pickles []*messages.Pickle
	// lines maps AST node ids of this parse to their line.
	lines map[string]int64
	err   error
}

func newLineIndex() *lineIndex {
	return &lineIndex{features: make(map[string]*featureLines), read: os.ReadFile}
}

// Line returns the line of step in sc, or 0 when it cannot be determined.
func (x *lineIndex) Line(sc *godog.Scenario, step *godog.Step) int64 {
	if sc == nil || step == nil {
		return 0
	}
	index := -1
	for i, s := range sc.Steps {
		if s.Id == step.Id {
			index = i
			break
		}
	}
	if index < 0 {
		return 0
	}

	feature := x.feature(sc.Uri)
	if feature.err != nil {
		return 0
	}
	pickle := feature.match(sc)
	if pickle == nil || len(pickle.Steps[index].AstNodeIds) == 0 {
		return 0
	}
	return feature.lines[pickle.Steps[index].AstNodeIds[0]]
}

func (x *lineIndex) feature(uri string) *featureLines {
	x.mu.Lock()
	defer x.mu.Unlock()
	if f, ok := x.features[uri]; ok {
		return f
	}
	f := x.parse(uri)
	x.features[uri] = f
	return f
}

func (x *lineIndex) parse(uri string) *featureLines {
	data, err := x.read(uri)
	if err != nil {
		return &featureLines{err: fmt.Errorf("read feature %s: %w", uri, err)}
	}
	newID := (&messages.Incrementing{}).NewId
	doc, err := gherkin.ParseGherkinDocument(bytes.NewReader(data), newID)
	if err != nil {
		return &featureLines{err: fmt.Errorf("parse feature %s: %w", uri, err)}
	}

	f := &featureLines{
		pickles: gherkin.Pickles(*doc, uri, newID),
		lines:   make(map[string]int64),
	}
	if doc.Feature == nil {
		return f
	}
	for _, child := range doc.Feature.Children {
		f.addChild(child.Background, child.Scenario)
		if child.Rule != nil {
			for _, ruleChild := range child.Rule.Children {
				f.addChild(ruleChild.Background, ruleChild.Scenario)
			}
		}
	}
	return f
}

func (f *featureLines) addChild(background *messages.Background, scenario *messages.Scenario) {
	if background != nil {
		f.addSteps(background.Steps)
	}
	if scenario != nil {
		f.addSteps(scenario.Steps)
	}
}

func (f *featureLines) addSteps(steps []*messages.Step) {
	for _, step := range steps {
		if step.Location != nil {
			f.lines[step.Id] = step.Location.Line
		}
	}
}

// match returns the first pickle with the scenario's name and step texts.
func (f *featureLines) match(sc *godog.Scenario) *messages.Pickle {
next:
	for _, p := range f.pickles {
		if p.Name != sc.Name || len(p.Steps) != len(sc.Steps) {
			continue
		}
		for i, step := range p.Steps {
			if step.Text != sc.Steps[i].Text {
				continue next
			}
		}
		return p
	}
	return nil
}
