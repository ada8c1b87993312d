package steps

import (
	"context"
	"os"
	"path"
	"path/filepath"

	"github.com/CrisisTextLine/stepkit"
	"github.com/CrisisTextLine/stepkit/cms"
)

// FileContext makes fixture files available as managed files.
type FileContext struct {
	mink  *MinkContext
	files cms.FileManager
}

// NewFileContext creates the context.
func NewFileContext(mink *MinkContext, files cms.FileManager) *FileContext {
	return &FileContext{mink: mink, files: files}
}

// FileDefinition builds the FileContext.
var FileDefinition = Definition{
	Name:     "file",
	Requires: []string{"mink", ServiceCMS},
	New: func(env *stepkit.Environment) (Group, error) {
		r := &resolver{env: env}
		mink := resolve[*MinkContext](r, "mink")
		facade := resolve[cms.Facade](r, ServiceCMS)
		if r.err != nil {
			return nil, r.err
		}
		return NewFileContext(mink, facade), nil
	},
}

// RegisterSteps implements Group.
func (c *FileContext) RegisterSteps(sc StepRegistrar) {
	sc.Step(`^file "([^"]*)" exists$`, c.fileExists)
}

func (c *FileContext) fileExists(ctx context.Context, source string) error {
	_, err := c.FileExists(ctx, source)
	return err
}

// FileExists copies source from the files path to public://<basename>,
// replacing an existing file with that name.
func (c *FileContext) FileExists(ctx context.Context, source string) (*cms.Entity, error) {
	abs, err := c.AbsolutePathForFile(source)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.Mode().IsRegular() {
		return nil, stepkit.Errorf(stepkit.ErrPrecondition, "%s is not a file.", abs)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, stepkit.Errorf(stepkit.ErrPrecondition, "%s is not a file.", abs)
	}

	destination := "public://" + filepath.Base(abs)
	file, err := c.files.SaveFile(ctx, data, destination)
	if err != nil {
		return nil, stepkit.Errorf(stepkit.ErrPrecondition, "Could not save %s to %s: %w", abs, destination, err)
	}
	return file, nil
}

// AbsolutePathForFile resolves source against the configured files path.
func (c *FileContext) AbsolutePathForFile(source string) (string, error) {
	base := c.mink.FilesPath()
	if base == "" {
		return "", stepkit.Errorf(stepkit.ErrPrecondition, `The mink "files_path" parameter needs to be configured or we can't upload the file.`)
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", stepkit.Errorf(stepkit.ErrPrecondition, "%s does not exist", base)
	}
	if _, err := os.Stat(abs); err != nil {
		return "", stepkit.Errorf(stepkit.ErrPrecondition, "%s does not exist", base)
	}
	return filepath.Join(abs, filepath.FromSlash(path.Clean("/"+source))), nil
}

// LoadFileEntityForURI loads the managed file stored at uri.
func (c *FileContext) LoadFileEntityForURI(ctx context.Context, uri string) (*cms.Entity, error) {
	file, err := c.files.LoadFileByURI(ctx, uri)
	if err != nil {
		return nil, stepkit.Errorf(stepkit.ErrNotFound, "No file with %s exists", uri)
	}
	return file, nil
}
