package timeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	cuejson "cuelang.org/go/encoding/json"
)

// schema is the shape of a timeline document. Unknown fields are allowed so
// that analysis tools can annotate the file without breaking playback.
const schema = `
#Cue: {
	time: number & >=0
	duty: int & >=0 & <=255
	...
}

#Timeline: {
	source?:      string
	sample_rate?: int & >=0
	chunk_ms?:    int & >=0
	entries: [...#Cue]
	...
}
`

// document mirrors the JSON file layout.
type document struct {
	Source     string `json:"source"`
	SampleRate int    `json:"sample_rate"`
	ChunkMS    int    `json:"chunk_ms"`
	Entries    []Cue  `json:"entries"`
}

// Parse validates and decodes a timeline document. The name is only used in
// error messages and may be empty.
func Parse(name string, data []byte) (*Timeline, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &LoadError{Code: ErrCodeEmpty, Path: name, Message: "timeline document is empty"}
	}

	if err := validate(name, data); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Code: ErrCodeSchema, Path: name, Message: "cannot decode timeline", Err: err}
	}

	tl, err := New(doc.Source, doc.SampleRate, doc.ChunkMS, doc.Entries)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = name
		}
		return nil, err
	}
	return tl, nil
}

// validate unifies the document with the CUE schema and requires every
// field to be concrete.
func validate(name string, data []byte) error {
	ctx := cuecontext.New()

	def := ctx.CompileString(schema).LookupPath(cue.ParsePath("#Timeline"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("timeline schema: %w", err)
	}

	expr, err := cuejson.Extract(name, data)
	if err != nil {
		return &LoadError{Code: ErrCodeSchema, Path: name, Message: "malformed JSON", Err: err}
	}

	v := def.Unify(ctx.BuildExpr(expr))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return &LoadError{
			Code:    ErrCodeSchema,
			Path:    name,
			Message: strings.TrimSpace(cueerrors.Details(err, nil)),
		}
	}
	return nil
}

// Loader is the asset-loading collaborator. It returns the text content of
// the named asset.
type Loader interface {
	LoadText(ctx context.Context, path string) (string, error)
}

// FileLoader loads assets from the local filesystem.
type FileLoader struct{}

// LoadText implements Loader.
func (FileLoader) LoadText(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &LoadError{Code: ErrCodeNotFound, Path: path, Message: "timeline file not found"}
		}
		return "", &LoadError{Code: ErrCodeRead, Path: path, Message: "cannot read timeline file", Err: err}
	}
	return string(data), nil
}

// Load fetches path through the loader and parses it.
func Load(ctx context.Context, l Loader, path string) (*Timeline, error) {
	text, err := l.LoadText(ctx, path)
	if err != nil {
		if IsLoadError(err) {
			return nil, err
		}
		return nil, &LoadError{Code: ErrCodeRead, Path: path, Message: "cannot load timeline", Err: err}
	}
	return Parse(path, []byte(text))
}

// LoadFile is Load with a FileLoader.
func LoadFile(path string) (*Timeline, error) {
	return Load(context.Background(), FileLoader{}, path)
}

// Pending is the result of an asynchronous load. It resolves exactly once.
type Pending struct {
	done chan struct{}
	tl   *Timeline
	err  error
}

// LoadAsync starts loading path in a new goroutine.
func LoadAsync(ctx context.Context, l Loader, path string) *Pending {
	p := &Pending{done: make(chan struct{})}
	go func() {
		defer close(p.done)
		p.tl, p.err = Load(ctx, l, path)
	}()
	return p
}

// Resolved returns a Pending that is already complete. Useful for hosts that
// load synchronously but want to drive the dispatcher through its Loading
// state.
func Resolved(tl *Timeline, err error) *Pending {
	p := &Pending{done: make(chan struct{}), tl: tl, err: err}
	close(p.done)
	return p
}

// Done is closed when the load has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Result blocks until the load finishes and returns its outcome.
func (p *Pending) Result() (*Timeline, error) {
	<-p.done
	return p.tl, p.err
}
