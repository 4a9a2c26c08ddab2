package understory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestProvider writes the given files (slash-relative path -> source)
// into a temp workspace, loads it, and returns a provider over it.
func newTestProvider(t *testing.T, files map[string]string, opts ...Option) *Provider {
	t.Helper()
	root := t.TempDir()
	for name, src := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	}
	program, err := Load(root, opts...)
	require.NoError(t, err)
	return NewProvider(program)
}

// =============================================================================
// Prepare
// =============================================================================

func TestPrepare_FunctionDefinition(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"app.py": "def greet(name):\n    return name\n",
	})

	item, err := p.Prepare(context.Background(), "app.py", Point{Line: 0, Col: 4})
	require.NoError(t, err)
	require.NotNil(t, item)

	assert.Equal(t, "greet", item.Name)
	assert.Equal(t, ItemFunction, item.Kind)
	assert.Equal(t, "app.py", item.File)
	assert.Equal(t, Point{Line: 0, Col: 4}, item.SelectionRange.Start)
	assert.Equal(t, Point{Line: 0, Col: 9}, item.SelectionRange.End)
}

func TestPrepare_CallSiteResolvesToDefinition(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"app.py": "def greet(name):\n    return name\n\ndef main():\n    greet(\"bob\")\n",
	})

	item, err := p.Prepare(context.Background(), "app.py", Point{Line: 4, Col: 6})
	require.NoError(t, err)
	require.NotNil(t, item)

	assert.Equal(t, "greet", item.Name)
	assert.Equal(t, Point{Line: 0, Col: 4}, item.SelectionRange.Start)
}

func TestPrepare_MethodDefinition(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"app.py": "class Engine:\n    def start(self):\n        pass\n",
	})

	// A method's declaration lives in the class scope, which is invisible
	// to lexical lookup from the method body; the definition name must
	// still anchor the query.
	item, err := p.Prepare(context.Background(), "app.py", Point{Line: 1, Col: 8})
	require.NoError(t, err)
	require.NotNil(t, item)

	assert.Equal(t, "start", item.Name)
	assert.Equal(t, ItemFunction, item.Kind)
	assert.Equal(t, Point{Line: 1, Col: 8}, item.SelectionRange.Start)
}

func TestPrepare_FileOutsideSnapshot(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"src/a.py":     "def f():\n    pass\n",
		"scratch/x.py": "def g():\n    pass\n",
	}, WithIncludes("src/**/*.py"))

	// scratch/x.py exists on disk but is not part of the discovered
	// snapshot, so its declarations are not navigable targets.
	item, err := p.Prepare(context.Background(), "scratch/x.py", Point{Line: 0, Col: 4})
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestPrepare_ClassDefinition(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"app.py": "class Widget:\n    pass\n",
	})

	item, err := p.Prepare(context.Background(), "app.py", Point{Line: 0, Col: 6})
	require.NoError(t, err)
	require.NotNil(t, item)

	assert.Equal(t, "Widget", item.Name)
	assert.Equal(t, ItemClass, item.Kind)
}

func TestPrepare_ImportAliasPresentedAtImportSite(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"lib.py":  "def helper():\n    pass\n",
		"main.py": "from lib import helper as h\n",
	})

	item, err := p.Prepare(context.Background(), "main.py", Point{Line: 0, Col: 26})
	require.NoError(t, err)
	require.NotNil(t, item)

	// The alias is presented in the importing file under its local spelling,
	// classified by what it resolves to.
	assert.Equal(t, "h", item.Name)
	assert.Equal(t, ItemFunction, item.Kind)
	assert.Equal(t, "main.py", item.File)
}

func TestPrepare_NoSymbolAtPosition(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"app.py": "def greet(name):\n    return \"hi\"\n",
	})

	item, err := p.Prepare(context.Background(), "app.py", Point{Line: 1, Col: 12})
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestPrepare_VariableIsNotCallableTarget(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"app.py": "def f():\n    pass\n\ng = f\n",
	})

	// g holds a callable but is a variable, not a function declaration.
	item, err := p.Prepare(context.Background(), "app.py", Point{Line: 3, Col: 0})
	require.NoError(t, err)
	assert.Nil(t, item)
}

func TestPrepare_Cancelled(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"app.py": "def greet(name):\n    return name\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	item, err := p.Prepare(ctx, "app.py", Point{Line: 0, Col: 4})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, item)
}
