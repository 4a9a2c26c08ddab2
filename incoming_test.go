package understory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIncomingCalls_GroupsByEnclosingScope(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"app.py": "def greet(name):\n" +
			"    return name\n" +
			"\n" +
			"def main():\n" +
			"    greet(\"bob\")\n" +
			"    greet(\"ann\")\n" +
			"\n" +
			"greet(\"eve\")\n",
	})

	calls, err := p.IncomingCalls(context.Background(), "app.py", Point{Line: 0, Col: 4})
	require.NoError(t, err)
	require.Len(t, calls, 2)

	// Two sites in main fold into one record; the top-level site reports the
	// module itself as the caller.
	assert.Equal(t, "main", calls[0].From.Name)
	assert.Equal(t, ItemFunction, calls[0].From.Kind)
	require.Len(t, calls[0].FromRanges, 2)
	assert.Equal(t, Point{Line: 4, Col: 4}, calls[0].FromRanges[0].Start)
	assert.Equal(t, Point{Line: 5, Col: 4}, calls[0].FromRanges[1].Start)

	assert.Equal(t, "(module) app.py", calls[1].From.Name)
	assert.Equal(t, ItemModule, calls[1].From.Kind)
	require.Len(t, calls[1].FromRanges, 1)
	assert.Equal(t, Point{Line: 7, Col: 0}, calls[1].FromRanges[0].Start)
}

func TestIncomingCalls_AcrossFiles(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"lib.py":  "def helper():\n    pass\n",
		"main.py": "from lib import helper\n\ndef run():\n    helper()\n",
	})

	calls, err := p.IncomingCalls(context.Background(), "lib.py", Point{Line: 0, Col: 4})
	require.NoError(t, err)
	require.Len(t, calls, 1)

	assert.Equal(t, "run", calls[0].From.Name)
	assert.Equal(t, "main.py", calls[0].From.File)
	require.Len(t, calls[0].FromRanges, 1)
	assert.Equal(t, Point{Line: 3, Col: 4}, calls[0].FromRanges[0].Start)
}

func TestIncomingCalls_AliasTargetScopedToQueryFile(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"lib.py":  "def helper():\n    pass\n\nhelper()\n",
		"main.py": "from lib import helper\n\nhelper()\n",
	})

	// Querying the import name only surfaces calls from the importing file;
	// the call inside lib.py goes through a different binding.
	calls, err := p.IncomingCalls(context.Background(), "main.py", Point{Line: 0, Col: 16})
	require.NoError(t, err)
	require.Len(t, calls, 1)

	assert.Equal(t, "(module) main.py", calls[0].From.Name)
	require.Len(t, calls[0].FromRanges, 1)
	assert.Equal(t, Point{Line: 2, Col: 0}, calls[0].FromRanges[0].Start)
}

func TestIncomingCalls_PropertyAccessCountsAsCall(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"app.py": "class Temp:\n" +
			"    @property\n" +
			"    def celsius(self):\n" +
			"        return 0\n" +
			"\n" +
			"def read(t: Temp):\n" +
			"    return t.celsius\n",
	})

	calls, err := p.IncomingCalls(context.Background(), "app.py", Point{Line: 2, Col: 8})
	require.NoError(t, err)
	require.Len(t, calls, 1)

	assert.Equal(t, "read", calls[0].From.Name)
	require.Len(t, calls[0].FromRanges, 1)
	assert.Equal(t, Point{Line: 6, Col: 13}, calls[0].FromRanges[0].Start)
}

func TestIncomingCalls_LambdaCaller(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"app.py": "def ping():\n    pass\n\nf = lambda: ping()\n",
	})

	calls, err := p.IncomingCalls(context.Background(), "app.py", Point{Line: 0, Col: 4})
	require.NoError(t, err)
	require.Len(t, calls, 1)

	assert.Equal(t, "(lambda)", calls[0].From.Name)
	assert.Equal(t, ItemFunction, calls[0].From.Kind)
	assert.Equal(t, Point{Line: 3, Col: 4}, calls[0].From.Range.Start)
	require.Len(t, calls[0].FromRanges, 1)
	assert.Equal(t, Point{Line: 3, Col: 12}, calls[0].FromRanges[0].Start)
}

func TestIncomingCalls_NoCallers(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"app.py": "def lonely():\n    pass\n",
	})

	calls, err := p.IncomingCalls(context.Background(), "app.py", Point{Line: 0, Col: 4})
	require.NoError(t, err)
	assert.Nil(t, calls)
}

func TestIncomingCalls_SameNameDifferentBinding(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"a.py": "def work():\n    pass\n\nwork()\n",
		"b.py": "def work():\n    pass\n\nwork()\n",
	})

	// The name matches in both files but only a.py's binding resolves to
	// the queried declaration.
	calls, err := p.IncomingCalls(context.Background(), "a.py", Point{Line: 0, Col: 4})
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "a.py", calls[0].From.File)
}

func TestIncomingCalls_Deterministic(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"a.py":   "from lib import helper\n\nhelper()\n",
		"b.py":   "from lib import helper\n\ndef go():\n    helper()\n",
		"lib.py": "def helper():\n    pass\n",
	})

	first, err := p.IncomingCalls(context.Background(), "lib.py", Point{Line: 0, Col: 4})
	require.NoError(t, err)
	second, err := p.IncomingCalls(context.Background(), "lib.py", Point{Line: 0, Col: 4})
	require.NoError(t, err)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
	// Files are visited in sorted locator order.
	assert.Equal(t, "a.py", first[0].From.File)
	assert.Equal(t, "b.py", first[1].From.File)
}

func TestIncomingCalls_Cancelled(t *testing.T) {
	t.Parallel()
	p := newTestProvider(t, map[string]string{
		"app.py": "def greet():\n    pass\n\ngreet()\n",
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls, err := p.IncomingCalls(ctx, "app.py", Point{Line: 0, Col: 4})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, calls)
}
