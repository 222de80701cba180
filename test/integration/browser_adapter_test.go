package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"webpilot/internal/domain/entity"
	"webpilot/internal/infrastructure/browser/rod"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAdapter(t *testing.T) *rod.BrowserAdapter {
	t.Helper()
	cfg := rod.DefaultConfig()
	cfg.Headless = true
	cfg.SlowMotion = 0

	adapter, err := rod.NewBrowserAdapter(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(adapter.Close)
	return adapter
}

func servePage(t *testing.T, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, `<!DOCTYPE html><html><head><title>Test Page</title></head><body>%s</body></html>`, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestBrowserAdapter_Navigate(t *testing.T) {
	server := servePage(t, `<h1>Hello World</h1>`)
	adapter := newAdapter(t)

	err := adapter.Navigate(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/", adapter.CurrentURL())
}

func TestBrowserAdapter_Click(t *testing.T) {
	server := servePage(t, `
		<button id="testBtn">Click Me</button>
		<div id="result"></div>
		<script>
			document.getElementById('testBtn').addEventListener('click', function() {
				document.getElementById('result').textContent = 'Clicked!';
			});
		</script>`)
	adapter := newAdapter(t)

	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	err := adapter.Click(ctx, "#testBtn")
	assert.NoError(t, err)

	text, err := adapter.ExtractText(ctx, "#result")
	require.NoError(t, err)
	assert.Equal(t, "Clicked!", text)
}

func TestBrowserAdapter_ClickMissingElement(t *testing.T) {
	server := servePage(t, ``)
	adapter := newAdapter(t)

	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	err := adapter.Click(ctx, "#nonexistent")
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrElementNotFound)
}

func TestBrowserAdapter_TypeText(t *testing.T) {
	server := servePage(t, `<input id="testInput" type="text" />`)
	adapter := newAdapter(t)

	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	err := adapter.TypeText(ctx, "#testInput", "Hello World")
	assert.NoError(t, err)
}

func TestBrowserAdapter_Scroll(t *testing.T) {
	server := servePage(t, `
		<div style="height: 3000px;">tall</div>
		<div id="bottom">Bottom content</div>`)
	adapter := newAdapter(t)

	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	for _, direction := range []entity.ScrollDirection{
		entity.ScrollDown, entity.ScrollUp, entity.ScrollBottom, entity.ScrollTop,
	} {
		assert.NoError(t, adapter.Scroll(ctx, direction), string(direction))
	}
}

func TestBrowserAdapter_ExtractTextStripsMarkup(t *testing.T) {
	server := servePage(t, `
		<article id="post">
			<h1>Title</h1>
			<p>First paragraph.</p>
			<script>console.log('noise');</script>
		</article>`)
	adapter := newAdapter(t)

	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	text, err := adapter.ExtractText(ctx, "#post")
	require.NoError(t, err)

	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "First paragraph.")
	assert.NotContains(t, text, "<h1>")
	assert.NotContains(t, text, "console.log")
}

func TestBrowserAdapter_SnapshotIndexesInteractiveElements(t *testing.T) {
	server := servePage(t, `
		<a href="/page" id="link1">Link Text</a>
		<button id="btn1">Button 1</button>
		<input id="input1" type="text" placeholder="Search" />
		<div role="button" id="divBtn">Div Button</div>`)
	adapter := newAdapter(t)

	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	state, err := adapter.Snapshot(ctx)
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/", state.URL)
	assert.Equal(t, "Test Page", state.Title)
	require.NotEmpty(t, state.Elements)

	roles := map[string]bool{}
	for i, el := range state.Elements {
		assert.Equal(t, fmt.Sprintf("e%d", i), el.Ref)
		assert.NotEmpty(t, el.Selector)
		roles[el.Role] = true
	}
	assert.True(t, roles["link"], "should index links")
	assert.True(t, roles["button"], "should index buttons")
	assert.True(t, roles["input"], "should index inputs")
}

func TestBrowserAdapter_SnapshotIdempotentWithoutActions(t *testing.T) {
	server := servePage(t, `
		<a href="/page" id="link1">Link Text</a>
		<button id="btn1">Button 1</button>
		<input id="input1" type="text" placeholder="Search" />`)
	adapter := newAdapter(t)

	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	first, err := adapter.Snapshot(ctx)
	require.NoError(t, err)
	second, err := adapter.Snapshot(ctx)
	require.NoError(t, err)

	assert.True(t, first.Equal(second), "consecutive captures of a static page differ only in timestamp")
	assert.False(t, second.CapturedAt.Before(first.CapturedAt))
}

func TestBrowserAdapter_SnapshotSelectorsResolve(t *testing.T) {
	server := servePage(t, `
		<button id="go">Go</button>
		<div id="result"></div>
		<script>
			document.getElementById('go').addEventListener('click', function() {
				document.getElementById('result').textContent = 'went';
			});
		</script>`)
	adapter := newAdapter(t)

	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	state, err := adapter.Snapshot(ctx)
	require.NoError(t, err)

	var button *entity.PageElement
	for i := range state.Elements {
		if state.Elements[i].Role == "button" && state.Elements[i].Text == "Go" {
			button = &state.Elements[i]
			break
		}
	}
	require.NotNil(t, button, "snapshot should index the button")

	require.NoError(t, adapter.Click(ctx, button.Selector))
	text, err := adapter.ExtractText(ctx, "#result")
	require.NoError(t, err)
	assert.Equal(t, "went", text)
}

func TestBrowserAdapter_SnapshotAfterCloseFails(t *testing.T) {
	cfg := rod.DefaultConfig()
	cfg.Headless = true
	cfg.SlowMotion = 0

	adapter, err := rod.NewBrowserAdapter(context.Background(), cfg)
	require.NoError(t, err)

	adapter.Close()
	assert.NotPanics(t, adapter.Close)

	_, err = adapter.Snapshot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, entity.ErrExtraction)
}

func TestBrowserAdapter_ElementLookupTimeout(t *testing.T) {
	server := servePage(t, ``)

	cfg := rod.DefaultConfig()
	cfg.Headless = true
	cfg.SlowMotion = 0
	cfg.Timeout = 1 * time.Second

	adapter, err := rod.NewBrowserAdapter(context.Background(), cfg)
	require.NoError(t, err)
	defer adapter.Close()

	ctx := context.Background()
	require.NoError(t, adapter.Navigate(ctx, server.URL))

	start := time.Now()
	err = adapter.Click(ctx, "#never-appears")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second, "lookup should give up at the configured timeout")
}
