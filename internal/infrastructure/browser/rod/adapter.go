package rod

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"webpilot/internal/application/port/output"
	"webpilot/internal/domain/entity"
	"webpilot/internal/infrastructure/browser/rodwrapper"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

const (
	defaultSlowMotion = 200 * time.Millisecond
	defaultTimeout    = 10 * time.Second
	screenshotMaxW    = 1024
)

type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration
	cfg      BrowserConfig
	closed   bool
}

type BrowserConfig struct {
	Headless           bool
	SlowMotion         time.Duration
	Timeout            time.Duration
	NoSandbox          bool
	DevTools           bool
	CaptureScreenshots bool
	ScreenshotDir      string
}

func DefaultConfig() BrowserConfig {
	return BrowserConfig{
		Headless:      true,
		SlowMotion:    defaultSlowMotion,
		Timeout:       defaultTimeout,
		ScreenshotDir: "screenshots",
	}
}

func NewBrowserAdapter(ctx context.Context, cfg BrowserConfig) (*BrowserAdapter, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Devtools(cfg.DevTools).
		NoSandbox(cfg.NoSandbox)

	url, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().
		ControlURL(url).
		SlowMotion(cfg.SlowMotion)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	return &BrowserAdapter{
		browser:  browser,
		launcher: l,
		page:     page,
		timeout:  cfg.Timeout,
		cfg:      cfg,
	}, nil
}

func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	if err := b.page.Context(ctx).Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := b.page.Context(ctx).WaitLoad(); err != nil {
		return fmt.Errorf("%w: page load after navigation: %v", entity.ErrActionTimeout, err)
	}
	b.page.WaitIdle(3 * time.Second)
	return nil
}

func (b *BrowserAdapter) Click(ctx context.Context, selector string) error {
	el, err := b.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	b.page.WaitIdle(2 * time.Second)
	return nil
}

func (b *BrowserAdapter) TypeText(ctx context.Context, selector, text string) error {
	el, err := b.element(ctx, selector)
	if err != nil {
		return err
	}

	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (b *BrowserAdapter) Scroll(ctx context.Context, direction entity.ScrollDirection) error {
	var js string
	switch direction {
	case entity.ScrollDown:
		js = `() => window.scrollBy(0, window.innerHeight * 2)`
	case entity.ScrollUp:
		js = `() => window.scrollBy(0, -window.innerHeight * 2)`
	case entity.ScrollTop:
		js = `() => window.scrollTo(0, 0)`
	case entity.ScrollBottom:
		js = `() => window.scrollTo(0, document.body.scrollHeight)`
	default:
		return fmt.Errorf("unknown scroll direction: %s", direction)
	}

	if _, err := b.page.Context(ctx).Eval(js); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	b.page.WaitIdle(800 * time.Millisecond)
	return nil
}

func (b *BrowserAdapter) ExtractText(ctx context.Context, selector string) (string, error) {
	el, err := b.element(ctx, selector)
	if err != nil {
		return "", err
	}
	rawHTML, err := el.HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read element HTML: %w", err)
	}
	return rodwrapper.TextFromHTML(rawHTML), nil
}

// Snapshot captures URL, title and the interactive-element index. Two
// snapshots without intervening actions differ only in CapturedAt.
func (b *BrowserAdapter) Snapshot(ctx context.Context) (*entity.PageState, error) {
	if b.closed {
		return nil, fmt.Errorf("%w: browser is closed", entity.ErrExtraction)
	}

	if err := b.page.Context(ctx).Timeout(b.timeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("%w: navigation did not settle: %v", entity.ErrExtraction, err)
	}

	info, err := b.page.Info()
	if err != nil {
		return nil, fmt.Errorf("%w: page info unavailable: %v", entity.ErrExtraction, err)
	}

	elements, err := rodwrapper.BuildElementIndex(b.page, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: element index failed: %v", entity.ErrExtraction, err)
	}

	state := &entity.PageState{
		URL:        info.URL,
		Title:      info.Title,
		Elements:   elements,
		CapturedAt: time.Now(),
	}

	if b.cfg.CaptureScreenshots {
		// Screenshot is a best-effort visual reference; it never fails
		// the snapshot.
		if ref, err := b.captureScreenshot(); err == nil {
			state.ScreenshotRef = ref
		}
	}

	return state, nil
}

func (b *BrowserAdapter) captureScreenshot() (string, error) {
	imgBytes, err := b.page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return "", fmt.Errorf("screenshot failed: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(imgBytes))
	if err != nil {
		return "", fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > screenshotMaxW {
		img = imaging.Resize(img, screenshotMaxW, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return "", fmt.Errorf("jpeg encode failed: %w", err)
	}

	dir := b.cfg.ScreenshotDir
	if dir == "" {
		dir = "screenshots"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create screenshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("%d.jpg", time.Now().UnixNano()))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("write screenshot: %w", err)
	}
	return path, nil
}

func (b *BrowserAdapter) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) Close() {
	if b.closed {
		return
	}
	b.closed = true
	if b.browser != nil {
		_ = b.browser.Close()
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher.Cleanup()
	}
}

func (b *BrowserAdapter) element(ctx context.Context, selector string) (*rod.Element, error) {
	page := b.page.Context(ctx).Timeout(b.timeout)

	var el *rod.Element
	var err error
	if strings.HasPrefix(selector, "/") {
		el, err = page.ElementX(selector)
	} else {
		el, err = page.Element(selector)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", entity.ErrElementNotFound, selector, err)
	}
	return el, nil
}
