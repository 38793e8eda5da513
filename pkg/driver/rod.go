package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// RodConfig configures the rod-backed driver.
type RodConfig struct {
	Headless bool
	Proxy    string
	// LocatePoll is the interval used when waiting for an indexed locator
	// to match enough elements. Defaults to 100ms.
	LocatePoll time.Duration
}

// RodDriver implements Driver on top of go-rod / headless Chromium.
type RodDriver struct {
	cfg     RodConfig
	browser *rod.Browser
	page    *rod.Page
	closed  bool
}

// NewRodFactory returns a Factory that launches a fresh headless browser
// per run.
func NewRodFactory(cfg RodConfig) Factory {
	return func(ctx context.Context) (Driver, error) {
		return NewRodDriver(ctx, cfg)
	}
}

// NewRodDriver launches the browser and opens a blank page.
func NewRodDriver(ctx context.Context, cfg RodConfig) (*RodDriver, error) {
	if cfg.LocatePoll <= 0 {
		cfg.LocatePoll = 100 * time.Millisecond
	}

	l := launcher.New().Headless(cfg.Headless)
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}
	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1280,
		Height:            900,
		DeviceScaleFactor: 1,
	}); err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("set viewport: %w", err)
	}

	return &RodDriver{cfg: cfg, browser: browser, page: page}, nil
}

func (d *RodDriver) Navigate(ctx context.Context, url string) error {
	page := d.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNavigationFailed, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return classify(err, ErrNavigationFailed)
	}
	return nil
}

func (d *RodDriver) Locate(ctx context.Context, loc Locator) (Handle, error) {
	page := d.page.Context(ctx)

	if loc.Index == 0 {
		el, err := page.Element(loc.Selector)
		if err != nil {
			return nil, classify(err, ErrLocatorNotFound)
		}
		return el, nil
	}

	// Indexed locators target selectors that match several elements.
	// Elements() does not wait, so poll until enough matches show up or
	// the context expires.
	ticker := time.NewTicker(d.cfg.LocatePoll)
	defer ticker.Stop()
	for {
		els, err := page.Elements(loc.Selector)
		if err == nil && len(els) > loc.Index {
			return els[loc.Index], nil
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrTimeout, loc)
		case <-ticker.C:
		}
	}
}

func (d *RodDriver) SetText(ctx context.Context, h Handle, value string) error {
	el, err := element(h)
	if err != nil {
		return err
	}
	el = el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return classify(err, ErrInteractionFailed)
	}
	if err := el.Input(value); err != nil {
		return classify(err, ErrInteractionFailed)
	}
	return nil
}

func (d *RodDriver) SetSelect(ctx context.Context, h Handle, value string) error {
	el, err := element(h)
	if err != nil {
		return err
	}
	sel := fmt.Sprintf(`[value=%q]`, value)
	if err := el.Context(ctx).Select([]string{sel}, true, rod.SelectorTypeCSSSector); err != nil {
		return classify(err, ErrInteractionFailed)
	}
	return nil
}

func (d *RodDriver) SetCheckbox(ctx context.Context, h Handle, checked bool) error {
	el, err := element(h)
	if err != nil {
		return err
	}
	el = el.Context(ctx)
	prop, err := el.Property("checked")
	if err != nil {
		return classify(err, ErrInteractionFailed)
	}
	if prop.Bool() == checked {
		return nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return classify(err, ErrInteractionFailed)
	}
	return nil
}

func (d *RodDriver) Click(ctx context.Context, h Handle) error {
	el, err := element(h)
	if err != nil {
		return err
	}
	if err := el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return classify(err, ErrInteractionFailed)
	}
	return nil
}

func (d *RodDriver) Screenshot(ctx context.Context) ([]byte, error) {
	buf, err := d.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, classify(err, ErrInteractionFailed)
	}
	return buf, nil
}

func (d *RodDriver) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	return d.browser.Close()
}

func element(h Handle) (*rod.Element, error) {
	el, ok := h.(*rod.Element)
	if !ok {
		return nil, fmt.Errorf("%w: foreign handle %T", ErrInteractionFailed, h)
	}
	return el, nil
}

// classify maps a backend error onto the driver taxonomy: context expiry
// becomes ErrTimeout, anything else becomes the given fallback condition.
func classify(err error, fallback error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", fallback, err)
}
