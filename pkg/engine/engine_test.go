package engine

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mendrika-alma/formfill/pkg/driver"
	"github.com/mendrika-alma/formfill/pkg/formmap"
	"github.com/mendrika-alma/formfill/pkg/schema"
	"github.com/mendrika-alma/formfill/pkg/store"
)

// capture collects every published event in emission order.
type capture struct {
	mu     sync.Mutex
	events []schema.ProgressEvent
}

func (c *capture) Publish(ev schema.ProgressEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *capture) all() []schema.ProgressEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]schema.ProgressEvent, len(c.events))
	copy(out, c.events)
	return out
}

type write struct {
	selector string
	value    string
}

// fakeDriver scripts per-selector outcomes and records interactions.
type fakeDriver struct {
	mu          sync.Mutex
	locateErr   map[string]error
	selectErr   map[string]error
	navErr      error
	shotErr     error
	closed      bool
	locateCalls map[string]int
	writes      []write
	checks      map[string]bool
	onSetText   func(selector string)
}

func newFakeDriver() *fakeDriver {
	return &fakeDriver{
		locateErr:   make(map[string]error),
		selectErr:   make(map[string]error),
		locateCalls: make(map[string]int),
		checks:      make(map[string]bool),
	}
}

type fakeHandle string

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	return d.navErr
}

func (d *fakeDriver) Locate(ctx context.Context, loc driver.Locator) (driver.Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locateCalls[loc.Selector]++
	if err := d.locateErr[loc.Selector]; err != nil {
		return nil, err
	}
	return fakeHandle(loc.Selector), nil
}

func (d *fakeDriver) SetText(ctx context.Context, h driver.Handle, value string) error {
	sel := string(h.(fakeHandle))
	d.mu.Lock()
	d.writes = append(d.writes, write{selector: sel, value: value})
	cb := d.onSetText
	d.mu.Unlock()
	if cb != nil {
		cb(sel)
	}
	return nil
}

func (d *fakeDriver) SetSelect(ctx context.Context, h driver.Handle, value string) error {
	sel := string(h.(fakeHandle))
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.selectErr[sel]; err != nil {
		return err
	}
	d.writes = append(d.writes, write{selector: sel, value: value})
	return nil
}

func (d *fakeDriver) SetCheckbox(ctx context.Context, h driver.Handle, checked bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.checks[string(h.(fakeHandle))] = checked
	return nil
}

func (d *fakeDriver) Click(ctx context.Context, h driver.Handle) error { return nil }

func (d *fakeDriver) Screenshot(ctx context.Context) ([]byte, error) {
	if d.shotErr != nil {
		return nil, d.shotErr
	}
	return []byte("png-bytes"), nil
}

func (d *fakeDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func textEntry(fieldID, selector string, required bool, source func(*schema.Record) string) formmap.Entry {
	return formmap.Entry{
		FieldID:  fieldID,
		Kind:     formmap.KindText,
		Locator:  driver.Locator{Selector: selector},
		Required: required,
		Text:     source,
	}
}

// threeStepEntries is the canonical three-required-field plan.
func threeStepEntries() []formmap.Entry {
	return []formmap.Entry{
		textEntry("representative.family_name", "#family-name", true,
			func(r *schema.Record) string { return r.Representative.FamilyName }),
		textEntry("representative.given_name", "#given-name", true,
			func(r *schema.Record) string { return r.Representative.GivenName }),
		textEntry("subject.surname", "#passport-surname", true,
			func(r *schema.Record) string { return r.Subject.Surname }),
	}
}

func threeStepRecord() *schema.Record {
	return &schema.Record{
		Representative: schema.Representative{FamilyName: "Doe", GivenName: "Jane"},
		Subject:        schema.SubjectPerson{Surname: "Smith"},
	}
}

func testConfig() Config {
	return Config{
		TargetURL:       "http://form.test/",
		PageLoadTimeout: time.Second,
		LocatorTimeout:  20 * time.Millisecond,
		RetryCount:      2,
		RetryBackoff:    time.Millisecond,
	}
}

func newTestEngine(drv *fakeDriver, pub *capture, shots store.Store, entries []formmap.Entry) *Engine {
	factory := func(ctx context.Context) (driver.Driver, error) { return drv, nil }
	return New(factory, pub, shots, testConfig(), WithEntries(entries))
}

func TestRunAllFieldsSucceed(t *testing.T) {
	drv := newFakeDriver()
	pub := &capture{}
	shots := store.NewMemoryStore()
	eng := newTestEngine(drv, pub, shots, threeStepEntries())

	report := eng.Run(context.Background(), threeStepRecord())

	assert.True(t, report.Success)
	assert.Equal(t, 3, report.FilledFields)
	assert.Equal(t, 3, report.TotalFields)
	assert.Empty(t, report.Errors)
	require.NotNil(t, report.ScreenshotID)

	data, err := shots.Get(*report.ScreenshotID)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.True(t, drv.closed)

	events := pub.all()
	require.Len(t, events, 6)
	wantFields := []string{
		"representative.family_name", "representative.family_name",
		"representative.given_name", "representative.given_name",
		"subject.surname", "subject.surname",
	}
	wantStatus := []string{
		schema.StatusFilling, schema.StatusDone,
		schema.StatusFilling, schema.StatusDone,
		schema.StatusFilling, schema.StatusDone,
	}
	wantProgress := []float64{33, 33, 67, 67, 100, 100}
	for i, ev := range events {
		assert.Equal(t, wantFields[i], ev.Field, "event %d field", i)
		assert.Equal(t, wantStatus[i], ev.Status, "event %d status", i)
		assert.Equal(t, wantProgress[i], ev.Progress, "event %d progress", i)
	}
}

func TestRunRequiredFieldLocatorTimeout(t *testing.T) {
	drv := newFakeDriver()
	drv.locateErr["#given-name"] = fmt.Errorf("%w: #given-name", driver.ErrTimeout)
	pub := &capture{}
	eng := newTestEngine(drv, pub, store.NewMemoryStore(), threeStepEntries())

	report := eng.Run(context.Background(), threeStepRecord())

	assert.False(t, report.Success)
	assert.Equal(t, 2, report.FilledFields)
	assert.Equal(t, 3, report.TotalFields)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "representative.given_name")

	// 1 attempt + 2 retries
	assert.Equal(t, 3, drv.locateCalls["#given-name"])
	assert.True(t, drv.closed)

	var sawError bool
	for _, ev := range pub.all() {
		if ev.Field == "representative.given_name" && ev.Status == schema.StatusError {
			sawError = true
		}
	}
	assert.True(t, sawError, "a failed required field must emit an error event")
}

func TestRunOptionalFieldFailureKeepsSuccess(t *testing.T) {
	entries := threeStepEntries()
	entries[1].Required = false
	drv := newFakeDriver()
	drv.locateErr["#given-name"] = fmt.Errorf("%w: #given-name", driver.ErrLocatorNotFound)
	pub := &capture{}
	eng := newTestEngine(drv, pub, store.NewMemoryStore(), entries)

	report := eng.Run(context.Background(), threeStepRecord())

	assert.True(t, report.Success, "optional field failures must not flip success")
	assert.Equal(t, 2, report.FilledFields)
	assert.Equal(t, 3, report.TotalFields)
	assert.Len(t, report.Errors, 1)
}

func TestRunNavigationFailure(t *testing.T) {
	drv := newFakeDriver()
	drv.navErr = fmt.Errorf("%w: connection refused", driver.ErrNavigationFailed)
	pub := &capture{}
	eng := newTestEngine(drv, pub, store.NewMemoryStore(), threeStepEntries())

	report := eng.Run(context.Background(), threeStepRecord())

	assert.False(t, report.Success)
	assert.Equal(t, 0, report.FilledFields)
	assert.Equal(t, 3, report.TotalFields)
	require.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Errors[0], schema.NavigationField)
	assert.True(t, drv.closed)

	// A partially loaded page is still screenshot-worthy.
	assert.NotNil(t, report.ScreenshotID)

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, schema.NavigationField, events[0].Field)
	assert.Equal(t, schema.StatusError, events[0].Status)
}

func TestRunBrowserLaunchFailureIsNavigationFailure(t *testing.T) {
	pub := &capture{}
	factory := func(ctx context.Context) (driver.Driver, error) {
		return nil, fmt.Errorf("chromium not found")
	}
	eng := New(factory, pub, store.NewMemoryStore(), testConfig(), WithEntries(threeStepEntries()))

	report := eng.Run(context.Background(), threeStepRecord())

	assert.False(t, report.Success)
	assert.Equal(t, 0, report.FilledFields)
	assert.Nil(t, report.ScreenshotID)
	require.Len(t, pub.all(), 1)
	assert.Equal(t, schema.NavigationField, pub.all()[0].Field)
}

func TestRunCancellationMidRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	drv := newFakeDriver()
	drv.onSetText = func(selector string) {
		if selector == "#family-name" {
			cancel()
		}
	}
	pub := &capture{}
	eng := newTestEngine(drv, pub, store.NewMemoryStore(), threeStepEntries())

	report := eng.Run(ctx, threeStepRecord())

	assert.False(t, report.Success)
	assert.Equal(t, 1, report.FilledFields)
	require.NotEmpty(t, report.Errors)
	assert.Contains(t, report.Errors[len(report.Errors)-1], "run cancelled")
	assert.True(t, drv.closed, "the browser must be released on cancellation")

	// No events for steps after the cancellation point.
	for _, ev := range pub.all() {
		assert.NotEqual(t, "subject.surname", ev.Field)
	}
}

func TestRunRequiredEmptyValue(t *testing.T) {
	rec := threeStepRecord()
	rec.Representative.GivenName = ""
	drv := newFakeDriver()
	pub := &capture{}
	eng := newTestEngine(drv, pub, store.NewMemoryStore(), threeStepEntries())

	report := eng.Run(context.Background(), rec)

	assert.False(t, report.Success)
	assert.Equal(t, 2, report.FilledFields)
	assert.Equal(t, 3, report.TotalFields)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "required value missing")
	// The page is never touched for a value we do not have.
	assert.Zero(t, drv.locateCalls["#given-name"])
}

func TestRunSharedControlLaterEntryWins(t *testing.T) {
	entries := []formmap.Entry{
		textEntry("representative.apt_number", "#unit", false,
			func(r *schema.Record) string { return r.Representative.AptNumber }),
		textEntry("representative.apt_type", "#unit", false,
			func(r *schema.Record) string { return r.Representative.AptType }),
	}
	rec := &schema.Record{Representative: schema.Representative{AptNumber: "4B", AptType: "ste"}}
	drv := newFakeDriver()
	pub := &capture{}
	eng := newTestEngine(drv, pub, store.NewMemoryStore(), entries)

	report := eng.Run(context.Background(), rec)

	assert.True(t, report.Success)
	require.Len(t, drv.writes, 2)
	assert.Equal(t, "ste", drv.writes[1].value, "the later declaration owns the final write")
	// Both fields still report their own progress.
	assert.Len(t, pub.all(), 4)
}

func TestRunSelectOptionMissingIsSkippedGracefully(t *testing.T) {
	entries := []formmap.Entry{
		{
			FieldID: "representative.state",
			Kind:    formmap.KindSelect,
			Locator: driver.Locator{Selector: "#state"},
			Text:    func(r *schema.Record) string { return r.Representative.State },
		},
	}
	rec := &schema.Record{Representative: schema.Representative{State: "Bavaria"}}
	drv := newFakeDriver()
	drv.selectErr["#state"] = fmt.Errorf("%w: no such option", driver.ErrInteractionFailed)
	pub := &capture{}
	eng := newTestEngine(drv, pub, store.NewMemoryStore(), entries)

	report := eng.Run(context.Background(), rec)

	assert.True(t, report.Success)
	assert.Equal(t, 1, report.FilledFields)
	assert.Empty(t, report.Errors)
}

func TestRunRadioGroup(t *testing.T) {
	entries := []formmap.Entry{
		{
			FieldID: "representative.apt_type",
			Kind:    formmap.KindRadio,
			Options: []formmap.Option{
				{Value: "apt", Locator: driver.Locator{Selector: "#apt"}},
				{Value: "ste", Locator: driver.Locator{Selector: "#ste"}},
				{Value: "flr", Locator: driver.Locator{Selector: "#flr"}},
			},
			Text: func(r *schema.Record) string { return r.Representative.AptType },
		},
	}
	rec := &schema.Record{Representative: schema.Representative{AptType: "ste"}}
	drv := newFakeDriver()
	eng := newTestEngine(drv, &capture{}, store.NewMemoryStore(), entries)

	report := eng.Run(context.Background(), rec)

	assert.True(t, report.Success)
	assert.False(t, drv.checks["#apt"])
	assert.True(t, drv.checks["#ste"])
	assert.False(t, drv.checks["#flr"])
}

func TestRunScreenshotFailureIsNotFatal(t *testing.T) {
	drv := newFakeDriver()
	drv.shotErr = fmt.Errorf("%w: capture failed", driver.ErrInteractionFailed)
	pub := &capture{}
	eng := newTestEngine(drv, pub, store.NewMemoryStore(), threeStepEntries())

	report := eng.Run(context.Background(), threeStepRecord())

	assert.True(t, report.Success, "screenshot failure must not flip success")
	assert.Nil(t, report.ScreenshotID)
	require.Len(t, report.Errors, 1)
	assert.Contains(t, report.Errors[0], "screenshot")
}

func TestRunEmptyPlan(t *testing.T) {
	entries := []formmap.Entry{
		textEntry("representative.middle_name", "#middle-name", false,
			func(r *schema.Record) string { return r.Representative.MiddleName }),
	}
	drv := newFakeDriver()
	pub := &capture{}
	eng := newTestEngine(drv, pub, store.NewMemoryStore(), entries)

	report := eng.Run(context.Background(), &schema.Record{})

	assert.True(t, report.Success)
	assert.Equal(t, 0, report.TotalFields)
	assert.Equal(t, 0, report.FilledFields)
	assert.Empty(t, pub.all())
}

func TestRunProgressMonotonic(t *testing.T) {
	drv := newFakeDriver()
	drv.locateErr["#given-name"] = fmt.Errorf("%w", driver.ErrTimeout)
	pub := &capture{}
	eng := newTestEngine(drv, pub, store.NewMemoryStore(), threeStepEntries())

	eng.Run(context.Background(), threeStepRecord())

	events := pub.all()
	require.NotEmpty(t, events)
	last := float64(0)
	for i, ev := range events {
		assert.GreaterOrEqual(t, ev.Progress, last, "event %d regressed", i)
		last = ev.Progress
	}
	assert.Equal(t, float64(100), events[len(events)-1].Progress)
}
