// Package engine orchestrates one form-fill run: it opens the target page,
// executes the resolved fill plan step by step against a driver, publishes
// a progress event per attempt, captures the final screenshot, and
// assembles the completion report.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/mendrika-alma/formfill/pkg/driver"
	"github.com/mendrika-alma/formfill/pkg/formmap"
	"github.com/mendrika-alma/formfill/pkg/metrics"
	"github.com/mendrika-alma/formfill/pkg/progress"
	"github.com/mendrika-alma/formfill/pkg/schema"
	"github.com/mendrika-alma/formfill/pkg/store"
)

// Config holds the externally supplied run parameters. Nothing here is
// hard-coded by the engine.
type Config struct {
	TargetURL       string
	PageLoadTimeout time.Duration // bound on opening the target page
	LocatorTimeout  time.Duration // bound on each locator wait
	RetryCount      int           // retries after the first attempt
	RetryBackoff    time.Duration // base delay between attempts
	StepDelay       time.Duration // settle pause after each step
}

// Engine executes runs. One Engine may serve many runs, strictly one at a
// time (see Runner).
type Engine struct {
	factory driver.Factory
	entries []formmap.Entry
	pub     progress.Publisher
	shots   store.Store
	cfg     Config
	logger  *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEntries overrides the default field map.
func WithEntries(entries []formmap.Entry) Option {
	return func(e *Engine) {
		e.entries = entries
	}
}

// New creates an engine. The factory opens a fresh driver session per run;
// pub receives every progress event; shots stores the final screenshot.
func New(factory driver.Factory, pub progress.Publisher, shots store.Store, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		factory: factory,
		entries: formmap.DefaultEntries(),
		pub:     pub,
		shots:   shots,
		cfg:     cfg,
		logger:  log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run fills the target form from rec and returns the completion report.
// The report is always produced: navigation failure, partial field
// failures, and cancellation all yield a terminal report, and the driver
// session is released on every exit path.
func (e *Engine) Run(ctx context.Context, rec *schema.Record) *schema.Report {
	start := time.Now()
	plan := formmap.Resolve(rec, e.entries)
	report := &schema.Report{
		TotalFields: len(plan),
		Errors:      []string{},
	}

	e.logger.Printf("run started: %d steps against %s", len(plan), e.cfg.TargetURL)

	drv, err := e.factory(ctx)
	if err != nil {
		e.logger.Printf("browser session failed: %v", err)
		e.failNavigation(report, err)
		e.observeRun(report, start, false)
		return report
	}
	defer drv.Close()

	navCtx, cancelNav := context.WithTimeout(ctx, e.cfg.PageLoadTimeout)
	err = drv.Navigate(navCtx, e.cfg.TargetURL)
	cancelNav()
	if err != nil {
		e.logger.Printf("navigation failed: %v", err)
		e.failNavigation(report, err)
		// The page may have partially loaded; a screenshot is still
		// worth attempting.
		e.finalize(ctx, drv, report)
		e.observeRun(report, start, false)
		return report
	}

	aborted := false
	requiredFailed := false
	total := len(plan)
	for i, step := range plan {
		if ctx.Err() != nil {
			aborted = true
			report.Errors = append(report.Errors, fmt.Sprintf("run cancelled before %s", step.FieldID))
			break
		}

		pct := percent(i+1, total)
		e.publish(step.FieldID, schema.StatusFilling, "Filling "+step.FieldID, pct)

		err := e.fillWithRetry(ctx, drv, step)
		switch {
		case err != nil && ctx.Err() != nil:
			aborted = true
			e.publish(step.FieldID, schema.StatusError, "run cancelled", pct)
			report.Errors = append(report.Errors, fmt.Sprintf("%s: run cancelled", step.FieldID))
		case err != nil:
			if step.Required {
				requiredFailed = true
			}
			e.logger.Printf("step %s failed: %v", step.FieldID, err)
			e.publish(step.FieldID, schema.StatusError, err.Error(), pct)
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", step.FieldID, err))
			metrics.FieldErrorsTotal.Inc()
		default:
			report.FilledFields++
			e.publish(step.FieldID, schema.StatusDone, "Filled "+step.FieldID, pct)
			metrics.FieldsFilledTotal.Inc()
		}
		if aborted {
			break
		}

		if e.cfg.StepDelay > 0 {
			if err := sleep(ctx, e.cfg.StepDelay); err != nil {
				aborted = true
				report.Errors = append(report.Errors, "run cancelled")
				break
			}
		}
	}

	report.Success = !aborted && !requiredFailed
	e.finalize(ctx, drv, report)
	e.observeRun(report, start, aborted)

	e.logger.Printf("run finished in %s: success=%t filled=%d/%d errors=%d",
		time.Since(start).Round(time.Millisecond), report.Success,
		report.FilledFields, report.TotalFields, len(report.Errors))
	return report
}

// failNavigation records a fatal pre-plan failure: one synthetic error
// event, zero filled fields, unsuccessful report.
func (e *Engine) failNavigation(report *schema.Report, err error) {
	msg := fmt.Sprintf("could not open target page: %v", err)
	e.publish(schema.NavigationField, schema.StatusError, msg, 0)
	report.Success = false
	report.FilledFields = 0
	report.Errors = append(report.Errors, schema.NavigationField+": "+msg)
}

// finalize captures and stores the full-page screenshot. Best-effort: a
// failure is recorded as a warning entry and never flips the outcome.
func (e *Engine) finalize(ctx context.Context, drv driver.Driver, report *schema.Report) {
	shotCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.cfg.PageLoadTimeout)
	defer cancel()

	data, err := drv.Screenshot(shotCtx)
	if err != nil {
		e.logger.Printf("screenshot failed: %v", err)
		report.Errors = append(report.Errors, fmt.Sprintf("screenshot: %v", err))
		return
	}

	id := uuid.NewString()
	if err := e.shots.Put(id, data); err != nil {
		e.logger.Printf("screenshot store failed: %v", err)
		report.Errors = append(report.Errors, fmt.Sprintf("screenshot: %v", err))
		return
	}
	report.ScreenshotID = &id
}

// fillWithRetry performs one step, retrying absent/slow locators up to the
// configured bound with a linear backoff. Interaction rejections are not
// retried.
func (e *Engine) fillWithRetry(ctx context.Context, drv driver.Driver, step formmap.Step) error {
	if step.Kind != formmap.KindCheckbox && step.Required && step.Value == "" {
		return errors.New("required value missing")
	}

	var lastErr error
	for attempt := 0; attempt <= e.cfg.RetryCount; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, e.cfg.RetryBackoff*time.Duration(attempt)); err != nil {
				return lastErr
			}
		}
		lastErr = e.interact(ctx, drv, step)
		if lastErr == nil {
			return nil
		}
		if !driver.Retryable(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (e *Engine) interact(ctx context.Context, drv driver.Driver, step formmap.Step) error {
	if step.Kind == formmap.KindRadio {
		return e.interactRadio(ctx, drv, step)
	}

	h, err := e.locate(ctx, drv, step.Locator)
	if err != nil {
		return err
	}

	switch step.Kind {
	case formmap.KindText:
		return drv.SetText(ctx, h, step.Value)
	case formmap.KindSelect:
		if err := drv.SetSelect(ctx, h, step.Value); err != nil {
			// The option may legitimately be missing (e.g. a foreign
			// state in a US-state dropdown); skip rather than fail the
			// field.
			if errors.Is(err, driver.ErrInteractionFailed) {
				e.logger.Printf("select option %q not available for %s", step.Value, step.FieldID)
				return nil
			}
			return err
		}
		return nil
	case formmap.KindCheckbox:
		return drv.SetCheckbox(ctx, h, step.Checked)
	default:
		return fmt.Errorf("unknown control kind %q", step.Kind)
	}
}

// interactRadio drives every option of the group: the chosen one checked,
// the rest unchecked.
func (e *Engine) interactRadio(ctx context.Context, drv driver.Driver, step formmap.Step) error {
	for _, opt := range step.Options {
		h, err := e.locate(ctx, drv, opt.Locator)
		if err != nil {
			return err
		}
		if err := drv.SetCheckbox(ctx, h, opt.Value == step.Value); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) locate(ctx context.Context, drv driver.Driver, loc driver.Locator) (driver.Handle, error) {
	locCtx, cancel := context.WithTimeout(ctx, e.cfg.LocatorTimeout)
	defer cancel()
	return drv.Locate(locCtx, loc)
}

func (e *Engine) publish(field, status, message string, pct float64) {
	if e.pub == nil {
		return
	}
	e.pub.Publish(schema.ProgressEvent{
		Field:    field,
		Status:   status,
		Message:  message,
		Progress: pct,
	})
}

func (e *Engine) observeRun(report *schema.Report, start time.Time, aborted bool) {
	result := "success"
	switch {
	case aborted:
		result = "aborted"
	case !report.Success:
		result = "failure"
	}
	metrics.RunsTotal.WithLabelValues(result).Inc()
	metrics.RunDurationSeconds.Observe(time.Since(start).Seconds())
}

// percent maps step completion onto a 0-100 scale, rounded to whole
// percent so a three-step plan reports 33, 67, 100.
func percent(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return math.Round(float64(done) / float64(total) * 100)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
