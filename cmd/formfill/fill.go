package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/mendrika-alma/formfill/pkg/config"
	"github.com/mendrika-alma/formfill/pkg/driver"
	"github.com/mendrika-alma/formfill/pkg/engine"
	"github.com/mendrika-alma/formfill/pkg/progress"
	"github.com/mendrika-alma/formfill/pkg/schema"
	"github.com/mendrika-alma/formfill/pkg/store"
)

func newFillCmd() *cobra.Command {
	var (
		cfgPath    string
		recordPath string
		targetURL  string
	)

	cmd := &cobra.Command{
		Use:   "fill",
		Short: "Run a one-shot form fill from a record file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if targetURL != "" {
				cfg.TargetFormURL = targetURL
			}
			return fillOnce(cfg, recordPath)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to YAML config file")
	cmd.Flags().StringVarP(&recordPath, "record", "r", "", "path to the record JSON file")
	cmd.Flags().StringVar(&targetURL, "url", "", "override the target form URL")
	_ = cmd.MarkFlagRequired("record")
	return cmd
}

func fillOnce(cfg config.Config, recordPath string) error {
	data, err := os.ReadFile(recordPath)
	if err != nil {
		return err
	}
	var rec schema.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("parse record: %w", err)
	}

	shots, err := store.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	channel := progress.NewChannel()
	eng := engine.New(
		driver.NewRodFactory(driver.RodConfig{Headless: cfg.Headless}),
		channel,
		shots,
		engine.Config{
			TargetURL:       cfg.TargetFormURL,
			PageLoadTimeout: cfg.PageLoadTimeout(),
			LocatorTimeout:  cfg.LocatorTimeout(),
			RetryCount:      cfg.RetryCount,
			RetryBackoff:    cfg.RetryBackoff(),
			StepDelay:       cfg.StepDelay(),
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sub := channel.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		renderProgress(sub)
	}()

	report := eng.Run(ctx, &rec)
	channel.Close()
	wg.Wait()

	printReport(report)
	if !report.Success {
		return errors.New("form fill failed")
	}
	return nil
}

func renderProgress(sub *progress.Subscription) {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("filling form"),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	for ev := range sub.Events() {
		_ = bar.Set(int(ev.Progress))
		if ev.Status == schema.StatusError {
			fmt.Fprintf(os.Stderr, "\n%s %s: %s\n", color.RedString("✗"), ev.Field, ev.Message)
		}
	}
	_ = bar.Finish()
}

func printReport(report *schema.Report) {
	if report.Success {
		color.Green("form filled: %d/%d fields", report.FilledFields, report.TotalFields)
	} else {
		color.Red("form fill failed: %d/%d fields", report.FilledFields, report.TotalFields)
	}
	for _, e := range report.Errors {
		fmt.Println("  -", e)
	}
	if report.ScreenshotID != nil {
		fmt.Println("screenshot:", *report.ScreenshotID)
	}
}
