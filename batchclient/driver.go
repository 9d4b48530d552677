package batchclient

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

var supportedExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
	".bmp":  {},
	".tif":  {},
	".tiff": {},
}

// Driver walks a directory and uploads every image file whose name yields
// identifiers. Work is partitioned into sequential windows of Concurrency
// uploads; each window is awaited fully before the next starts, and a halt
// on failure never cancels in-flight calls mid-window.
type Driver struct {
	Client          *Client
	Concurrency     int
	ContinueOnError bool
	NumericOnly     bool
	RunID           string
}

type fileJob struct {
	path       string
	name       string
	articleIDs []string
}

type fileOutcome struct {
	succeeded    bool
	associations int
	failures     []Failure
}

func (d *Driver) Run(ctx context.Context, dir string) (*Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	concurrency := d.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	report := &Report{}
	var jobs []fileJob

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := supportedExtensions[strings.ToLower(filepath.Ext(entry.Name()))]; !ok {
			continue
		}
		names = append(names, entry.Name())
	}
	// Directory order is not guaranteed everywhere; sort for a reproducible
	// report structure.
	sort.Strings(names)

	for _, name := range names {
		ids := ExtractIdentifiers(name, d.NumericOnly)
		if len(ids) == 0 {
			// No identifiers derivable from the name: skipped, not failed.
			report.Attempted++
			report.Skipped++
			continue
		}
		jobs = append(jobs, fileJob{
			path:       filepath.Join(dir, name),
			name:       name,
			articleIDs: ids,
		})
	}

	for start := 0; start < len(jobs); start += concurrency {
		end := start + concurrency
		if end > len(jobs) {
			end = len(jobs)
		}
		window := jobs[start:end]
		report.Attempted += len(window)
		outcomes := make([]fileOutcome, len(window))

		var g errgroup.Group
		for i, job := range window {
			g.Go(func() error {
				outcomes[i] = d.uploadOne(ctx, job)
				return nil
			})
		}
		_ = g.Wait()

		windowFailed := false
		for _, outcome := range outcomes {
			if outcome.succeeded {
				report.Succeeded++
			} else {
				report.Failed++
				windowFailed = true
			}
			report.Associations += outcome.associations
			report.Failures = append(report.Failures, outcome.failures...)
		}

		if windowFailed && !d.ContinueOnError {
			report.Halted = true
			break
		}
	}

	return report, nil
}

func (d *Driver) uploadOne(ctx context.Context, job fileJob) fileOutcome {
	outcome, err := d.Client.Upload(ctx, job.path, job.articleIDs, d.RunID)
	if err != nil {
		return fileOutcome{
			failures: []Failure{{File: job.name, Message: err.Error()}},
		}
	}

	result := fileOutcome{succeeded: outcome.Failed == 0}
	for _, status := range outcome.Results {
		if status.Status == "success" {
			result.associations++
			continue
		}
		result.failures = append(result.failures, Failure{
			File:       job.name,
			Identifier: status.ArticleID,
			Message:    status.Error,
		})
	}
	return result
}
