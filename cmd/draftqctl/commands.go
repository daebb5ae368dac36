package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/draftq-processor/internal/domain"
	"github.com/andresuchdata/draftq-processor/internal/poller"
	"github.com/andresuchdata/draftq-processor/internal/spreadsheet"
	"github.com/urfave/cli/v2"
)

func runProcess(c *cli.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}

	link, err := a.ProcessService.Process(c.Context, c.String("key"))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "output:  %s\nexpires: %s\nurl:     %s\n",
		link.Key, link.ExpiresAt.Format(time.RFC3339), link.URL)
	return nil
}

func runWait(c *cli.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}

	p := a.Poller
	if c.IsSet("timeout") || c.IsSet("interval") {
		p = poller.New(a.Storage, poller.Options{
			Timeout:  durationOr(c.Duration("timeout"), a.Poller.Timeout()),
			Interval: durationOr(c.Duration("interval"), a.Poller.Interval()),
		})
	}

	key := c.String("key")
	outcome, err := p.Wait(c.Context, a.Config.Storage.Bucket, key)
	if err != nil {
		return err
	}
	if outcome != domain.Found {
		return cli.Exit(fmt.Sprintf("%s did not appear within %s", key, p.Timeout()), 2)
	}

	fmt.Fprintf(c.App.Writer, "%s found\n", key)
	return nil
}

func runInspect(c *cli.Context) error {
	file := c.String("file")
	if out := c.String("out"); out != "" {
		return spreadsheet.ConvertXLSXToCSV(file, out)
	}
	return spreadsheet.WriteCSV(file, c.App.Writer)
}

func runJobs(c *cli.Context) error {
	a, err := appFrom(c)
	if err != nil {
		return err
	}
	if !a.Config.Database.Enabled {
		return cli.Exit("job history is only persisted when JOBS_DB_ENABLED=true", 1)
	}

	jobs, err := a.ProcessService.Jobs(c.Context, c.Int("limit"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSTATUS\tDURATION\tSOURCE\tOUTPUT")
	for _, job := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			job.StartedAt.Format(time.RFC3339),
			domain.JobStatusLabel(job.Status),
			job.Duration().Round(time.Millisecond),
			job.SourceKey,
			job.OutputKey,
		)
	}
	return w.Flush()
}

func durationOr(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}
