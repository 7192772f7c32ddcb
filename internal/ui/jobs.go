// Package ui renders the HTML job list served at the server root.
package ui

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"
)

// JobListItem is one row of the job list.
type JobListItem struct {
	ID          string
	State       string
	TrackPath   string
	Strategy    string
	Round       int
	Iterations  int
	BestTime    float64
	InitialTime float64
	StartTime   time.Time
	EndTime     *time.Time
	Error       string
}

// Improvement returns the seconds gained over the centerline.
func (j JobListItem) Improvement() float64 {
	if j.InitialTime <= 0 {
		return 0
	}
	return j.InitialTime - j.BestTime
}

// Duration returns how long the job ran, or has been running.
func (j JobListItem) Duration() time.Duration {
	end := time.Now()
	if j.EndTime != nil {
		end = *j.EndTime
	}
	return end.Sub(j.StartTime).Round(time.Second)
}

// Artifacts lists the downloadable views of a finished job.
var Artifacts = []string{"line.svg", "line.csv", "line.gpx", "speed.png", "speed.html"}

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Racing line jobs</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
th, td { padding: 4px 10px; border-bottom: 1px solid #ddd; text-align: left; }
.state-running { color: #0275d8; }
.state-completed { color: #2ca02c; }
.state-failed { color: #d9534f; }
.state-cancelled { color: #777; }
</style>
</head>
<body>
<h1>Racing line jobs</h1>
`

const pageTail = `</body>
</html>
`

// JobList renders the full job list page.
func JobList(jobs []JobListItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, pageHead); err != nil {
			return err
		}
		if len(jobs) == 0 {
			if _, err := io.WriteString(w, "<p>No jobs yet.</p>\n"); err != nil {
				return err
			}
		} else {
			if _, err := io.WriteString(w, "<table>\n<tr><th>Job</th><th>State</th><th>Track</th><th>Strategy</th><th>Round</th><th>Lap time</th><th>Gain</th><th>Duration</th><th>Results</th></tr>\n"); err != nil {
				return err
			}
			for _, job := range jobs {
				if err := jobRow(job).Render(ctx, w); err != nil {
					return err
				}
			}
			if _, err := io.WriteString(w, "</table>\n"); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, pageTail)
		return err
	})
}

func jobRow(job JobListItem) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		id := job.ID
		if len(id) > 8 {
			id = id[:8]
		}
		state := templ.EscapeString(job.State)
		if job.Error != "" {
			state = fmt.Sprintf(`<span title="%s">%s</span>`, templ.EscapeString(job.Error), state)
		}
		_, err := fmt.Fprintf(w,
			"<tr><td><a href=\"/api/v1/jobs/%s\"><code>%s</code></a></td><td class=\"state-%s\">%s</td><td>%s</td><td>%s</td><td>%d/%d</td><td>%.3f s</td><td>%.3f s</td><td>%s</td><td>",
			templ.EscapeString(job.ID), templ.EscapeString(id),
			templ.EscapeString(job.State), state,
			templ.EscapeString(job.TrackPath), templ.EscapeString(job.Strategy),
			job.Round, job.Iterations,
			job.BestTime, job.Improvement(), job.Duration(),
		)
		if err != nil {
			return err
		}
		if job.BestTime > 0 {
			for _, name := range Artifacts {
				if _, err := fmt.Fprintf(w, `<a href="/api/v1/jobs/%s/%s">%s</a> `,
					templ.EscapeString(job.ID), name, name); err != nil {
					return err
				}
			}
		}
		_, err = io.WriteString(w, "</td></tr>\n")
		return err
	})
}
