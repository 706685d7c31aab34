package reporting

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/firmware-ci/fw-acceptor/runner"
	"github.com/firmware-ci/fw-acceptor/templates"
	"github.com/firmware-ci/fw-acceptor/types"
)

// htmlReportTemplate renders the per-batch results page. Log paths are
// relative links so the page keeps working when the run directory is copied
// off the CI machine.
const htmlReportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Firmware Acceptance Results ({{.RunID}})</title>
<style>
body { font-family: monospace; margin: 2em; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3em 0.8em; text-align: left; }
tr.pass td.status { color: #080; }
tr.fail td.status { color: #b00; font-weight: bold; }
.summary { margin-top: 1em; }
.aborted { color: #b00; }
</style>
</head>
<body>
<h1>Firmware Acceptance Results</h1>
<p>Run {{.RunID}} &mdash; overall <strong>{{getStatusText (getOverallStatus .Stats)}}</strong>{{if .Aborted}} <span class="aborted">(aborted after first failure)</span>{{end}}</p>
<table>
<tr><th>Example</th><th>Mode</th><th>Status</th><th>Duration</th><th>Log</th><th>Error</th></tr>
{{range .Outcomes}}<tr class="{{getStatusClass .Status}}">
<td>{{.Descriptor.Name}}</td>
<td>{{.Descriptor.Mode}}</td>
<td class="status">{{getStatusText .Status}}</td>
<td>{{formatDuration .Duration}}</td>
<td>{{if .LogPath}}<a href="{{.LogPath}}">log</a>{{end}}</td>
<td>{{.ErrorText}}</td>
</tr>
{{end}}</table>
<p class="summary">
Total: {{.Stats.Total}} &middot; Passed: {{.Stats.Passed}} &middot; Failed: {{.Stats.Failed}}<br>
Build time: {{formatDuration .Stats.BuildTime}} &middot; Test time: {{formatDuration .Stats.RunTime}}
</p>
</body>
</html>
`

// HTMLSink renders a batch result to results.html in the output directory.
type HTMLSink struct {
	baseDir string
	tmpl    *template.Template
}

// htmlOutcome is one table row; log links are relative to the report file.
type htmlOutcome struct {
	Descriptor types.TestDescriptor
	Status     types.TestStatus
	Duration   time.Duration
	LogPath    string
	ErrorText  string
}

// htmlReport is the data handed to the report template.
type htmlReport struct {
	RunID    string
	Stats    types.BatchStats
	Aborted  bool
	Outcomes []htmlOutcome
}

// NewHTMLSink creates a new HTML sink.
func NewHTMLSink(baseDir string) *HTMLSink {
	tmpl := template.Must(template.New("results").
		Funcs(templates.GetTemplateFunc()).
		Parse(htmlReportTemplate))
	return &HTMLSink{baseDir: baseDir, tmpl: tmpl}
}

// Complete writes the HTML report file for the batch.
func (s *HTMLSink) Complete(result *runner.BatchResult) error {
	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", s.baseDir, err)
	}

	report := htmlReport{
		RunID:   result.RunID,
		Stats:   result.Stats,
		Aborted: result.Aborted,
	}
	for _, outcome := range result.SortedOutcomes() {
		row := htmlOutcome{
			Descriptor: outcome.Descriptor,
			Status:     outcome.Status,
			Duration:   outcome.Duration,
			LogPath:    s.relativeLogPath(outcome.LogPath),
		}
		if outcome.Error != nil {
			row.ErrorText = firstLine(outcome.Error.Error())
		}
		report.Outcomes = append(report.Outcomes, row)
	}

	var buf bytes.Buffer
	if err := s.tmpl.Execute(&buf, report); err != nil {
		return fmt.Errorf("failed to format HTML: %w", err)
	}

	htmlFile := filepath.Join(s.baseDir, "results.html")
	if err := os.WriteFile(htmlFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}
	return nil
}

// relativeLogPath rewrites an absolute archived log path to one relative to
// the report file, falling back to the absolute path when it lies outside
// the output directory.
func (s *HTMLSink) relativeLogPath(logPath string) string {
	if logPath == "" {
		return ""
	}
	rel, err := filepath.Rel(s.baseDir, logPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		return logPath
	}
	return rel
}
