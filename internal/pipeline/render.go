package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/trustfuse/internal/model"
)

// Renderer writes fusion reports
type Renderer struct {
	pretty bool
	out    io.Writer
}

// NewRenderer creates a renderer printing summaries to stdout
func NewRenderer(pretty bool) *Renderer {
	return &Renderer{pretty: pretty, out: os.Stdout}
}

// RenderJSON writes the report as JSON, creating parent directories
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := r.MarshalReport(report)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// MarshalReport encodes the report as JSON with a trailing newline
func (r *Renderer) MarshalReport(report *model.Report) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if r.pretty {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderSummary prints a short human-readable summary
func (r *Renderer) RenderSummary(report *model.Report) {
	w := r.out
	res := report.Result

	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintf(w, "  Fusion: %s\n", report.Operator)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	for idx, in := range report.Inputs {
		fmt.Fprintf(w, "  [%d] %-28s w=%-8.4g T=%.3f I=%.3f F=%.3f\n",
			idx, truncate(in.Origin, 28), in.Weight, in.T, in.I, in.F)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Result:      T=%.6f I=%.6f F=%.6f\n", res.T(), res.I(), res.F())
	fmt.Fprintf(w, "  Seal:        %s\n", report.Seal)
	fmt.Fprintf(w, "  Judgment ID: %s\n", report.JudgmentID)
	if report.Verified {
		fmt.Fprintf(w, "  Verified:    ✓\n")
	} else {
		fmt.Fprintf(w, "  Verified:    not checked\n")
	}
	fmt.Fprintf(w, "  Confidence:  %s\n", report.Diagnostics.Confidence)
	fmt.Fprintln(w)

	for _, s := range report.Diagnostics.Signals {
		if s.Severity == model.SeverityInfo {
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", severityMark(s.Severity), s.Description)
	}
}

func severityMark(s model.SignalSeverity) string {
	switch s {
	case model.SeverityCritical:
		return "✗"
	case model.SeverityWarning:
		return "⚠"
	default:
		return "·"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

// sanitizeFilename turns a subject into a safe file name
func sanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		s = "report"
	}

	// Limit length
	if len(s) > 100 {
		s = s[:100]
	}

	return s
}

// ReportPath returns the output path for a subject inside dir
func ReportPath(dir, subject string) string {
	return filepath.Join(dir, sanitizeFilename(subject)+".json")
}
