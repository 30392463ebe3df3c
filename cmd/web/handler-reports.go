package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"slices"

	"github.com/myrjola/tatugym/internal/errors"
)

// maxReportSize bounds the body of browser reports.
const maxReportSize = 64 * 1024

// legacyCSPReport is the body posted to the report-uri directive.
type legacyCSPReport struct {
	CSPReport struct {
		DocumentURI        string `json:"document-uri"`
		Referrer           string `json:"referrer"`
		ViolatedDirective  string `json:"violated-directive"`
		EffectiveDirective string `json:"effective-directive"`
		Disposition        string `json:"disposition"`
		BlockedURI         string `json:"blocked-uri"`
		LineNumber         int    `json:"line-number"`
		ColumnNumber       int    `json:"column-number"`
		SourceFile         string `json:"source-file"`
		ScriptSample       string `json:"script-sample"`
	} `json:"csp-report"`
}

func (rep legacyCSPReport) attrs() []slog.Attr {
	v := rep.CSPReport
	return []slog.Attr{
		slog.String("document_uri", v.DocumentURI),
		slog.String("violated_directive", v.ViolatedDirective),
		slog.String("effective_directive", v.EffectiveDirective),
		slog.String("blocked_uri", v.BlockedURI),
		slog.String("source_file", v.SourceFile),
		slog.Int("line_number", v.LineNumber),
		slog.Int("column_number", v.ColumnNumber),
		slog.String("script_sample", v.ScriptSample),
		slog.String("disposition", v.Disposition),
		slog.String("referrer", v.Referrer),
	}
}

// readReport reads a report body of at most maxReportSize bytes. It responds with 400 Bad Request and returns false
// when the body cannot be read.
func (app *application) readReport(w http.ResponseWriter, r *http.Request, contentTypes ...string) ([]byte, bool) {
	ctx := r.Context()
	if contentType := r.Header.Get("Content-Type"); contentType != "" && !slices.Contains(contentTypes, contentType) {
		app.logger.LogAttrs(ctx, slog.LevelWarn, "report with unexpected content type",
			slog.String("content_type", contentType))
	}
	defer r.Body.Close()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxReportSize))
	if err != nil {
		app.logger.LogAttrs(ctx, slog.LevelError, "read report body", errors.SlogError(err))
		http.Error(w, "Bad request", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func (app *application) rejectReport(w http.ResponseWriter, r *http.Request, body []byte, err error) {
	app.logger.LogAttrs(r.Context(), slog.LevelError, "parse report", errors.SlogError(err),
		slog.String("body", string(body)))
	http.Error(w, "Bad request", http.StatusBadRequest)
}

// cspViolation logs the violations posted to the report-uri directive of the Content-Security-Policy.
func (app *application) cspViolation(w http.ResponseWriter, r *http.Request) {
	body, ok := app.readReport(w, r, "application/csp-report", "application/json")
	if !ok {
		return
	}
	var report legacyCSPReport
	if err := json.Unmarshal(body, &report); err != nil {
		app.rejectReport(w, r, body, err)
		return
	}
	app.logger.LogAttrs(r.Context(), slog.LevelWarn, "csp violation",
		append(report.attrs(), slog.String("user_agent", r.UserAgent()))...)
	w.WriteHeader(http.StatusNoContent)
}

// reportingAPI logs the reports delivered to the Reporting-Endpoints header. Browsers post a JSON array of reports
// while older ones post a single CSP report object.
//
// See: https://developer.mozilla.org/en-US/docs/Web/API/Reporting_API
func (app *application) reportingAPI(w http.ResponseWriter, r *http.Request) {
	body, ok := app.readReport(w, r, "application/reports+json", "application/csp-report", "application/json")
	if !ok {
		return
	}
	var reports []map[string]any
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '{' {
		var report map[string]any
		if err := json.Unmarshal(trimmed, &report); err != nil {
			app.rejectReport(w, r, body, err)
			return
		}
		reports = append(reports, report)
	} else if err := json.Unmarshal(trimmed, &reports); err != nil {
		app.rejectReport(w, r, body, err)
		return
	}
	for _, report := range reports {
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "browser report",
			slog.Any("type", report["type"]),
			slog.Any("payload", report),
			slog.String("user_agent", r.UserAgent()))
	}
	w.WriteHeader(http.StatusNoContent)
}
