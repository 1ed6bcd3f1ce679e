// Package difftest runs the same test cases through a Python function
// and its TypeScript port and diffs the outputs. Each side runs in a
// sandboxed interpreter subprocess through a small harness that prints
// one JSON line per case; comparison happens on the decoded values, so
// key order and number formatting differences do not count as
// mismatches.
package difftest

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	tsberrors "github.com/tsbridge/tsbridge/internal/errors"
)

//go:embed harness/harness.py harness/harness.mjs
var harnesses embed.FS

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Options configures a Runner. Zero values pick defaults.
type Options struct {
	PythonBin string
	NodeBin   string
	Timeout   time.Duration
	MaxCases  int
	Logger    *slog.Logger
}

const (
	defaultTimeout  = 10 * time.Second
	defaultMaxCases = 50
)

// Runner executes differential test requests.
type Runner struct {
	pythonBin string
	nodeBin   string
	timeout   time.Duration
	maxCases  int
	logger    *slog.Logger
}

// New creates a Runner. Interpreter availability is checked per run,
// not here, so a missing interpreter only fails the requests that
// need it.
func New(opts Options) *Runner {
	if opts.PythonBin == "" {
		opts.PythonBin = "python3"
	}
	if opts.NodeBin == "" {
		opts.NodeBin = "node"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxCases <= 0 {
		opts.MaxCases = defaultMaxCases
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Runner{
		pythonBin: opts.PythonBin,
		nodeBin:   opts.NodeBin,
		timeout:   opts.Timeout,
		maxCases:  opts.MaxCases,
		logger:    opts.Logger,
	}
}

// Request is one differential test: a Python function, its TypeScript
// port (as runnable ESM JavaScript), and the argument lists to feed
// both.
type Request struct {
	// PythonCode is a module defining Function at top level.
	PythonCode string

	// TSCode is an ES module exporting Function. It must already be
	// executable JavaScript; type annotations are the only TypeScript
	// syntax node rejects, so strip or compile them first.
	TSCode string

	// Function is the name called on both sides.
	Function string

	// Cases holds one JSON array of positional arguments per case.
	Cases []json.RawMessage
}

// CaseResult reports one case's outcome on both sides.
type CaseResult struct {
	Index       int             `json:"index"`
	Args        json.RawMessage `json:"args"`
	Match       bool            `json:"match"`
	PythonValue json.RawMessage `json:"pythonValue,omitempty"`
	TSValue     json.RawMessage `json:"typescriptValue,omitempty"`
	PythonError string          `json:"pythonError,omitempty"`
	TSError     string          `json:"typescriptError,omitempty"`
}

// Report aggregates all case results.
type Report struct {
	Total    int          `json:"total"`
	Matched  int          `json:"matched"`
	AllMatch bool         `json:"allMatch"`
	Results  []CaseResult `json:"results"`
}

// Run executes every case through both interpreters and compares the
// decoded outputs case by case.
func (r *Runner) Run(ctx context.Context, req Request) (*Report, error) {
	if err := r.validate(req); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "tsbridge-difftest-*")
	if err != nil {
		return nil, tsberrors.InternalError("cannot create scratch directory", err)
	}
	defer os.RemoveAll(dir)

	paths, err := writeScratch(dir, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	pyLines, err := r.runSide(ctx, r.pythonBin, []string{paths.pyHarness, paths.pyModule, req.Function, paths.cases}, len(req.Cases))
	if err != nil {
		return nil, err
	}
	tsLines, err := r.runSide(ctx, r.nodeBin, []string{paths.jsHarness, paths.jsModule, req.Function, paths.cases}, len(req.Cases))
	if err != nil {
		return nil, err
	}

	report := buildReport(req.Cases, pyLines, tsLines)
	r.logger.Info("differential test finished",
		"function", req.Function,
		"cases", report.Total,
		"matched", report.Matched,
		"duration", time.Since(start),
	)
	return report, nil
}

func (r *Runner) validate(req Request) error {
	if strings.TrimSpace(req.PythonCode) == "" || strings.TrimSpace(req.TSCode) == "" {
		return tsberrors.New(tsberrors.ErrCodeEmptyInput, "both pythonCode and typescriptCode are required", nil)
	}
	if !identifierRe.MatchString(req.Function) {
		return tsberrors.ValidationError(
			fmt.Sprintf("function name %q is not a valid identifier", req.Function), nil)
	}
	if len(req.Cases) == 0 {
		return tsberrors.New(tsberrors.ErrCodeEmptyInput, "at least one test case is required", nil).
			WithSuggestion("pass testCases as an array of argument arrays, e.g. [[1, 2], [3, 4]]")
	}
	if len(req.Cases) > r.maxCases {
		return tsberrors.New(tsberrors.ErrCodeInputTooLong,
			fmt.Sprintf("%d test cases exceeds the limit of %d", len(req.Cases), r.maxCases), nil)
	}
	for i, c := range req.Cases {
		var args []json.RawMessage
		if err := json.Unmarshal(c, &args); err != nil {
			return tsberrors.ValidationError(
				fmt.Sprintf("test case %d is not a JSON array of arguments", i), err)
		}
	}
	return nil
}

type scratchPaths struct {
	pyModule, jsModule   string
	pyHarness, jsHarness string
	cases                string
}

func writeScratch(dir string, req Request) (scratchPaths, error) {
	p := scratchPaths{
		pyModule:  filepath.Join(dir, "target.py"),
		jsModule:  filepath.Join(dir, "target.mjs"),
		pyHarness: filepath.Join(dir, "harness.py"),
		jsHarness: filepath.Join(dir, "harness.mjs"),
		cases:     filepath.Join(dir, "cases.json"),
	}

	casesJSON, err := json.Marshal(req.Cases)
	if err != nil {
		return p, tsberrors.InternalError("cannot encode test cases", err)
	}

	files := []struct {
		path string
		data []byte
	}{
		{p.pyModule, []byte(req.PythonCode)},
		{p.jsModule, []byte(req.TSCode)},
		{p.cases, casesJSON},
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, f.data, 0o600); err != nil {
			return p, tsberrors.InternalError(fmt.Sprintf("cannot write %s", filepath.Base(f.path)), err)
		}
	}
	for _, h := range []struct{ src, dst string }{
		{"harness/harness.py", p.pyHarness},
		{"harness/harness.mjs", p.jsHarness},
	} {
		data, err := harnesses.ReadFile(h.src)
		if err != nil {
			return p, tsberrors.InternalError("embedded harness missing", err)
		}
		if err := os.WriteFile(h.dst, data, 0o600); err != nil {
			return p, tsberrors.InternalError(fmt.Sprintf("cannot write %s", filepath.Base(h.dst)), err)
		}
	}
	return p, nil
}

// harnessLine is the one-JSON-object-per-case protocol both harnesses
// speak on stdout.
type harnessLine struct {
	OK    bool            `json:"ok"`
	Value json.RawMessage `json:"value"`
	Error string          `json:"error"`
}

// runSide executes one interpreter and parses its per-case output
// lines.
func (r *Runner) runSide(ctx context.Context, bin string, args []string, wantCases int) ([]harnessLine, error) {
	if _, err := exec.LookPath(bin); err != nil {
		return nil, tsberrors.New(tsberrors.ErrCodeInterpreterMissing,
			fmt.Sprintf("interpreter %q not found in PATH", bin), err).
			WithSuggestion(fmt.Sprintf("install %s or point the config at the right binary", bin))
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return nil, tsberrors.New(tsberrors.ErrCodeSubprocessTimeout,
			fmt.Sprintf("%s did not finish within %s", bin, r.timeout), runCtx.Err()).
			WithSuggestion("reduce the number of test cases or raise difftest.timeout")
	}
	if err != nil {
		return nil, tsberrors.SubprocessError(
			fmt.Sprintf("%s exited with an error", bin), err).
			WithDetail("stderr", truncate(stderr.String(), 2000))
	}

	lines, err := parseLines(stdout.Bytes())
	if err != nil {
		return nil, tsberrors.SubprocessError(
			fmt.Sprintf("%s produced malformed harness output", bin), err).
			WithDetail("stdout", truncate(stdout.String(), 2000))
	}
	if len(lines) != wantCases {
		return nil, tsberrors.SubprocessError(
			fmt.Sprintf("%s reported %d results for %d cases", bin, len(lines), wantCases), nil).
			WithDetail("stderr", truncate(stderr.String(), 2000))
	}
	return lines, nil
}

func parseLines(out []byte) ([]harnessLine, error) {
	var lines []harnessLine
	for _, raw := range bytes.Split(out, []byte("\n")) {
		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		var line harnessLine
		if err := json.Unmarshal(raw, &line); err != nil {
			return nil, fmt.Errorf("bad harness line %q: %w", truncate(string(raw), 200), err)
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
