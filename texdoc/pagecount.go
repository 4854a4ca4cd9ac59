package texdoc

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// logPagesRe matches the pdflatex log line "Output written on x.pdf (12 pages, ...".
var logPagesRe = regexp.MustCompile(`Output written on .+ \((\d+) pages?`)

// pageCount compiles the project and counts the pages of the artifact.
// If compilation yields no PDF the build log is scanned as fallback, so a
// stale-but-present log from an earlier run can still provide a count.
func (e *Extractor) pageCount(ctx context.Context, dir string) (int64, error) {
	main, err := FindMainFile(dir)
	if err != nil {
		return 0, err
	}

	pdfPath, compileErr := e.compile(ctx, dir, main)
	if compileErr == nil {
		if n, err := pdfPages(pdfPath); err == nil {
			return n, nil
		} else {
			e.logger.Warn("pdf page count failed, falling back to log", "pdf", pdfPath, "error", err)
		}
	} else {
		e.logger.Warn("compile failed, falling back to log", "dir", dir, "error", compileErr)
	}

	if n, err := pagesFromLog(main); err == nil {
		return n, nil
	}
	return 0, ErrPageCountUnavailable
}

// compile runs pdflatex non-interactively and returns the artifact path.
// pdflatex exits non-zero on recoverable errors while still writing a PDF, so
// success is defined by the artifact existing, not by the exit code.
func (e *Extractor) compile(ctx context.Context, dir, main string) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, e.cfg.CompileTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.cfg.PdflatexBin,
		"-interaction=nonstopmode", "-file-line-error", filepath.Base(main))
	cmd.Dir = dir
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stdout

	runErr := cmd.Run()
	if runCtx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("texdoc: pdflatex timed out after %s", e.cfg.CompileTimeout)
	}

	pdfPath := strings.TrimSuffix(main, filepath.Ext(main)) + ".pdf"
	if _, err := os.Stat(pdfPath); err == nil {
		return pdfPath, nil
	}

	if msg := firstErrorLine(stdout.String()); msg != "" {
		return "", fmt.Errorf("%w: %s", ErrCompileFailed, msg)
	}
	if runErr != nil {
		return "", fmt.Errorf("%w: %v", ErrCompileFailed, runErr)
	}
	return "", ErrCompileFailed
}

// firstErrorLine pulls the first pdflatex error line out of the transcript.
func firstErrorLine(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "!") || strings.Contains(line, "Error") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

// pdfPages counts the pages of a PDF via pdfcpu.
func pdfPages(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	pdfCtx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return int64(pdfCtx.PageCount), nil
}

// pagesFromLog scans the pdflatex .log next to the main file for the page
// marker. The log is latin-1; reading raw bytes is fine for the ASCII marker.
func pagesFromLog(main string) (int64, error) {
	logPath := strings.TrimSuffix(main, filepath.Ext(main)) + ".log"
	data, err := os.ReadFile(logPath)
	if err != nil {
		return 0, fmt.Errorf("texdoc: read log: %w", err)
	}
	m := logPagesRe.FindSubmatch(data)
	if m == nil {
		return 0, ErrPageCountUnavailable
	}
	return strconv.ParseInt(string(m[1]), 10, 64)
}
