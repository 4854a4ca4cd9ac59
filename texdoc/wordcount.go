package texdoc

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
)

// texcount output carries the aggregate total in parentheses when subcounts
// are present ("123+45+6 (174) Header+Body+Float"); otherwise the first
// integer token is the total.
var (
	parenTotalRe = regexp.MustCompile(`\((\d+)\)`)
	firstIntRe   = regexp.MustCompile(`(\d+)`)
)

// wordCount runs texcount on the resolved main file.
// -merge follows \input and \include so split chapter files are counted.
func (e *Extractor) wordCount(ctx context.Context, dir string) (int64, error) {
	main, err := FindMainFile(dir)
	if err != nil {
		return 0, err
	}

	runCtx, cancel := context.WithTimeout(ctx, e.cfg.CountTimeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, e.cfg.TexcountBin, "-merge", "-sum", "-q", "-1", main)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return 0, fmt.Errorf("texdoc: texcount timed out after %s", e.cfg.CountTimeout)
		}
		var execErr *exec.Error
		if errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound) {
			return 0, ErrCountUnavailable
		}
		return 0, fmt.Errorf("texdoc: texcount: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}

	return parseTexcountOutput(stdout.String())
}

// parseTexcountOutput extracts the word total: parenthesised aggregate first,
// then the first integer token as fallback.
func parseTexcountOutput(out string) (int64, error) {
	if m := parenTotalRe.FindStringSubmatch(out); m != nil {
		return strconv.ParseInt(m[1], 10, 64)
	}
	if m := firstIntRe.FindStringSubmatch(out); m != nil {
		return strconv.ParseInt(m[1], 10, 64)
	}
	return 0, fmt.Errorf("%w: %q", ErrCountParse, out)
}
