package texdoc

import "errors"

// ErrNoSource is returned when a project tree contains no .tex file.
var ErrNoSource = errors.New("texdoc: no .tex file found")

// ErrCountUnavailable is returned when the texcount binary is missing.
var ErrCountUnavailable = errors.New("texdoc: texcount not found, install TeX Live")

// ErrCountParse is returned when texcount output has no recognisable total.
var ErrCountParse = errors.New("texdoc: could not parse texcount output")

// ErrCompileFailed is returned when pdflatex produces no PDF artifact.
var ErrCompileFailed = errors.New("texdoc: compilation failed")

// ErrPageCountUnavailable is returned when neither the PDF nor the build log
// yields a page count.
var ErrPageCountUnavailable = errors.New("texdoc: page count unavailable")
