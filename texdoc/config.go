package texdoc

import "time"

// Config configures the extractor. Zero values fall back to the standard
// TeX Live tool names and the production timeouts.
type Config struct {
	// TexcountBin is the word-counting binary. Default: "texcount".
	TexcountBin string
	// PdflatexBin is the typesetting binary. Default: "pdflatex".
	PdflatexBin string
	// CountTimeout bounds one texcount run. Default: 30s.
	CountTimeout time.Duration
	// CompileTimeout bounds one pdflatex run. Default: 2m.
	CompileTimeout time.Duration
}

func (c *Config) defaults() {
	if c.TexcountBin == "" {
		c.TexcountBin = "texcount"
	}
	if c.PdflatexBin == "" {
		c.PdflatexBin = "pdflatex"
	}
	if c.CountTimeout <= 0 {
		c.CountTimeout = 30 * time.Second
	}
	if c.CompileTimeout <= 0 {
		c.CompileTimeout = 2 * time.Minute
	}
}
