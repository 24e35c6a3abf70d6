package output

import (
	"fmt"
	"io"

	"github.com/schollz/progressbar/v3"
)

// Progress renders matrix progress as "done / total" on a terminal bar.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress creates a bar sized to the full matrix.
func NewProgress(w io.Writer, total int) *Progress {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Matrix"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("calls"),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
	)
	return &Progress{bar: bar}
}

// Update moves the bar to done and labels it with the current cell.
func (p *Progress) Update(done, total int, label string) {
	if label != "" {
		p.bar.Describe(label)
	}
	_ = p.bar.Set(done)
}

// Finish completes the bar.
func (p *Progress) Finish() {
	_ = p.bar.Finish()
}
