package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/muurk/ssdpd/internal/catalog"
)

// Printer writes UI components to a writer. Commands print through a Printer
// rather than to stdout directly so output can be captured in tests.
type Printer struct {
	out   io.Writer
	width int
}

// NewPrinter creates a Printer for w. If w is nil, os.Stdout is used.
func NewPrinter(w io.Writer) *Printer {
	if w == nil {
		w = os.Stdout
	}
	return &Printer{out: w, width: GetTerminalWidth()}
}

// WithWidth overrides the detected terminal width
func (p *Printer) WithWidth(width int) *Printer {
	p.width = width
	return p
}

// Width returns the width used by this printer
func (p *Printer) Width() int {
	return p.width
}

// Println writes content with a newline
func (p *Printer) Println(content string) {
	_, _ = fmt.Fprintln(p.out, content)
}

// Newline prints an empty line
func (p *Printer) Newline() {
	_, _ = fmt.Fprintln(p.out)
}

// PrintHeader prints a command header box
func (p *Printer) PrintHeader(title, command string, params ...Param) {
	p.Println(NewHeader(title, command, params...).SetWidth(p.width).Render())
}

// PrintSuccess prints a success result box
func (p *Printer) PrintSuccess(title string, details ...Param) {
	p.Println(NewSuccessResult(title, details...).SetWidth(p.width).Render())
}

// PrintWarning prints a warning result box
func (p *Printer) PrintWarning(title string, details ...Param) {
	p.Println(NewWarningResult(title, details...).SetWidth(p.width).Render())
}

// PrintError prints a failure result box with troubleshooting hints
func (p *Printer) PrintError(title string, err error, hints ...string) {
	p.Println(NewFailureResult(title, err, hints...).SetWidth(p.width).Render())
}

// PrintDevices prints a device table, or a note when there are none
func (p *Printer) PrintDevices(devices []*catalog.Device) {
	if len(devices) == 0 {
		p.Println(HintItemStyle.Render("  No devices found."))
		return
	}
	p.Println(RenderDeviceTable(devices, p.width))
}

// PrintDevice prints one device as a tree
func (p *Printer) PrintDevice(d *catalog.Device) {
	p.Println(RenderDeviceTree(d))
}
