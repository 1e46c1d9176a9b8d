package ui

import (
	"strings"
)

// ResultType indicates the outcome shown in a result box
type ResultType int

const (
	ResultSuccess ResultType = iota
	ResultFailure
	ResultWarning
)

// Result is a bordered summary printed at the end of a command
type Result struct {
	Type    ResultType
	Title   string
	Details []Param
	Error   error
	Hints   []string // Troubleshooting suggestions for failures
	Width   int
}

// NewSuccessResult creates a success result box
func NewSuccessResult(title string, details ...Param) *Result {
	return &Result{Type: ResultSuccess, Title: title, Details: details, Width: GetTerminalWidth()}
}

// NewFailureResult creates a failure result box
func NewFailureResult(title string, err error, hints ...string) *Result {
	return &Result{Type: ResultFailure, Title: title, Error: err, Hints: hints, Width: GetTerminalWidth()}
}

// NewWarningResult creates a warning result box
func NewWarningResult(title string, details ...Param) *Result {
	return &Result{Type: ResultWarning, Title: title, Details: details, Width: GetTerminalWidth()}
}

// SetWidth sets the width for rendering
func (r *Result) SetWidth(width int) *Result {
	r.Width = width
	return r
}

// AddDetail appends a detail line
func (r *Result) AddDetail(key, value string) *Result {
	r.Details = append(r.Details, Param{Key: key, Value: value})
	return r
}

// Render returns the styled result box
func (r *Result) Render() string {
	width := clampWidth(r.Width)

	lines := []string{""}
	switch r.Type {
	case ResultFailure:
		lines = append(lines, ErrorTitleStyle.Render("   "+FailureMarker+"  FAILED  ─  "+r.Title), "")
		if r.Error != nil {
			lines = append(lines, ErrorMessageStyle.Render("   Error: "+r.Error.Error()), "")
		}
		if len(r.Hints) > 0 {
			lines = append(lines, HintTitleStyle.Render("   Troubleshooting:"))
			for _, hint := range r.Hints {
				lines = append(lines, HintItemStyle.Render("     • "+hint))
			}
			lines = append(lines, "")
		}
	case ResultWarning:
		lines = append(lines, WarningTitleStyle.Render("   "+WarningMarker+"  WARNING  ─  "+r.Title), "")
		lines = append(lines, r.detailLines()...)
	default:
		lines = append(lines, SuccessTitleStyle.Render("   "+SuccessMarker+"  SUCCESS  ─  "+r.Title), "")
		lines = append(lines, r.detailLines()...)
	}

	color := SuccessColor
	switch r.Type {
	case ResultFailure:
		color = ErrorColor
	case ResultWarning:
		color = WarningColor
	}
	return boxStyle(color, width).Render(strings.Join(lines, "\n"))
}

func (r *Result) detailLines() []string {
	if len(r.Details) == 0 {
		return nil
	}
	lines := make([]string, 0, len(r.Details)+1)
	for _, d := range r.Details {
		lines = append(lines, ResultKeyStyle.Render("   "+d.Key+":")+" "+ResultValueStyle.Render(d.Value))
	}
	return append(lines, "")
}

// String implements fmt.Stringer
func (r *Result) String() string {
	return r.Render()
}
