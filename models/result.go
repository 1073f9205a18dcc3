package models

import "errors"

// Result is the outcome of one browse run. Exactly one of Text and Error is
// non-nil once the run completes; Title and Status stay nil when navigation
// failed before a response arrived.
type Result struct {
	URL        string  `json:"url"`
	Title      *string `json:"title"`
	Status     *int    `json:"status"`
	Text       *string `json:"text"`
	Screenshot *string `json:"screenshot"`
	Error      *string `json:"error"`

	// Code is the ScrapeError code behind Error. Not part of the JSON record.
	Code string `json:"-"`

	// Warnings collects non-fatal debug-capture problems.
	Warnings []string `json:"-"`
}

// NewResult returns an empty Result for the normalized URL.
func NewResult(url string) *Result {
	return &Result{URL: url}
}

// Succeed records the extracted text and clears any error.
func (r *Result) Succeed(text string) {
	r.Text = &text
	r.Error = nil
	r.Code = ""
}

// Fail records err as the run's error and clears any text. ScrapeErrors
// contribute their code and user-facing message.
func (r *Result) Fail(err error) {
	msg := err.Error()
	var se *ScrapeError
	if errors.As(err, &se) {
		msg = se.UserMessage()
	}
	r.Error = &msg
	r.Code = CodeOf(err)
	r.Text = nil
}

// Warn appends a non-fatal warning.
func (r *Result) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// OK reports whether the run completed without an error.
func (r *Result) OK() bool {
	return r.Error == nil
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// IntPtr returns a pointer to i.
func IntPtr(i int) *int { return &i }
