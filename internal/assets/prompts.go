// Package assets provides embedded static assets for the application.
//
// Prompt templates are stored as text files under prompts/ and embedded at
// compile time, keeping prompt wording out of Go source.
package assets

import (
	"bytes"
	_ "embed"
	"text/template"
)

// DescribeDefaultPrompt is the free-captioning instruction used when the user
// supplies no custom description prompt.
//
//go:embed prompts/describe-default.txt
var DescribeDefaultPrompt string

//go:embed prompts/filename-request.txt
var filenameRequestTemplate string

// Pre-parsed template. template.Must panics on a malformed template, catching
// errors at program startup rather than at call time.
var filenameRequestTmpl = template.Must(template.New("filename").Parse(filenameRequestTemplate))

// FilenamePromptData holds the dynamic data injected into the filename
// request template.
type FilenamePromptData struct {
	// OCRText is the machine-readable text extracted from the screenshot.
	// May be empty when the image contains no text.
	OCRText string

	// Caption is the AI-generated description of the screenshot.
	Caption string
}

// RenderFilenameRequest renders the filename request prompt with the
// extracted signals.
func RenderFilenameRequest(ocrText, caption string) string {
	var buf bytes.Buffer
	// Execution errors are not expected with this simple template; return
	// whatever was rendered.
	_ = filenameRequestTmpl.Execute(&buf, FilenamePromptData{OCRText: ocrText, Caption: caption})
	return buf.String()
}
