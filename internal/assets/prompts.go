// Package assets provides the prompt templates sent to Gemini.
//
// Prompts are stored as text files under prompts/ and embedded at compile time.
package assets

import (
	"bytes"
	_ "embed"
	"text/template"
)

// ElaborationSystemPrompt frames the topic elaboration call.
//
//go:embed prompts/elaborate-system.txt
var ElaborationSystemPrompt string

// CodeGenerationSystemPrompt frames the scene code generation call.
//
//go:embed prompts/codegen-system.txt
var CodeGenerationSystemPrompt string

//go:embed prompts/elaborate.txt
var elaborateTemplate string

//go:embed prompts/codegen.txt
var codegenTemplate string

var funcs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
}

// template.Must panics on malformed templates at program startup rather
// than at call time.
var (
	elaboratePromptTmpl = template.Must(template.New("elaborate").Parse(elaborateTemplate))
	codegenPromptTmpl   = template.Must(template.New("codegen").Funcs(funcs).Parse(codegenTemplate))
)

// ElaborationData fills the elaboration prompt.
type ElaborationData struct {
	Topic         string
	ModeLabel     string
	ThreeD        bool
	TargetSeconds int
}

// CodeData fills the code generation prompt.
type CodeData struct {
	Title          string
	NarrationLines []string
	VisualBeats    []string
	BaseClass      string
	ThreeD         bool
	TargetSeconds  int
}

// RenderElaborationPrompt renders the topic elaboration prompt.
func RenderElaborationPrompt(d ElaborationData) string {
	return render(elaboratePromptTmpl, d)
}

// RenderCodePrompt renders the scene code generation prompt.
func RenderCodePrompt(d CodeData) string {
	return render(codegenPromptTmpl, d)
}

func render(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	// Execution cannot fail for these templates and data types; return what
	// was rendered regardless.
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}
