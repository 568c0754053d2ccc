// Package verify checks generated patches before they are offered to the IDE.
package verify

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxErrors caps reported problems on heavily malformed input
const maxErrors = 20

// Result is the outcome of verifying one patch
type Result struct {
	Valid    bool
	Errors   []string
	Language string
	// Supported is false when no grammar exists for the language; such
	// patches are accepted without a syntax check.
	Supported bool
	Unchanged bool
}

// Verifier parses patched code and reports syntax problems
type Verifier struct {
	tracer trace.Tracer
}

// NewVerifier creates a new patch verifier
func NewVerifier() *Verifier {
	return &Verifier{tracer: otel.Tracer("patch-verifier")}
}

// Verify parses patched with the grammar for language. An error is returned
// only when parsing itself could not run.
func (v *Verifier) Verify(ctx context.Context, original, patched, language string) (*Result, error) {
	ctx, span := v.tracer.Start(ctx, "verify.patch")
	defer span.End()

	lang := normalizeLanguage(language)
	span.SetAttributes(attribute.String("language", lang))

	res := &Result{
		Valid:     true,
		Errors:    []string{},
		Language:  lang,
		Unchanged: strings.TrimSpace(original) == strings.TrimSpace(patched),
	}

	if strings.TrimSpace(patched) == "" {
		res.Valid = false
		res.Errors = append(res.Errors, "patched code is empty")
		return res, nil
	}

	grammar := grammarFor(lang)
	if grammar == nil {
		return res, nil
	}
	res.Supported = true

	parser := sitter.NewParser()
	parser.SetLanguage(grammar)

	content := []byte(patched)
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("parsing failed: %w", err)
	}
	defer tree.Close()

	collectErrors(tree.RootNode(), content, &res.Errors, 0)
	res.Valid = len(res.Errors) == 0
	span.SetAttributes(attribute.Int("error_count", len(res.Errors)))
	return res, nil
}

func collectErrors(node *sitter.Node, content []byte, errs *[]string, depth int) {
	if node == nil || depth > 1000 || len(*errs) >= maxErrors {
		return
	}

	if node.IsMissing() {
		p := node.StartPoint()
		*errs = append(*errs, fmt.Sprintf("line %d, col %d: missing %s", p.Row+1, p.Column, node.Type()))
	} else if node.IsError() {
		p := node.StartPoint()
		*errs = append(*errs, fmt.Sprintf("line %d, col %d: unexpected %q", p.Row+1, p.Column, snippet(node, content)))
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		collectErrors(node.Child(i), content, errs, depth+1)
	}
}

func snippet(node *sitter.Node, content []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if end > uint32(len(content)) {
		end = uint32(len(content))
	}
	if start >= end {
		return ""
	}
	return shorten(strings.TrimSpace(string(content[start:end])), snippetRunes)
}

const snippetRunes = 40

// shorten cuts s to n runes so multi-byte characters are never split
func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func normalizeLanguage(language string) string {
	switch l := strings.ToLower(strings.TrimSpace(language)); l {
	case "c++", "cc", "cxx", "hpp":
		return "cpp"
	case "h":
		return "c"
	case "golang":
		return "go"
	case "py":
		return "python"
	case "js", "jsx":
		return "javascript"
	default:
		return l
	}
}

func grammarFor(lang string) *sitter.Language {
	switch lang {
	case "c":
		return c.GetLanguage()
	case "cpp":
		return cpp.GetLanguage()
	case "go":
		return golang.GetLanguage()
	case "java":
		return java.GetLanguage()
	case "javascript":
		return javascript.GetLanguage()
	case "python":
		return python.GetLanguage()
	default:
		return nil
	}
}
