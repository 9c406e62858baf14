// Package preview renders share-page artifacts from a bite's files: the
// composed standalone HTML document, the README as HTML, and
// syntax-highlighted source listings.
package preview

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
)

var mdRenderer = goldmark.New()

// Customization is the optional appearance block of a bite.json file. The
// zero value means "no customization".
type Customization struct {
	PrimaryColor string `json:"primaryColor"`
	BorderRadius int    `json:"borderRadius"`
	FontSize     int    `json:"fontSize"`
}

func (c Customization) empty() bool {
	return c.PrimaryColor == "" && c.BorderRadius == 0 && c.FontSize == 0
}

// CustomizationFromBiteJSON extracts the "customization" object from a
// bite.json document. A missing key or unparseable document yields the zero
// Customization, never an error: a malformed descriptor must not break the
// share page.
func CustomizationFromBiteJSON(biteJSON string) Customization {
	var doc struct {
		Customization Customization `json:"customization"`
	}
	if err := json.Unmarshal([]byte(biteJSON), &doc); err != nil {
		return Customization{}
	}
	return doc.Customization
}

// Compose assembles a standalone HTML document from a bite's three core
// files. The CSS is inlined in a <style> tag before </head> (or prepended
// when the HTML has no head), the JS in a <script> tag before </body> (or
// appended). When a customization is present, its values become CSS custom
// properties on :root ahead of the bite's own stylesheet so the stylesheet
// can override them.
func Compose(indexHTML, styleCSS, scriptJS string, custom Customization) string {
	var css strings.Builder
	if !custom.empty() {
		css.WriteString(":root {\n")
		if custom.PrimaryColor != "" {
			fmt.Fprintf(&css, "  --primary-color: %s;\n", custom.PrimaryColor)
		}
		if custom.BorderRadius != 0 {
			fmt.Fprintf(&css, "  --border-radius: %dpx;\n", custom.BorderRadius)
		}
		if custom.FontSize != 0 {
			fmt.Fprintf(&css, "  --font-size: %dpx;\n", custom.FontSize)
		}
		css.WriteString("}\n")
	}
	css.WriteString(styleCSS)

	doc := indexHTML

	styleTag := "<style>\n" + css.String() + "\n</style>"
	if idx := indexFold(doc, "</head>"); idx >= 0 {
		doc = doc[:idx] + styleTag + "\n" + doc[idx:]
	} else {
		doc = styleTag + "\n" + doc
	}

	scriptTag := "<script>\n" + scriptJS + "\n</script>"
	if idx := indexFold(doc, "</body>"); idx >= 0 {
		doc = doc[:idx] + scriptTag + "\n" + doc[idx:]
	} else {
		doc = doc + "\n" + scriptTag
	}

	return doc
}

// indexFold returns the byte offset of the first case-insensitive match of
// tag in doc. Folding is byte-wise ASCII only, so the offset is valid in
// doc itself; a full Unicode lowering could change byte lengths (e.g.
// U+0130) and shift every offset after it.
func indexFold(doc, tag string) int {
	lowered := make([]byte, len(doc))
	for i := 0; i < len(doc); i++ {
		c := doc[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		lowered[i] = c
	}
	return strings.Index(string(lowered), tag)
}

// RenderMarkdown converts Markdown source to HTML.
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("preview: rendering markdown: %w", err)
	}
	return buf.String(), nil
}

// Highlight renders source code as syntax-highlighted HTML. The lexer is
// chosen from the filename; unknown extensions fall back to plain text.
func Highlight(filename, source string) (string, error) {
	lexer := lexers.Match(filename)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return "", fmt.Errorf("preview: tokenising %s: %w", filename, err)
	}

	formatter := html.New(html.WithClasses(false), html.Standalone(false))
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "", fmt.Errorf("preview: formatting %s: %w", filename, err)
	}
	return buf.String(), nil
}
