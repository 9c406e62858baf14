package preview

import (
	"strings"
	"testing"
)

const testHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Test</title>
</head>
<body>
  <h1>Hello</h1>
</body>
</html>`

func TestComposeInlinesStyleAndScript(t *testing.T) {
	doc := Compose(testHTML, "body { color: red; }", "console.log('hi');", Customization{})

	styleIdx := strings.Index(doc, "<style>")
	headIdx := strings.Index(doc, "</head>")
	if styleIdx < 0 || headIdx < 0 || styleIdx > headIdx {
		t.Errorf("expected <style> before </head>, got:\n%s", doc)
	}
	if !strings.Contains(doc, "body { color: red; }") {
		t.Error("expected CSS inlined in document")
	}

	scriptIdx := strings.Index(doc, "<script>")
	bodyIdx := strings.Index(doc, "</body>")
	if scriptIdx < 0 || bodyIdx < 0 || scriptIdx > bodyIdx {
		t.Errorf("expected <script> before </body>, got:\n%s", doc)
	}
	if !strings.Contains(doc, "console.log('hi');") {
		t.Error("expected JS inlined in document")
	}
}

func TestComposeMultibyteTitle(t *testing.T) {
	// "İ" lowercases to a shorter byte sequence; the tag search must not
	// let that shift the splice offsets.
	page := `<html><head><title>İstanbul Düğmesi</title></head><body><p>Merhaba</p></body></html>`
	doc := Compose(page, "p { color: red; }", "console.log('ok');", Customization{})

	if !strings.Contains(doc, "<title>İstanbul Düğmesi</title>") {
		t.Errorf("title corrupted by splice:\n%s", doc)
	}
	if !strings.Contains(doc, "</style>\n</head>") {
		t.Errorf("style not spliced cleanly before </head>:\n%s", doc)
	}
	if !strings.Contains(doc, "</script>\n</body>") {
		t.Errorf("script not spliced cleanly before </body>:\n%s", doc)
	}
}

func TestComposeUppercaseTags(t *testing.T) {
	page := `<HTML><HEAD></HEAD><BODY></BODY></HTML>`
	doc := Compose(page, "b {}", "1;", Customization{})

	if !strings.Contains(doc, "</style>\n</HEAD>") {
		t.Errorf("style not spliced before uppercase </HEAD>:\n%s", doc)
	}
	if !strings.Contains(doc, "</script>\n</BODY>") {
		t.Errorf("script not spliced before uppercase </BODY>:\n%s", doc)
	}
}

func TestComposeWithoutHeadOrBody(t *testing.T) {
	doc := Compose("<div>bare fragment</div>", "div { margin: 0; }", "alert(1);", Customization{})

	if !strings.HasPrefix(doc, "<style>") {
		t.Error("expected style prepended when document has no head")
	}
	if !strings.HasSuffix(strings.TrimSpace(doc), "</script>") {
		t.Error("expected script appended when document has no body")
	}
}

func TestComposeAppliesCustomization(t *testing.T) {
	custom := Customization{PrimaryColor: "#ff0000", BorderRadius: 8, FontSize: 14}
	doc := Compose(testHTML, "body {}", "", custom)

	for _, want := range []string{
		"--primary-color: #ff0000;",
		"--border-radius: 8px;",
		"--font-size: 14px;",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("expected %q in composed document", want)
		}
	}

	// Custom properties come before the bite's own CSS so it can override.
	rootIdx := strings.Index(doc, ":root")
	cssIdx := strings.Index(doc, "body {}")
	if rootIdx < 0 || cssIdx < 0 || rootIdx > cssIdx {
		t.Error("expected :root block ahead of the bite stylesheet")
	}
}

func TestCustomizationFromBiteJSON(t *testing.T) {
	biteJSON := `{
  "name": "test",
  "customization": {
    "primaryColor": "#00ff00",
    "borderRadius": 12,
    "fontSize": 16
  }
}`
	c := CustomizationFromBiteJSON(biteJSON)
	if c.PrimaryColor != "#00ff00" || c.BorderRadius != 12 || c.FontSize != 16 {
		t.Errorf("unexpected customization: %+v", c)
	}
}

func TestCustomizationFromBiteJSONMalformed(t *testing.T) {
	c := CustomizationFromBiteJSON("{not json")
	if !c.empty() {
		t.Errorf("expected zero customization for malformed input, got %+v", c)
	}

	c = CustomizationFromBiteJSON(`{"name":"no customization key"}`)
	if !c.empty() {
		t.Errorf("expected zero customization when key missing, got %+v", c)
	}
}

func TestRenderMarkdown(t *testing.T) {
	html, err := RenderMarkdown("# Title\n\nSome *emphasis* here.")
	if err != nil {
		t.Fatalf("RenderMarkdown returned error: %v", err)
	}
	if !strings.Contains(html, "<h1>Title</h1>") {
		t.Errorf("expected rendered heading, got:\n%s", html)
	}
	if !strings.Contains(html, "<em>emphasis</em>") {
		t.Errorf("expected rendered emphasis, got:\n%s", html)
	}
}

func TestHighlightKnownAndUnknownTypes(t *testing.T) {
	out, err := Highlight("script.js", "const x = 1;")
	if err != nil {
		t.Fatalf("Highlight returned error: %v", err)
	}
	if !strings.Contains(out, "const") {
		t.Errorf("expected source text in highlighted output, got:\n%s", out)
	}

	out, err = Highlight("data.xyzunknown", "plain text content")
	if err != nil {
		t.Fatalf("Highlight returned error for unknown extension: %v", err)
	}
	if !strings.Contains(out, "plain text content") {
		t.Errorf("expected fallback output to contain source, got:\n%s", out)
	}
}
