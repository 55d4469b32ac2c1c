package preview

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"github.com/russross/blackfriday/v2"
)

var (
	// [x](Endpoints/a.md) from the root page, [x](../Schemas/b.md) from topic pages
	topicLink = regexp.MustCompile(`\]\((?:\.\./)?(Endpoints|Schemas)/([^)\s/]+)\.md\)`)
	// [Back to M](../M.md)
	rootLink = regexp.MustCompile(`\]\(\.\./[^)\s/]+\.md\)`)
)

// HTMLRenderer turns catalog markdown into standalone HTML pages
type HTMLRenderer struct {
	template *template.Template
}

// NewHTMLRenderer creates a renderer
func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		template: template.Must(template.New("page").Parse(pageTemplate)),
	}
}

// Render converts one catalog page. Links between catalog files are
// rewritten to preview routes.
func (r *HTMLRenderer) Render(module string, markdown []byte) ([]byte, error) {
	body := blackfriday.Run(rewriteLinks(markdown), blackfriday.WithExtensions(blackfriday.CommonExtensions))

	data := struct {
		Module  string
		Title   string
		Content template.HTML
	}{
		Module:  module,
		Title:   pageTitle(markdown, module),
		Content: template.HTML(body),
	}

	var buf bytes.Buffer
	if err := r.template.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func rewriteLinks(markdown []byte) []byte {
	out := topicLink.ReplaceAllFunc(markdown, func(m []byte) []byte {
		parts := topicLink.FindSubmatch(m)
		return []byte("](/" + strings.ToLower(string(parts[1])) + "/" + string(parts[2]) + ")")
	})
	return rootLink.ReplaceAll(out, []byte("](/)"))
}

// pageTitle is the first level-one heading, else fallback
func pageTitle(markdown []byte, fallback string) string {
	for _, line := range strings.Split(string(markdown), "\n") {
		if title, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(title)
		}
	}
	return fallback
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{ .Title }} - {{ .Module }}</title>
    <style>
        body {
            font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            line-height: 1.6;
            color: #333;
            background: #f5f5f5;
            margin: 0;
        }
        header {
            background: #2c3e50;
            color: white;
            padding: 16px 20px;
        }
        header a {
            color: white;
            text-decoration: none;
            font-weight: 600;
        }
        .content {
            max-width: 1100px;
            margin: 30px auto;
            background: white;
            padding: 30px;
            border-radius: 8px;
            box-shadow: 0 2px 4px rgba(0,0,0,0.1);
        }
        h2 {
            color: #2c3e50;
            padding-bottom: 8px;
            border-bottom: 2px solid #3498db;
        }
        table {
            width: 100%;
            border-collapse: collapse;
            margin: 20px 0;
        }
        th {
            background: #ecf0f1;
            padding: 10px;
            text-align: left;
            border-bottom: 2px solid #bdc3c7;
        }
        td {
            padding: 10px;
            border-bottom: 1px solid #ecf0f1;
        }
        code {
            background: #f8f9fa;
            padding: 2px 6px;
            border-radius: 3px;
            font-family: "Monaco", "Menlo", "Ubuntu Mono", monospace;
            font-size: 0.9em;
            color: #e74c3c;
        }
        pre {
            background: #2c3e50;
            color: #ecf0f1;
            padding: 15px;
            border-radius: 5px;
            overflow-x: auto;
        }
        pre code {
            background: none;
            color: #ecf0f1;
            padding: 0;
        }
        blockquote {
            border-left: 4px solid #e74c3c;
            margin: 15px 0;
            padding: 5px 15px;
            background: #fdf2f2;
        }
        a {
            color: #3498db;
        }
    </style>
</head>
<body>
    <header><a href="/">{{ .Module }}</a></header>
    <div class="content">
{{ .Content }}
    </div>
</body>
</html>
`
