package routes

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/yamenzk/ptrainer/internal/config"
	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var openAPISpec []byte

const docsIndexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
  <style>
    body { margin: 0; font-family: Georgia, "Times New Roman", serif; color: #132019; background: #f6f7f4; }
    main { max-width: 960px; margin: 0 auto; padding: 40px 20px 56px; }
    h1 { margin: 0 0 8px; }
    p.meta { color: #536258; margin: 0 0 24px; }
    table { width: 100%; border-collapse: collapse; background: #fff; border: 1px solid #d8ddd6; }
    th, td { text-align: left; padding: 10px 12px; border-bottom: 1px solid #d8ddd6; vertical-align: top; }
    code { font-family: "SFMono-Regular", Consolas, monospace; font-size: 0.9rem; }
    .method { font-weight: bold; text-transform: uppercase; color: #1f6f4a; }
    pre { background: #0f172a; color: #e2e8f0; padding: 16px; border-radius: 8px; overflow: auto; }
  </style>
</head>
<body>
  <main>
    <h1>{{ .Title }}</h1>
    <p class="meta">Version {{ .Version }} &middot; loaded {{ .LoadedAt }} &middot; <a href="/docs/openapi.yaml">openapi.yaml</a></p>
    <table>
      <thead><tr><th>Method</th><th>Path</th><th>Summary</th></tr></thead>
      <tbody>
      {{ range .Operations }}
        <tr><td class="method">{{ .Method }}</td><td><code>{{ $.BasePath }}{{ .Path }}</code></td><td>{{ .Summary }}</td></tr>
      {{ end }}
      </tbody>
    </table>
    <h2>Raw spec</h2>
    <pre>{{ .Spec }}</pre>
  </main>
</body>
</html>
`

type openAPIDocument struct {
	OpenAPI string `yaml:"openapi"`
	Info    struct {
		Title   string `yaml:"title"`
		Version string `yaml:"version"`
	} `yaml:"info"`
	Servers []struct {
		URL string `yaml:"url"`
	} `yaml:"servers"`
	Paths map[string]map[string]yaml.Node `yaml:"paths"`
}

type docsOperation struct {
	Method  string
	Path    string
	Summary string
}

type docsPageData struct {
	Title      string
	Version    string
	BasePath   string
	LoadedAt   string
	Operations []docsOperation
	Spec       string
}

var httpMethods = map[string]int{"get": 0, "post": 1, "put": 2, "patch": 3, "delete": 4}

// parseOpenAPI checks the embedded document and flattens its operations for
// the index page.
func parseOpenAPI(spec []byte) (docsPageData, error) {
	var doc openAPIDocument
	if err := yaml.Unmarshal(spec, &doc); err != nil {
		return docsPageData{}, fmt.Errorf("decode openapi: %w", err)
	}
	if !strings.HasPrefix(doc.OpenAPI, "3.") {
		return docsPageData{}, fmt.Errorf("unsupported openapi version %q", doc.OpenAPI)
	}
	if len(doc.Paths) == 0 {
		return docsPageData{}, fmt.Errorf("openapi document has no paths")
	}

	var operations []docsOperation
	for path, item := range doc.Paths {
		for method, node := range item {
			if _, ok := httpMethods[method]; !ok {
				continue
			}
			var op struct {
				Summary string `yaml:"summary"`
			}
			if err := node.Decode(&op); err != nil {
				return docsPageData{}, fmt.Errorf("decode %s %s: %w", method, path, err)
			}
			operations = append(operations, docsOperation{Method: method, Path: path, Summary: op.Summary})
		}
	}
	sort.Slice(operations, func(i, j int) bool {
		if operations[i].Path != operations[j].Path {
			return operations[i].Path < operations[j].Path
		}
		return httpMethods[operations[i].Method] < httpMethods[operations[j].Method]
	})

	basePath := ""
	if len(doc.Servers) > 0 {
		basePath = strings.TrimRight(doc.Servers[0].URL, "/")
	}
	return docsPageData{
		Title:      doc.Info.Title,
		Version:    doc.Info.Version,
		BasePath:   basePath,
		Operations: operations,
		Spec:       string(spec),
	}, nil
}

func registerDocsRoutes(app fiber.Router, cfg *config.Config) error {
	if !cfg.DocsEnabled() {
		return nil
	}

	pageData, err := parseOpenAPI(openAPISpec)
	if err != nil {
		return fmt.Errorf("load openapi spec: %w", err)
	}
	pageData.LoadedAt = time.Now().UTC().Format(time.RFC3339)

	indexTemplate, err := template.New("docs-index").Parse(docsIndexHTML)
	if err != nil {
		return fmt.Errorf("parse docs template: %w", err)
	}

	indexHandler := func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, fiber.MIMETextHTMLCharsetUTF8)
		c.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; img-src 'self' data:; base-uri 'none'; form-action 'none'; frame-ancestors 'none'")

		var body bytes.Buffer
		if err := indexTemplate.Execute(&body, pageData); err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render api docs")
		}

		return c.Status(fiber.StatusOK).Send(body.Bytes())
	}

	app.Get("/docs", indexHandler)
	app.Get("/docs/", indexHandler)
	app.Get("/docs/openapi.yaml", func(c *fiber.Ctx) error {
		applyDocsBaseHeaders(c, "application/yaml; charset=utf-8")
		c.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'none'; form-action 'none'")
		c.Set(fiber.HeaderContentDisposition, `inline; filename="openapi.yaml"`)
		return c.Status(fiber.StatusOK).Send(openAPISpec)
	})

	return nil
}

func applyDocsBaseHeaders(c *fiber.Ctx, contentType string) {
	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderCacheControl, "no-store, max-age=0")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "DENY")
	c.Set("Referrer-Policy", "no-referrer")
	c.Set("Cross-Origin-Resource-Policy", "same-origin")
	c.Set("X-Robots-Tag", "noindex, nofollow")
}
