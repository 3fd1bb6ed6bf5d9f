package scaffold

const moduleTemplate = `package {{.Package}}

import (
	"path/filepath"
	"runtime"

	"{{.KeelImport}}"
)

func baseDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Dir(file)
}

// Module wires the {{.Package}} service and controller
var Module = keel.NewModule("{{.Package}}",
	keel.BaseDirectory(baseDir()),
	keel.Providers(keel.Provide(New{{.Type}}Service)),
	keel.Controllers(keel.Controller("/{{.Package}}", New{{.Type}}Controller)),
)
`

const serviceTemplate = `package {{.Package}}

// {{.Type}}Service holds the {{.Package}} business logic
type {{.Type}}Service struct{}

func New{{.Type}}Service() *{{.Type}}Service {
	return &{{.Type}}Service{}
}

func (s *{{.Type}}Service) Greeting() string {
	return "Hello from {{.Package}}"
}
`

const controllerTemplate = `package {{.Package}}

import (
	"net/http"

	"{{.KeelImport}}"
)

type {{.Type}}Controller struct {
	svc *{{.Type}}Service
}

func New{{.Type}}Controller(svc *{{.Type}}Service) *{{.Type}}Controller {
	return &{{.Type}}Controller{svc: svc}
}

func (c *{{.Type}}Controller) Routes(r *keel.Routes) {
	r.Get("/", c.Index)
}

func (c *{{.Type}}Controller) Index(rc keel.RequestContext) error {
	app, err := keel.AppFromRequest(rc)
	if err != nil {
		return err
	}
	return app.Render(rc, http.StatusOK, "{{.Package}}/index.html", map[string]any{
		"Greeting": c.svc.Greeting(),
	})
}
`

const controllerTestTemplate = `package {{.Package}}

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"{{.KeelImport}}/keeltest"
)

func Test{{.Type}}Index(t *testing.T) {
	app := keeltest.New(t, Module)

	rec := app.Get("/{{.Package}}")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Hello from {{.Package}}")
}
`

const indexTemplate = `<!doctype html>
<html>
<head>
  <title>{{"{{"}} .Greeting {{"}}"}}</title>
  <link rel="stylesheet" href="{{"{{"}} static_url "{{.Package}}.css" {{"}}"}}">
</head>
<body>
  <h1>{{"{{"}} .Greeting {{"}}"}}</h1>
</body>
</html>
`

const stylesheetTemplate = `body {
  font-family: sans-serif;
}
`
