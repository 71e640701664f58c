// Package views embeds the HTML templates rendered by the REST server.
package views

import (
	"embed"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed *.html
var FS embed.FS

// NewEngine returns a template engine over the embedded views. Reload
// re-reads templates on every render, which is only useful while editing
// them in debug mode.
func NewEngine(reload bool) *html.Engine {
	engine := html.NewFileSystem(http.FS(FS), ".html")
	engine.Reload(reload)
	return engine
}
