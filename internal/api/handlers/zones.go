package handlers

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded zone pages. Each page is addressed by its
// file name and wraps itself in the shared header and footer.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Page is one fixed dashboard route.
type Page struct {
	Path     string
	Template string
	Title    string
}

// ZonePages are served under /zones.
var ZonePages = []Page{
	{Path: "/", Template: "dashboard.html", Title: "Dashboard"},
	{Path: "/settings", Template: "zone-settings.html", Title: "Zone Settings"},
	{Path: "/people-historical", Template: "zone-people-historical.html", Title: "People Historical"},
	{Path: "/people-hourly", Template: "zone-people-hourly-count.html", Title: "People Hourly"},
}

// Render serves p with its title.
func (p Page) Render(c *gin.Context) {
	c.HTML(http.StatusOK, p.Template, gin.H{"title": p.Title})
}
