package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// PageRoutes are the client-side routes served with the SPA shell
var PageRoutes = []string{"/", "/auth", "/reset-password", "/dashboard", "/scan/:id", "/pricing", "/redeem"}

const fallbackShell = `<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>SecureX</title></head>
<body><div id="root"></div></body></html>`

const notFoundPage = `<!doctype html>
<html lang="en"><head><meta charset="utf-8"><title>404 - SecureX</title></head>
<body><h1>404</h1><p>Oops! Page not found</p><a href="/">Return to Home</a></body></html>`

// PageHandler serves the built frontend from the web directory
type PageHandler struct {
	webDir string
}

// NewPageHandler creates a page handler
func NewPageHandler(webDir string) *PageHandler {
	return &PageHandler{webDir: webDir}
}

// Shell serves index.html for every page route
func (h *PageHandler) Shell(c *gin.Context) {
	if index, ok := h.file("index.html"); ok {
		c.File(index)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(fallbackShell))
}

// NotFound is the catch-all. Payment provider landings on unknown paths are
// redirected to the page they belong to, API paths get a JSON 404 and real
// files from the web directory are served as is.
func (h *PageHandler) NotFound(c *gin.Context) {
	query := c.Request.URL.Query()
	switch {
	case query.Get("canceled") == "true":
		c.Redirect(http.StatusFound, "/pricing")
		return
	case query.Get("success") == "true":
		c.Redirect(http.StatusFound, "/dashboard")
		return
	}

	p := c.Request.URL.Path
	if isAPIPath(p) {
		NotFoundResponse(c, "Endpoint not found")
		return
	}
	if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead {
		if asset, ok := h.file(p); ok {
			c.File(asset)
			return
		}
	}
	c.Data(http.StatusNotFound, "text/html; charset=utf-8", []byte(notFoundPage))
}

func isAPIPath(p string) bool {
	for _, prefix := range []string{"/api", "/functions"} {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// file resolves name inside the web directory, refusing anything that
// escapes it.
func (h *PageHandler) file(name string) (string, bool) {
	if h.webDir == "" {
		return "", false
	}
	clean := path.Clean("/" + name)
	full := filepath.Join(h.webDir, filepath.FromSlash(clean))
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", false
	}
	return full, true
}
