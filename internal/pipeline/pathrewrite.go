package pipeline

import (
	"net/url"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/alnah/go-pageload/internal/dom"
)

// rewritable maps elements to the attribute holding their media path.
var rewritable = map[string]string{
	"img": "src",
	"a":   "href",
}

// RewriteRelativePaths converts relative media and link paths under root to
// absolute file:// URLs resolved against sourceDir. Paths escaping
// sourceDir, absolute paths, URLs and anchors are left alone.
// It returns the number of rewritten attributes.
func RewriteRelativePaths(root *html.Node, sourceDir string) (int, error) {
	if root == nil || sourceDir == "" {
		return 0, nil
	}
	absSourceDir, err := filepath.Abs(sourceDir)
	if err != nil {
		return 0, err
	}

	count := 0
	dom.Walk(root, func(n *html.Node) bool {
		attr, ok := rewritable[dom.Tag(n)]
		if !ok {
			return true
		}
		val, ok := dom.Attr(n, attr)
		if !ok || !isRelativePath(val) {
			return true
		}
		absPath := filepath.Join(absSourceDir, filepath.FromSlash(val))
		if !isPathUnderDir(absPath, absSourceDir) {
			return true
		}
		if dom.SetAttr(n, attr, pathToFileURL(absPath)) {
			count++
		}
		return true
	})
	return count, nil
}

// isRelativePath returns true if the path should be rewritten.
func isRelativePath(path string) bool {
	if path == "" || strings.HasPrefix(path, "#") || strings.HasPrefix(path, "//") {
		return false
	}
	if u, err := url.Parse(path); err != nil || u.Scheme != "" {
		return false
	}
	return !filepath.IsAbs(path) && !strings.HasPrefix(path, "/")
}

// isPathUnderDir checks if absPath is under dir (prevents path traversal).
func isPathUnderDir(absPath, dir string) bool {
	cleanDir := filepath.Clean(dir)
	if !strings.HasSuffix(cleanDir, string(filepath.Separator)) {
		cleanDir += string(filepath.Separator)
	}
	return strings.HasPrefix(filepath.Clean(absPath)+string(filepath.Separator), cleanDir)
}

// pathToFileURL converts an absolute path to a file:// URL.
func pathToFileURL(absPath string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(absPath)}
	return u.String()
}
