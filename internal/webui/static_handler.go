package webui

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// exportContentTypes lists the servable extensions. Gzipped exports are
// served as-is.
var exportContentTypes = map[string]string{
	".json":    "application/json",
	".geojson": "application/geo+json",
	".dart":    "text/plain; charset=utf-8",
	".txt":     "text/plain; charset=utf-8",
	".gz":      "application/gzip",
	".db":      "application/vnd.sqlite3",
}

// exportsHandler serves a file from the export directory.
func (webUI *WebUI) exportsHandler(w http.ResponseWriter, r *http.Request) {
	fileName := r.PathValue("file")

	contentType, ok := exportContentTypes[strings.ToLower(filepath.Ext(fileName))]
	if !ok {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	if fileName == "" || strings.Contains(fileName, "..") || strings.ContainsAny(fileName, `/\`) {
		http.Error(w, "Invalid file name", http.StatusBadRequest)
		return
	}

	exportDir, err := filepath.Abs(webUI.ExportDir)
	if err != nil {
		http.Error(w, "Internal configuration error", http.StatusInternalServerError)
		return
	}
	absPath := filepath.Join(exportDir, fileName)

	rel, err := filepath.Rel(exportDir, absPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		slog.Warn("potential path traversal attempt blocked", "path", absPath)
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	stat, err := os.Stat(absPath)
	if err != nil || stat.IsDir() {
		http.Error(w, "File not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	http.ServeFile(w, r, absPath)
}
