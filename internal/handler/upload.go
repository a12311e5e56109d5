package handler

import (
	"encoding/base64"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JackobAssis/Joburguers/internal/ident"
)

// UploadHandler stores product and promotion images. Multipart uploads
// land on disk and return a public URL; when no base URL is configured
// the image is returned as a data URL instead, so the caller can embed
// it directly in the record.
type UploadHandler struct {
	UploadDir     string
	PublicBaseURL string
}

func (h UploadHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/admin/uploads", h.upload)
}

// RegisterServeRoute exposes stored images without authentication.
func (h UploadHandler) RegisterServeRoute(r chi.Router) {
	r.Get("/uploads/{name}", h.serve)
}

func (h UploadHandler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(6 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	limited := io.LimitReader(file, 5<<20)
	data, err := io.ReadAll(limited)
	if err != nil || len(data) == 0 {
		writeError(w, http.StatusBadRequest, "file is empty")
		return
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	mime = strings.ToLower(strings.TrimSpace(mime))
	if mime == "image/jpg" {
		mime = "image/jpeg"
	}
	ext, ok := imageExt(mime)
	if !ok {
		writeError(w, http.StatusBadRequest, "format must be PNG, JPG or WEBP")
		return
	}

	if h.PublicBaseURL == "" {
		writeJSON(w, http.StatusOK, map[string]any{
			"url": "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		})
		return
	}

	name := ident.NewID() + ext
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := os.WriteFile(filepath.Join(h.UploadDir, name), data, 0o644); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"url": strings.TrimRight(h.PublicBaseURL, "/") + "/uploads/" + name,
	})
}

func (h UploadHandler) serve(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	// filepath.Base strips any traversal attempt.
	if name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		writeError(w, http.StatusBadRequest, "invalid file name")
		return
	}
	http.ServeFile(w, r, filepath.Join(h.UploadDir, name))
}

func imageExt(mime string) (string, bool) {
	switch mime {
	case "image/png":
		return ".png", true
	case "image/jpeg":
		return ".jpg", true
	case "image/webp":
		return ".webp", true
	}
	return "", false
}
