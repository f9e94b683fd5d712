// Package devserver – file upload endpoint.
package devserver

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxUploadSize caps accepted cover images at 10 MiB.
const maxUploadSize = 10 << 20

// handleUpload implements POST /upload-file (auth required). The uploaded
// "file" part is stored under the configured upload directory with a random
// name and served back under /uploads.
func (s *Server) handleUpload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	file, err := c.FormFile("file")
	if err != nil {
		apiFail(c, http.StatusBadRequest, "bad_request", "Arquivo ausente ou grande demais.")
		return
	}

	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	name := uuid.NewString() + ext
	if err := c.SaveUploadedFile(file, filepath.Join(s.cfg.UploadDir, name)); err != nil {
		apiFail(c, http.StatusInternalServerError, "internal_error", "Erro interno.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": s.cfg.BaseURL + "/uploads/" + name})
}
