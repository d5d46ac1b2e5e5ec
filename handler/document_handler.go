package handler

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/teenai/paperchat-be/storage"
	"github.com/teenai/paperchat-be/types"
)

type DocumentHandler interface {
	HandleServeDocument(c *gin.Context)
}

type documentHandler struct {
	store storage.Storage
}

func NewDocumentHandler(store storage.Storage) DocumentHandler {
	return &documentHandler{
		store: store,
	}
}

// HandleServeDocument streams a stored PDF back to the client. Uploaded files
// carry a timestamp suffix, so the requested name is matched against the
// stored keys with and without the suffix.
func (h *documentHandler) HandleServeDocument(c *gin.Context) {
	requestedName := c.Query("file")
	if requestedName == "" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  types.StatusError,
			Message: "file parameter is required",
		})
		return
	}
	if filepath.Ext(requestedName) != ".pdf" {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  types.StatusError,
			Message: "only PDF files are allowed",
		})
		return
	}

	key, err := h.findStoredKey(c, requestedName)
	if err != nil {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  types.StatusError,
			Message: "file not found",
		})
		return
	}

	obj, err := h.store.Get(c.Request.Context(), key)
	if err != nil {
		c.JSON(http.StatusNotFound, types.DataResponse{
			Status:  types.StatusError,
			Message: "file not found",
		})
		return
	}
	defer obj.Close()

	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", requestedName))
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, obj); err != nil {
		log.Println("failed to stream document:", err)
	}
}

func (h *documentHandler) findStoredKey(c *gin.Context, requestedName string) (string, error) {
	baseName := strings.TrimSuffix(requestedName, ".pdf")

	keys, err := h.store.List(c.Request.Context(), "")
	if err != nil {
		return "", err
	}

	for _, key := range keys {
		if !strings.HasSuffix(key, ".pdf") {
			continue
		}
		nameWithoutExt := strings.TrimSuffix(filepath.Base(key), ".pdf")
		if nameWithoutExt == baseName {
			return key, nil
		}

		lastUnderscoreIdx := strings.LastIndex(nameWithoutExt, "_")
		if lastUnderscoreIdx == -1 {
			continue
		}

		// Keys are written as <name>_<unix timestamp>.pdf
		timestampPart := nameWithoutExt[lastUnderscoreIdx+1:]
		fileBaseName := nameWithoutExt[:lastUnderscoreIdx]
		if len(timestampPart) != 10 && len(timestampPart) != 13 {
			continue
		}
		if _, err := strconv.ParseInt(timestampPart, 10, 64); err != nil {
			continue
		}
		if fileBaseName == baseName {
			return key, nil
		}
	}

	return "", fmt.Errorf("file not found: %s", requestedName)
}
