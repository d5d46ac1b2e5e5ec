package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/teenai/paperchat-be/service"
	"github.com/teenai/paperchat-be/types"
)

const maxUploadSize = 50 << 20 // 50MB

type UploadHandler struct {
	fileService *service.FileService
}

func NewUploadHandler(fileService *service.FileService) *UploadHandler {
	return &UploadHandler{
		fileService: fileService,
	}
}

// UploadDocumentHandler accepts a PDF with a metadata form field and streams
// processing progress back as server-sent events
func (h *UploadHandler) UploadDocumentHandler(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  types.StatusError,
			Message: "Invalid file",
		})
		return
	}
	defer file.Close()

	var req types.UploadRequest
	if metadata := c.Request.FormValue("metadata"); metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &req); err != nil {
			c.JSON(http.StatusBadRequest, types.DataResponse{
				Status:  types.StatusError,
				Message: "Invalid metadata",
			})
			return
		}
	}

	if header.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, types.DataResponse{
			Status:  types.StatusError,
			Message: "File too large",
		})
		return
	}

	statusChan := make(chan types.ProcessingDocumentStatus)
	errChan := make(chan error, 1)
	go func() {
		defer close(statusChan)
		errChan <- h.fileService.UploadFile(c.Request.Context(), req, header, statusChan)
	}()

	clientGone := c.Request.Context().Done()
	for {
		select {
		case <-clientGone:
			return // Client disconnected
		case status, ok := <-statusChan:
			if !ok {
				statusChan = nil
				continue
			}
			jsonStatus, err := json.Marshal(status)
			if err != nil {
				continue
			}
			c.SSEvent("message", string(jsonStatus))
			c.Writer.Flush()
		case err := <-errChan:
			if err != nil {
				c.SSEvent("error", err.Error())
			} else {
				jsonDone, _ := json.Marshal(types.DataResponse{
					Status: types.StatusSuccess,
					Data: types.UploadResponse{
						OriginalName: req.Title,
					},
				})
				c.SSEvent("done", string(jsonDone))
			}
			c.Writer.Flush()
			return
		}
	}
}
