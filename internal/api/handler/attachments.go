package handler

import (
	"net/http"

	"complaintdesk/backend/internal/config"

	"github.com/gin-gonic/gin"
)

// UploadAttachment stores the multipart "file" field and returns the
// attachment metadata to embed in a later submission.
func (h *Handler) UploadAttachment(c *gin.Context) {
	if h.Uploader == nil {
		unavailable(c, "attachment storage")
		return
	}
	// Multipart framing adds a little on top of the file itself.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, config.MaxAttachmentSize+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		h.fail(c, badRequest("multipart field \"file\" is required"))
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	att, err := h.Uploader.Upload(c.Request.Context(), fh.Filename, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, att)
}
