package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"liggs/internal/domain"
)

type noteRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (r noteRequest) input() domain.NoteInput {
	return domain.NoteInput{Title: r.Title, Content: r.Content}
}

// bindOptionalJSON decodes the body into dst; an empty body leaves dst untouched.
func bindOptionalJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (h *Handler) listNotes(c *gin.Context) {
	id := mustIdentity(c)

	notes, err := h.notes.ListNotes(c.Request.Context(), id.UserID, c.Query("q"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]NoteSummaryResponse, len(notes))
	for i := range notes {
		resp[i] = summaryToResponse(notes[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createNote(c *gin.Context) {
	var req noteRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		invalidBody(c)
		return
	}

	note, err := h.notes.CreateNote(c.Request.Context(), mustIdentity(c).UserID, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, noteToResponse(*note))
}

func (h *Handler) getNote(c *gin.Context) {
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}

	note, err := h.notes.GetNote(c.Request.Context(), mustIdentity(c).UserID, noteID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, noteToResponse(*note))
}

func (h *Handler) updateNote(c *gin.Context) {
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}

	var req noteRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		invalidBody(c)
		return
	}

	note, err := h.notes.UpdateNote(c.Request.Context(), mustIdentity(c).UserID, noteID, req.input())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, noteToResponse(*note))
}

func (h *Handler) deleteNote(c *gin.Context) {
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}

	purge, err := strconv.ParseBool(c.DefaultQuery("purge_archives", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid flag purge_archives"})
		return
	}

	userID := mustIdentity(c).UserID
	if err := h.notes.DeleteNote(c.Request.Context(), userID, noteID); err != nil {
		h.respondError(c, err)
		return
	}

	var warnings []string
	if purge && h.exports.ArchiveEnabled() {
		purgeCtx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		if err := h.exports.PurgeArchives(purgeCtx, userID, noteID); err != nil {
			requestLogger(c, h.logger).WithError(err).Warn("purge export archives")
			warnings = append(warnings, fmt.Sprintf("purge archives: %v", err))
		}
	}

	resp := gin.H{"success": true}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}

// exportNote streams the rendered note as an attachment. A failed archive
// upload is reported in a header and never fails the download.
func (h *Handler) exportNote(c *gin.Context) {
	noteID, ok := noteIDParam(c)
	if !ok {
		return
	}

	userID := mustIdentity(c).UserID
	note, err := h.notes.GetNote(c.Request.Context(), userID, noteID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	file := h.exports.Render(*note)

	if h.exports.ArchiveEnabled() {
		archiveCtx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if _, err := h.exports.Archive(archiveCtx, userID, *note, file); err != nil {
			requestLogger(c, h.logger).WithError(err).Warn("archive export")
			c.Header("X-Archive-Warning", "export archive upload failed")
		}
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": file.Filename})
	if disposition == "" {
		disposition = "attachment"
	}
	c.Header("Content-Disposition", disposition)
	c.Data(http.StatusOK, file.MimeType+"; charset=utf-8", file.Content)
}

func (h *Handler) listExports(c *gin.Context) {
	archives, err := h.exports.ListArchives(c.Request.Context(), mustIdentity(c).UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]ArchivedExportResponse, len(archives))
	for i := range archives {
		resp[i] = archiveToResponse(archives[i])
	}
	c.JSON(http.StatusOK, resp)
}
