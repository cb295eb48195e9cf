package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"complaintdesk/backend/internal/complaint"
	"complaintdesk/backend/internal/models"
	"complaintdesk/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

// SubmitComplaint accepts the public form. An Idempotency-Key header makes
// retries return the first complaint with 200 instead of 201.
func (h *Handler) SubmitComplaint(c *gin.Context) {
	var in complaint.SubmitInput
	if err := bindBody(c, &in); err != nil {
		h.fail(c, err)
		return
	}
	in.IdempotencyKey = strings.TrimSpace(c.GetHeader("Idempotency-Key"))

	created, replayed, err := h.Complaints.Submit(c.Request.Context(), session(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	if replayed {
		c.Header("Idempotent-Replayed", "true")
		c.JSON(http.StatusOK, created)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// filterFromQuery reads list filters. status may repeat or be comma separated.
func filterFromQuery(c *gin.Context) (storage.ComplaintFilter, error) {
	var f storage.ComplaintFilter
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			st, ok := models.ParseStatus(part)
			if !ok {
				return f, badRequest("unknown status " + strconv.Quote(part))
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	f.Category = c.Query("category")
	f.LocationID = c.Query("location_id")
	f.PriorityID = c.Query("priority_id")
	f.AssigneeID = c.Query("assignee_id")
	f.Search = strings.TrimSpace(c.Query("q"))

	var err error
	if f.From, err = parseTime(c.Query("from"), false); err != nil {
		return f, badRequest("from: " + err.Error())
	}
	if f.To, err = parseTime(c.Query("to"), true); err != nil {
		return f, badRequest("to: " + err.Error())
	}
	f.Limit, f.Offset = page(c)
	return f, nil
}

// parseTime accepts RFC 3339 or a bare date. A bare upper bound covers the whole day.
func parseTime(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		d = d.Add(24*time.Hour - time.Nanosecond)
	}
	return d, nil
}

type listResponse struct {
	Items  []models.Complaint `json:"items"`
	Total  int64              `json:"total"`
	Limit  int                `json:"limit"`
	Offset int                `json:"offset"`
}

func (h *Handler) ListComplaints(c *gin.Context) {
	f, err := filterFromQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	items, total, err := h.Complaints.List(c.Request.Context(), session(c), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	if items == nil {
		items = []models.Complaint{}
	}
	c.JSON(http.StatusOK, listResponse{Items: items, Total: total, Limit: f.Limit, Offset: f.Offset})
}

func (h *Handler) GetComplaint(c *gin.Context) {
	item, err := h.Complaints.Get(c.Request.Context(), session(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) ComplaintHistory(c *gin.Context) {
	items, err := h.Complaints.History(c.Request.Context(), session(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if items == nil {
		items = []models.ChangeHistory{}
	}
	c.JSON(http.StatusOK, items)
}

// updateOptions reads the expected version from If-Match. Quotes are allowed
// so clients can echo an ETag back.
func updateOptions(c *gin.Context) (complaint.UpdateOptions, error) {
	raw := strings.Trim(strings.TrimSpace(c.GetHeader("If-Match")), `"`)
	if raw == "" {
		return complaint.UpdateOptions{}, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return complaint.UpdateOptions{}, badRequest("If-Match must be a positive version number")
	}
	return complaint.UpdateOptions{ExpectedVersion: v}, nil
}

type mutation func(c *gin.Context, id string, opts complaint.UpdateOptions) (*models.Complaint, error)

// mutate runs fn with the path id and version precondition and writes the
// updated complaint with its version as ETag.
func (h *Handler) mutate(fn mutation) gin.HandlerFunc {
	return func(c *gin.Context) {
		opts, err := updateOptions(c)
		if err != nil {
			h.fail(c, err)
			return
		}
		item, err := fn(c, c.Param("id"), opts)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.Header("ETag", strconv.Quote(strconv.Itoa(item.Version)))
		c.JSON(http.StatusOK, item)
	}
}

func (h *Handler) takeIntoWork(c *gin.Context, id string, opts complaint.UpdateOptions) (*models.Complaint, error) {
	return h.Complaints.TakeIntoWork(c.Request.Context(), session(c), id, opts)
}

func (h *Handler) reject(c *gin.Context, id string, opts complaint.UpdateOptions) (*models.Complaint, error) {
	return h.Complaints.Reject(c.Request.Context(), session(c), id, opts)
}

func (h *Handler) reopen(c *gin.Context, id string, opts complaint.UpdateOptions) (*models.Complaint, error) {
	return h.Complaints.Reopen(c.Request.Context(), session(c), id, opts)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) setStatus(c *gin.Context, id string, opts complaint.UpdateOptions) (*models.Complaint, error) {
	var req statusRequest
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	return h.Complaints.SetStatus(c.Request.Context(), session(c), id, req.Status, opts)
}

type responseRequest struct {
	Text      string `json:"text" binding:"required"`
	AdminName string `json:"admin_name" binding:"required"`
}

// attachResponse resolves the complaint with an answer signed by admin_name.
func (h *Handler) attachResponse(c *gin.Context, id string, opts complaint.UpdateOptions) (*models.Complaint, error) {
	var req responseRequest
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	return h.Complaints.AttachResponse(c.Request.Context(), session(c), id, req.Text, req.AdminName, opts)
}

func (h *Handler) deleteResponse(c *gin.Context, id string, opts complaint.UpdateOptions) (*models.Complaint, error) {
	return h.Complaints.DeleteResponse(c.Request.Context(), session(c), id, opts)
}

type priorityRequest struct {
	PriorityID string `json:"priority_id"`
}

func (h *Handler) setPriority(c *gin.Context, id string, opts complaint.UpdateOptions) (*models.Complaint, error) {
	var req priorityRequest
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	return h.Complaints.SetPriority(c.Request.Context(), session(c), id, req.PriorityID, opts)
}

type assigneeRequest struct {
	AssigneeID string `json:"assignee_id"`
}

func (h *Handler) setAssignee(c *gin.Context, id string, opts complaint.UpdateOptions) (*models.Complaint, error) {
	var req assigneeRequest
	if err := bindBody(c, &req); err != nil {
		return nil, err
	}
	return h.Complaints.SetAssignee(c.Request.Context(), session(c), id, req.AssigneeID, opts)
}

func (h *Handler) DeleteComplaint(c *gin.Context) {
	if err := h.Complaints.Delete(c.Request.Context(), session(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

func (h *Handler) BulkDeleteComplaints(c *gin.Context) {
	var req bulkDeleteRequest
	if err := bindBody(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	res, err := h.Complaints.BulkDelete(c.Request.Context(), session(c), req.IDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
