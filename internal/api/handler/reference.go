package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"complaintdesk/backend/internal/config"
	"complaintdesk/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func listHandler[T any](h *Handler, list func(context.Context) ([]T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := list(c.Request.Context())
		if err != nil {
			h.fail(c, err)
			return
		}
		if items == nil {
			items = []T{}
		}
		c.JSON(http.StatusOK, items)
	}
}

// registerReference wires list/create/update/delete for one kind of
// reference data. A nil list skips the GET route.
func registerReference[T any](
	g *gin.RouterGroup,
	h *Handler,
	path string,
	list func(context.Context) ([]T, error),
	save func(context.Context, *T) error,
	del func(context.Context, string) error,
	setID func(*T, string),
	validate func(*T) error,
) {
	if list != nil {
		g.GET(path, listHandler(h, list))
	}

	store := func(c *gin.Context, id string, status int) {
		var item T
		if err := c.ShouldBindJSON(&item); err != nil {
			h.fail(c, badRequest("invalid JSON body"))
			return
		}
		setID(&item, id)
		if err := validate(&item); err != nil {
			h.fail(c, err)
			return
		}
		if err := save(c.Request.Context(), &item); err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(status, item)
	}

	g.POST(path, func(c *gin.Context) { store(c, "", http.StatusCreated) })
	g.PUT(path+"/:id", func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		store(c, id, http.StatusOK)
	})
	g.DELETE(path+"/:id", func(c *gin.Context) {
		id, ok := pathID(c)
		if !ok {
			return
		}
		if err := del(c.Request.Context(), id); err != nil {
			h.fail(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

// pathID reads :id and answers 404 for values that cannot be a row id.
func pathID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not found"})
		return "", false
	}
	return id, true
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return badRequest(field + " is required")
	}
	return nil
}

func validatePriority(p *models.Priority) error {
	p.Name = strings.TrimSpace(p.Name)
	return required("name", p.Name)
}

func validateAssignee(a *models.Assignee) error {
	a.Name = strings.TrimSpace(a.Name)
	for _, cat := range a.Categories {
		if !config.IsValidCategory(cat) {
			return badRequest("unknown category " + strconv.Quote(cat))
		}
	}
	return required("name", a.Name)
}

func validateLocation(l *models.Location) error {
	l.Name = strings.TrimSpace(l.Name)
	return required("name", l.Name)
}

func validateTemplate(t *models.ResponseTemplate) error {
	if t.Category != "" && !config.IsValidCategory(t.Category) {
		return badRequest("unknown category " + strconv.Quote(t.Category))
	}
	if err := required("title", t.Title); err != nil {
		return err
	}
	if utf8.RuneCountInString(t.Body) > config.MaxResponseLength {
		return badRequest("body is too long")
	}
	return required("body", t.Body)
}

type feedbackRequest struct {
	Message      string `json:"message" binding:"required"`
	Rating       *int   `json:"rating" binding:"omitempty,min=1,max=5"`
	ContactEmail string `json:"contact_email" binding:"omitempty,email"`
}

// CreateFeedback stores a short note from the public form.
func (h *Handler) CreateFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := bindBody(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	msg := strings.TrimSpace(req.Message)
	if err := required("message", msg); err != nil {
		h.fail(c, err)
		return
	}
	if utf8.RuneCountInString(msg) > config.MaxDescriptionLength {
		h.fail(c, badRequest("message is too long"))
		return
	}
	fb := &models.Feedback{Message: msg, Rating: req.Rating, ContactEmail: strings.TrimSpace(req.ContactEmail)}
	if err := h.Storage.CreateFeedback(c.Request.Context(), fb); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, fb)
}

func (h *Handler) ListFeedbacks(c *gin.Context) {
	limit, offset := page(c)
	items, err := h.Storage.ListFeedbacks(c.Request.Context(), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	if items == nil {
		items = []models.Feedback{}
	}
	c.JSON(http.StatusOK, items)
}

type surveyRequest struct {
	SurveyName string          `json:"survey_name" binding:"required"`
	Answers    json.RawMessage `json:"answers" binding:"required"`
}

// CreateSurvey stores one filled-in questionnaire. Answers must be a JSON object.
func (h *Handler) CreateSurvey(c *gin.Context) {
	var req surveyRequest
	if err := bindBody(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	name := strings.TrimSpace(req.SurveyName)
	if err := required("survey_name", name); err != nil {
		h.fail(c, err)
		return
	}
	var answers map[string]any
	if err := json.Unmarshal(req.Answers, &answers); err != nil || answers == nil {
		h.fail(c, badRequest("answers must be a JSON object"))
		return
	}
	s := &models.Survey{SurveyName: name, Answers: []byte(req.Answers)}
	if err := h.Storage.CreateSurvey(c.Request.Context(), s); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h *Handler) ListSurveys(c *gin.Context) {
	limit, offset := page(c)
	items, err := h.Storage.ListSurveys(c.Request.Context(), c.Query("name"), limit, offset)
	if err != nil {
		h.fail(c, err)
		return
	}
	if items == nil {
		items = []models.Survey{}
	}
	c.JSON(http.StatusOK, items)
}

func page(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return limit, offset
}
