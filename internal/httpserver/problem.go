package httpserver

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"hezora/internal/domain"
)

// contentTypeProblemJSON is the RFC 7807 media type.
const contentTypeProblemJSON = "application/problem+json"

// Problem types, relative to the API root.
const (
	typeValidation = "/problems/validation-error"
	typeNotFound   = "/problems/not-found"
	typeConflict   = "/problems/dangling-reference"
	typeBadRequest = "/problems/bad-request"
	typeInternal   = "/problems/internal-error"
	typeUnavail    = "/problems/unavailable"
)

// problem is an RFC 7807 Problem Details document.
type problem struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	BookID   int64             `json:"bookId,omitempty"`
}

func (p problem) withDetail(detail string) problem {
	p.Detail = detail
	return p
}

var (
	problemNotFound    = problem{Type: typeNotFound, Title: "Resource Not Found", Status: http.StatusNotFound}
	problemBadRequest  = problem{Type: typeBadRequest, Title: "Bad Request", Status: http.StatusBadRequest}
	problemValidation  = problem{Type: typeValidation, Title: "Validation Error", Status: http.StatusUnprocessableEntity}
	problemConflict    = problem{Type: typeConflict, Title: "Cart References Missing Book", Status: http.StatusConflict}
	problemInternal    = problem{Type: typeInternal, Title: "Internal Server Error", Status: http.StatusInternalServerError}
	problemUnavailable = problem{Type: typeUnavail, Title: "Service Unavailable", Status: http.StatusServiceUnavailable}
)

// responder writes problem documents and logs unexpected failures.
type responder struct {
	logger *log.Logger
}

func (r responder) respond(c *gin.Context, p problem) {
	if p.Instance == "" {
		p.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", contentTypeProblemJSON)
	c.AbortWithStatusJSON(p.Status, p)
}

func (r responder) notFound(c *gin.Context, resource string, id any) {
	r.respond(c, problemNotFound.withDetail(fmt.Sprintf("%s with identifier '%v' not found", resource, id)))
}

func (r responder) badRequest(c *gin.Context, detail string) {
	r.respond(c, problemBadRequest.withDetail(detail))
}

// respondError maps domain errors onto problem documents. Anything it does not
// recognise is logged and reported as a 500 without internal detail.
func (r responder) respondError(c *gin.Context, err error) {
	var (
		verr     *domain.ValidationError
		dangling *domain.DanglingReferenceError
	)
	switch {
	case errors.As(err, &verr):
		p := problemValidation.withDetail("the checkout form has invalid fields")
		p.Fields = verr.Fields
		r.respond(c, p)
	case errors.As(err, &dangling):
		p := problemConflict.withDetail(err.Error())
		p.BookID = dangling.BookID
		r.respond(c, p)
	case errors.Is(err, domain.ErrNotFound):
		r.respond(c, problemNotFound)
	default:
		if r.logger != nil {
			r.logger.Printf("http: %s %s error=%v", c.Request.Method, c.Request.URL.Path, err)
		}
		r.respond(c, problemInternal)
	}
}
