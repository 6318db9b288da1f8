package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hezora/internal/domain"
	"hezora/internal/service/catalog"
	"hezora/internal/session"
)

func bookPath(id int64) string {
	return "/books/" + strconv.FormatInt(id, 10)
}

// bookID parses the :id path parameter and answers 400 when it is not a
// positive integer.
func bookID(c *gin.Context, r responder) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		r.badRequest(c, "book id must be a positive integer")
		return 0, false
	}
	return id, true
}

func listBooksHandler(svc catalogService, r responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		books, err := svc.List(c.Request.Context())
		if err != nil {
			r.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"books":     toBookResponses(books),
			"cartCount": session.CartFrom(c).Count(),
		})
	}
}

func bookDetailHandler(svc catalogService, r responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := bookID(c, r)
		if !ok {
			return
		}
		book, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				r.notFound(c, "book", id)
				return
			}
			r.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"book":      toBookResponse(*book),
			"cartCount": session.CartFrom(c).Count(),
		})
	}
}

// downloadHandler streams the book file as a PDF attachment, or sends the
// visitor back to the detail page when there is nothing to download.
func downloadHandler(svc catalogService, r responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := bookID(c, r)
		if !ok {
			return
		}
		book, path, err := svc.Asset(c.Request.Context(), id)
		switch {
		case errors.Is(err, catalog.ErrMissingAsset):
			c.Redirect(http.StatusFound, bookPath(id))
			return
		case errors.Is(err, domain.ErrNotFound):
			r.notFound(c, "book", id)
			return
		case err != nil:
			r.respondError(c, err)
			return
		}
		c.Header("Content-Type", "application/pdf")
		c.FileAttachment(path, catalog.DownloadName(*book))
	}
}
