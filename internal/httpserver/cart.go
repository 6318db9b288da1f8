package httpserver

import (
	"log"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"hezora/internal/session"
)

// addToCartHandler adds one copy of a book and sends the visitor back where
// they came from. The book is not looked up; a stale id is dropped when the
// cart is viewed or fails checkout, depending on the policy.
func addToCartHandler(logger *log.Logger, r responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := bookID(c, r)
		if !ok {
			return
		}
		cart := session.CartFrom(c).Add(id)
		if err := session.SaveCart(c, cart); err != nil {
			logger.Printf("cart: save session=%s book_id=%d error=%v", session.ID(c), id, err)
			r.respond(c, problemUnavailable.withDetail("the cart could not be saved"))
			return
		}
		c.Redirect(http.StatusSeeOther, backTo(c))
	}
}

// rejectAddToCart answers non-POST access without touching the cart.
func rejectAddToCart(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, "/")
}

func cartViewHandler(svc cartService, r responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := svc.View(c.Request.Context(), session.CartFrom(c))
		if err != nil {
			r.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, toCartResponse(view))
	}
}

// backTo returns the Referer when it points at this host, otherwise "/".
func backTo(c *gin.Context) string {
	ref := c.GetHeader("Referer")
	if ref == "" {
		return "/"
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "/"
	}
	if u.Host != "" && u.Host != c.Request.Host {
		return "/"
	}
	if u.Path == "" || u.Path[0] != '/' {
		return "/"
	}
	return u.RequestURI()
}
