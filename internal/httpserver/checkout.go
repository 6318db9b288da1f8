package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hezora/internal/domain"
	"hezora/internal/service/checkout"
	"hezora/internal/session"
)

var checkoutFields = []gin.H{
	{"name": "name", "label": "Full name", "type": "text", "required": true, "maxLength": 200},
	{"name": "email", "label": "Email", "type": "email", "required": true, "maxLength": 254},
	{"name": "address", "label": "Address", "type": "textarea", "required": true, "maxLength": 1000},
}

func checkoutFormHandler(carts cartService, r responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart := session.CartFrom(c)
		if cart.Empty() {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		view, err := carts.View(c.Request.Context(), cart)
		if err != nil {
			r.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"form":      gin.H{"action": "/checkout", "method": http.MethodPost, "fields": checkoutFields},
			"cart":      toCartResponse(view),
			"cartCount": cart.Count(),
		})
	}
}

func checkoutSubmitHandler(svc checkoutService, logger *log.Logger, r responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		cart := session.CartFrom(c)
		if cart.Empty() {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}

		var in checkout.ContactInput
		if err := c.ShouldBind(&in); err != nil {
			r.badRequest(c, "malformed checkout form")
			return
		}

		res, err := svc.Checkout(c.Request.Context(), cart, in)
		if err != nil {
			if errors.Is(err, domain.ErrEmptyCart) {
				c.Redirect(http.StatusSeeOther, "/")
				return
			}
			r.respondError(c, err)
			return
		}

		if err := session.CompleteCheckout(c, res.Cart, res.Order.ID); err != nil {
			logger.Printf("checkout: clear cart session=%s order_id=%d error=%v", session.ID(c), res.Order.ID, err)
		}
		c.Header("Location", "/orders/"+strconv.FormatInt(res.Order.ID, 10))
		c.JSON(http.StatusCreated, gin.H{
			"order":     toOrderResponse(*res.Order),
			"total":     money(res.Total),
			"skipped":   res.Skipped,
			"cartCount": res.Cart.Count(),
		})
	}
}

// orderHandler shows the confirmation of an order placed from the same session.
func orderHandler(svc checkoutService, r responder) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			r.badRequest(c, "order id must be a positive integer")
			return
		}
		if !session.OwnsOrder(c, id) {
			r.notFound(c, "order", id)
			return
		}
		order, err := svc.GetOrder(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				r.notFound(c, "order", id)
				return
			}
			r.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"order":     toOrderResponse(*order),
			"cartCount": session.CartFrom(c).Count(),
		})
	}
}
