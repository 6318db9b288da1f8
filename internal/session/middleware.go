package session

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"hezora/internal/domain"
)

// CookieName is the cookie that carries the session id.
const CookieName = "hezora_session"

const ctxKey = "hezora.session"

type CookieOptions struct {
	TTL    time.Duration
	Secure bool
}

type state struct {
	id    string
	data  Data
	store Store
}

// Middleware loads the visitor's session before the handler runs and issues a
// new id when the cookie is missing, malformed or points at an expired session.
func Middleware(store Store, opts CookieOptions, logger *log.Logger) gin.HandlerFunc {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return func(c *gin.Context) {
		id, _ := c.Cookie(CookieName)
		data := Data{}
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		} else {
			loaded, err := store.Load(c.Request.Context(), id)
			switch {
			case err == nil:
				data = loaded
			case errors.Is(err, ErrNotFound):
				id = uuid.NewString()
			default:
				if logger != nil {
					logger.Printf("session: load id=%s error=%v", id, err)
				}
				c.AbortWithStatus(http.StatusServiceUnavailable)
				return
			}
		}

		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(CookieName, id, int(opts.TTL.Seconds()), "/", "", opts.Secure, true)
		c.Set(ctxKey, &state{id: id, data: data, store: store})
		c.Next()
	}
}

func current(c *gin.Context) *state {
	v, ok := c.Get(ctxKey)
	if !ok {
		return nil
	}
	st, _ := v.(*state)
	return st
}

// ID returns the session id of the request, or "" outside the middleware.
func ID(c *gin.Context) string {
	if st := current(c); st != nil {
		return st.id
	}
	return ""
}

// CartFrom returns the cart of the current visitor; empty when none exists yet.
func CartFrom(c *gin.Context) domain.Cart {
	st := current(c)
	if st == nil {
		return domain.NewCart()
	}
	return st.data.Cart()
}

// SaveCart replaces the visitor's cart and persists the session immediately.
func SaveCart(c *gin.Context, cart domain.Cart) error {
	st := current(c)
	if st == nil {
		return errors.New("session middleware not installed")
	}
	if err := st.data.SetCart(cart); err != nil {
		return err
	}
	return st.store.Save(c.Request.Context(), st.id, st.data)
}

// CompleteCheckout stores the post-checkout cart and remembers the order so the
// visitor can open its confirmation page. Both are persisted in one save.
func CompleteCheckout(c *gin.Context, cart domain.Cart, orderID int64) error {
	st := current(c)
	if st == nil {
		return errors.New("session middleware not installed")
	}
	if err := st.data.SetCart(cart); err != nil {
		return err
	}
	if err := st.data.AddOrder(orderID); err != nil {
		return err
	}
	return st.store.Save(c.Request.Context(), st.id, st.data)
}

// OwnsOrder reports whether the order was placed from the current session.
func OwnsOrder(c *gin.Context, orderID int64) bool {
	st := current(c)
	if st == nil {
		return false
	}
	for _, id := range st.data.Orders() {
		if id == orderID {
			return true
		}
	}
	return false
}
