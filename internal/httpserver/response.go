package httpserver

import (
	"time"

	"github.com/shopspring/decimal"

	"hezora/internal/domain"
	cartsvc "hezora/internal/service/cart"
)

type bookResponse struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Price        string    `json:"price"`
	Downloadable bool      `json:"downloadable"`
	DownloadURL  string    `json:"downloadUrl"`
	CreatedAt    time.Time `json:"createdAt"`
}

type cartLineResponse struct {
	Book      bookResponse `json:"book"`
	Quantity  int          `json:"quantity"`
	LineTotal string       `json:"lineTotal"`
}

type cartResponse struct {
	Items     []cartLineResponse `json:"items"`
	Total     string             `json:"total"`
	CartCount int                `json:"cartCount"`
}

type orderItemResponse struct {
	BookID    int64  `json:"bookId"`
	Title     string `json:"title"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	LineTotal string `json:"lineTotal"`
}

type orderResponse struct {
	ID            int64                `json:"id"`
	Name          string               `json:"name"`
	Email         string               `json:"email"`
	Address       string               `json:"address"`
	PaymentStatus domain.PaymentStatus `json:"paymentStatus"`
	Paid          bool                 `json:"paid"`
	CreatedAt     time.Time            `json:"createdAt"`
	Items         []orderItemResponse  `json:"items"`
	Total         string               `json:"total"`
}

func toBookResponse(b domain.Book) bookResponse {
	return bookResponse{
		ID:           b.ID,
		Title:        b.Title,
		Description:  b.Description,
		Price:        money(b.Price),
		Downloadable: b.HasFile(),
		DownloadURL:  bookPath(b.ID) + "/download",
		CreatedAt:    b.CreatedAt,
	}
}

func toBookResponses(books []domain.Book) []bookResponse {
	out := make([]bookResponse, 0, len(books))
	for _, b := range books {
		out = append(out, toBookResponse(b))
	}
	return out
}

func toCartResponse(v *cartsvc.View) cartResponse {
	items := make([]cartLineResponse, 0, len(v.Items))
	for _, line := range v.Items {
		items = append(items, cartLineResponse{
			Book:      toBookResponse(line.Book),
			Quantity:  line.Quantity,
			LineTotal: money(line.LineTotal),
		})
	}
	return cartResponse{Items: items, Total: money(v.Total), CartCount: v.Count}
}

func toOrderResponse(o domain.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			BookID:    item.BookID,
			Title:     item.Title,
			Quantity:  item.Quantity,
			UnitPrice: money(item.UnitPrice),
			LineTotal: money(item.LineTotal()),
		})
	}
	return orderResponse{
		ID:            o.ID,
		Name:          o.Contact.Name,
		Email:         o.Contact.Email,
		Address:       o.Contact.Address,
		PaymentStatus: o.PaymentStatus,
		Paid:          o.Paid(),
		CreatedAt:     o.CreatedAt,
		Items:         items,
		Total:         money(o.Total()),
	}
}

// money renders an amount with two decimal places.
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
