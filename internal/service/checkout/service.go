package checkout

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"hezora/internal/domain"
	"hezora/internal/notify"
	orderrepo "hezora/internal/repository/order"
	cartsvc "hezora/internal/service/cart"
)

type Service struct {
	carts    reconciler
	orders   orderRepo
	notifier notify.Sender
	opts     Options
	validate *validator.Validate
}

type reconciler interface {
	Reconcile(ctx context.Context, cart domain.Cart, policy domain.ReconcilePolicy) (*cartsvc.Reconciliation, error)
}

type orderRepo interface {
	Create(ctx context.Context, in orderrepo.CreateOrderInput) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
}

type Options struct {
	Policy        domain.ReconcilePolicy
	CurrencyLabel string
	FromEmail     string
	NotifyTimeout time.Duration
	Logger        *log.Logger
}

func New(carts reconciler, orders orderRepo, notifier notify.Sender, opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if notifier == nil {
		notifier = notify.Noop{}
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = 10 * time.Second
	}
	return &Service{
		carts:    carts,
		orders:   orders,
		notifier: notifier,
		opts:     opts,
		validate: newValidator(),
	}
}

// ContactInput is the checkout form.
type ContactInput struct {
	Name    string `json:"name" form:"name" validate:"required,max=200"`
	Email   string `json:"email" form:"email" validate:"required,email,max=254"`
	Address string `json:"address" form:"address" validate:"required,max=1000"`
}

// Result of a completed checkout. Cart is the visitor's cart after checkout
// and must be written back to the session by the caller.
type Result struct {
	Order   *domain.Order
	Total   decimal.Decimal
	Skipped []int64
	Cart    domain.Cart
}

// Checkout turns the cart into a paid order. It returns domain.ErrEmptyCart for
// an empty cart, *domain.ValidationError for bad contact fields and
// *domain.DanglingReferenceError when the strict policy meets a missing book.
// Nothing is persisted in any of those cases. The receipt is sent after the
// order is stored; its failure is logged and otherwise ignored.
func (s *Service) Checkout(ctx context.Context, cart domain.Cart, in ContactInput) (*Result, error) {
	if cart.Empty() {
		return nil, domain.ErrEmptyCart
	}

	contact, err := s.validateContact(in)
	if err != nil {
		return nil, err
	}

	rec, err := s.carts.Reconcile(ctx, cart, s.opts.Policy)
	if err != nil {
		return nil, err
	}
	if len(rec.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	lines := make([]orderrepo.CreateLineInput, 0, len(rec.Lines))
	for _, line := range rec.Lines {
		lines = append(lines, orderrepo.CreateLineInput{BookID: line.Book.ID, Quantity: line.Quantity})
	}
	order, err := s.orders.Create(ctx, orderrepo.CreateOrderInput{
		Contact:       contact,
		PaymentStatus: domain.PaymentPaid,
		Lines:         lines,
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	s.opts.Logger.Printf("checkout: order_id=%d items=%d total=%s skipped=%v", order.ID, len(order.Items), rec.Total.StringFixed(2), rec.Skipped)

	s.sendReceipt(ctx, order, rec.Total)

	return &Result{
		Order:   order,
		Total:   rec.Total,
		Skipped: rec.Skipped,
		Cart:    cart.Clear(),
	}, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.orders.GetByID(ctx, id)
}

func (s *Service) sendReceipt(ctx context.Context, order *domain.Order, total decimal.Decimal) {
	receipt := BuildReceipt(*order, total, s.opts.CurrencyLabel, s.opts.FromEmail)
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.NotifyTimeout)
	defer cancel()
	if err := s.notifier.Send(sendCtx, receipt); err != nil {
		s.opts.Logger.Printf("checkout: receipt order_id=%d to=%s error=%v", order.ID, receipt.To, err)
	}
}

func (s *Service) validateContact(in ContactInput) (domain.Contact, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Address = strings.TrimSpace(in.Address)

	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.Contact{}, err
		}
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			if _, seen := fields[fe.Field()]; !seen {
				fields[fe.Field()] = fieldMessage(fe)
			}
		}
		return domain.Contact{}, &domain.ValidationError{Fields: fields}
	}
	return domain.Contact{Name: in.Name, Email: in.Email, Address: in.Address}, nil
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "max":
		return fmt.Sprintf("Ensure this value has at most %s characters.", fe.Param())
	default:
		return "Invalid value."
	}
}
