package editor

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sandeepkv93/catalog-editor/internal/domain"
	"github.com/sandeepkv93/catalog-editor/internal/service"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Session is the editing state a surface holds between showing the form and
// submitting it. It is a plain value: dropping it is how a surface abandons
// an edit.
type Session struct {
	Mode     Mode
	TargetID int64
}

func NewSession() Session { return Session{Mode: ModeCreate} }

func EditSession(id int64) Session { return Session{Mode: ModeEdit, TargetID: id} }

func (s Session) Editing() bool { return s.Mode == ModeEdit }

// SubmitLabel is the form button text for the session.
func (s Session) SubmitLabel() string {
	if s.Editing() {
		return "Update Product"
	}
	return "Add Product"
}

type Page string

const (
	PageProducts Page = "products"
	PageForm     Page = "add-product"
)

// Form holds raw field text as typed by the user.
type Form struct {
	Title       string `json:"title"`
	Price       string `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

func FormFromProduct(p domain.Product) Form {
	return Form{
		Title:       p.Title,
		Price:       strconv.FormatFloat(p.Price, 'f', -1, 64),
		Image:       p.Image,
		Category:    p.Category,
		Description: p.Description,
	}
}

// ErrPriceRequired reports a blank price field. It is a missing field, not a
// malformed price.
var ErrPriceRequired = fmt.Errorf("%w: price is required", service.ErrProductValidation)

// priceError narrows an invalid-price error from validation to
// ErrPriceRequired when the price field was left blank.
func (f Form) priceError(err error) error {
	if errors.Is(err, service.ErrProductInvalidPrice) && strings.TrimSpace(f.Price) == "" {
		return ErrPriceRequired
	}
	return err
}

// Input converts the form to service input. An empty or non-numeric price
// becomes NaN so validation still reports fields in form order.
func (f Form) Input() service.ProductInput {
	price, err := strconv.ParseFloat(strings.TrimSpace(f.Price), 64)
	if err != nil {
		price = math.NaN()
	}
	return service.ProductInput{
		Title:       f.Title,
		Price:       price,
		Image:       f.Image,
		Category:    f.Category,
		Description: f.Description,
	}
}
