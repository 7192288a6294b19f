// Package views рендерит HTML-страницы из встроенных шаблонов.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/linemk/inventory-system/internal/domain/models"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// Имена страниц
const (
	PageHome          = "home"
	PageSignup        = "signup"
	PageLogin         = "login"
	PageProducts      = "products"
	PageProductForm   = "product_form"
	PageProductDetail = "product_detail"
	PageDeleteProduct = "delete_product"
	PageOrders        = "orders"
	PageCreateOrder   = "create_order"
	PageOrderDetail   = "order_detail"
)

var pages = []string{
	PageHome,
	PageSignup,
	PageLogin,
	PageProducts,
	PageProductForm,
	PageProductDetail,
	PageDeleteProduct,
	PageOrders,
	PageCreateOrder,
	PageOrderDetail,
}

// Renderer отрисовывает страницу с данными
type Renderer interface {
	Render(w http.ResponseWriter, status int, page string, data any) error
}

// Templates набор разобранных шаблонов: каждая страница вместе с общим layout
type Templates struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"date":  func(t time.Time) string { return t.Format("2006-01-02 15:04") },
}

func New() (*Templates, error) {
	t := &Templates{pages: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("views: parse %s: %w", page, err)
		}
		t.pages[page] = tmpl
	}
	return t, nil
}

// MustNew паникует, если шаблоны не разбираются
func MustNew() *Templates {
	t, err := New()
	if err != nil {
		panic(err)
	}
	return t
}

// Render исполняет шаблон в буфер; при ошибке в ответ ничего не пишется
func (t *Templates) Render(w http.ResponseWriter, status int, page string, data any) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("views: unknown page %q", page)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("views: render %s: %w", page, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Данные страниц

type AuthPage struct {
	Error    string
	Name     string
	Username string
}

type ProductsPage struct {
	Products []*models.Product
	Status   string
	Error    string
}

// ProductForm значения полей формы товара в том виде, как их ввёл пользователь
type ProductForm struct {
	Name     string
	Price    string
	Quantity string
	Category string
	Expiry   string
}

// FormFromProduct заполняет форму редактирования текущими значениями товара
func FormFromProduct(p *models.Product) ProductForm {
	return ProductForm{
		Name:     p.Name,
		Price:    p.Price.StringFixed(2),
		Quantity: fmt.Sprint(p.Quantity),
		Category: p.Category,
		Expiry:   p.ExpiryString(),
	}
}

type ProductFormPage struct {
	Title  string
	Action string
	Form   ProductForm
	Error  string
}

type ProductPage struct {
	Product *models.Product
}

type OrdersPage struct {
	Orders []*models.Order
	Status string
	Error  string
}

type CreateOrderPage struct {
	Products []*models.Product
	Items    []models.DraftItem
	Total    decimal.Decimal
	Status   string
	Error    string
}

type OrderDetailPage struct {
	Order *models.Order
	Lines []*models.OrderLine
}
