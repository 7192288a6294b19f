package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/linemk/inventory-system/internal/domain/models"
	"github.com/linemk/inventory-system/internal/service"
	"github.com/linemk/inventory-system/internal/views"
)

// ProductRequest поля формы товара. Цена, количество и срок годности разбираются сервисом.
type ProductRequest struct {
	Name     string `validate:"required,max=255"`
	Price    string `validate:"required"`
	Quantity string `validate:"required"`
	Category string `validate:"max=255"`
	Expiry   string
}

func productRequest(r *http.Request) ProductRequest {
	return ProductRequest{
		Name:     r.PostFormValue("name"),
		Price:    r.PostFormValue("price"),
		Quantity: r.PostFormValue("quantity"),
		Category: r.PostFormValue("category"),
		Expiry:   r.PostFormValue("expiry"),
	}
}

func (p ProductRequest) form() views.ProductForm {
	return views.ProductForm(p)
}

func (p ProductRequest) input() service.ProductInput {
	return service.ProductInput(p)
}

// ProductsHandler – список товаров продавца
func ProductsHandler(log *slog.Logger, catalog service.CatalogService, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ProductsHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}

		page := views.ProductsPage{
			Status: r.URL.Query().Get("status"),
			Error:  r.URL.Query().Get("error"),
		}
		products, err := catalog.List(r.Context(), sess.SellerID)
		if err != nil {
			logger.Error("failed to list products", slog.Any("error", err))
			page.Error = msgOperationFailed
		}
		page.Products = products
		render(w, logger, renderer, views.PageProducts, page)
	}
}

func AddProductPageHandler(log *slog.Logger, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, log.With(slog.String("op", "handlers.AddProductPageHandler")), renderer, views.PageProductForm, views.ProductFormPage{
			Title:  "Add product",
			Action: "/products/add",
		})
	}
}

// AddProductHandler – создание товара; при ошибке ввода форма показывается снова с введёнными значениями
func AddProductHandler(log *slog.Logger, catalog service.CatalogService, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddProductHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			logger.Error("invalid request: form parsing error", slog.Any("error", err))
			redirectWith(w, r, "/products", "error", msgOperationFailed)
			return
		}

		req := productRequest(r)
		page := views.ProductFormPage{Title: "Add product", Action: "/products/add", Form: req.form()}

		if err := validate.Struct(req); err != nil {
			page.Error = validationMessage(err)
			render(w, logger, renderer, views.PageProductForm, page)
			return
		}

		if _, err := catalog.Create(r.Context(), sess.SellerID, req.input()); err != nil {
			var verr *service.ValidationError
			if !errors.As(err, &verr) {
				logger.Error("failed to create product", slog.Any("error", err))
			}
			page.Error = userMessage(err)
			render(w, logger, renderer, views.PageProductForm, page)
			return
		}
		redirectWith(w, r, "/products", "status", "Product added")
	}
}

// ProductDetailHandler – карточка товара
func ProductDetailHandler(log *slog.Logger, catalog service.CatalogService, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ProductDetailHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}
		product, ok := loadProduct(w, r, logger, catalog, sess.SellerID)
		if !ok {
			return
		}
		render(w, logger, renderer, views.PageProductDetail, views.ProductPage{Product: product})
	}
}

func UpdateProductPageHandler(log *slog.Logger, catalog service.CatalogService, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProductPageHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}
		product, ok := loadProduct(w, r, logger, catalog, sess.SellerID)
		if !ok {
			return
		}
		render(w, logger, renderer, views.PageProductForm, views.ProductFormPage{
			Title:  "Update product",
			Action: updateAction(product.ID),
			Form:   views.FormFromProduct(product),
		})
	}
}

// UpdateProductHandler – изменение товара продавца
func UpdateProductHandler(log *slog.Logger, catalog service.CatalogService, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProductHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(r)
		if !ok {
			redirectWith(w, r, "/products", "error", msgProductNotFound)
			return
		}
		if err := r.ParseForm(); err != nil {
			logger.Error("invalid request: form parsing error", slog.Any("error", err))
			redirectWith(w, r, "/products", "error", msgOperationFailed)
			return
		}

		req := productRequest(r)
		page := views.ProductFormPage{Title: "Update product", Action: updateAction(id), Form: req.form()}

		if err := validate.Struct(req); err != nil {
			page.Error = validationMessage(err)
			render(w, logger, renderer, views.PageProductForm, page)
			return
		}

		if _, err := catalog.Update(r.Context(), sess.SellerID, id, req.input()); err != nil {
			var verr *service.ValidationError
			switch {
			case errors.Is(err, service.ErrNotFound):
				redirectWith(w, r, "/products", "error", msgProductNotFound)
				return
			case !errors.As(err, &verr):
				logger.Error("failed to update product", slog.Int64("productID", id), slog.Any("error", err))
			}
			page.Error = userMessage(err)
			render(w, logger, renderer, views.PageProductForm, page)
			return
		}
		redirectWith(w, r, "/products", "status", "Updated")
	}
}

func DeleteProductPageHandler(log *slog.Logger, catalog service.CatalogService, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteProductPageHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}
		product, ok := loadProduct(w, r, logger, catalog, sess.SellerID)
		if !ok {
			return
		}
		render(w, logger, renderer, views.PageDeleteProduct, views.ProductPage{Product: product})
	}
}

// DeleteProductHandler – удаление товара; строки заказов остаются с пустой ссылкой
func DeleteProductHandler(log *slog.Logger, catalog service.CatalogService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteProductHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(r)
		if !ok {
			redirectWith(w, r, "/products", "error", msgProductNotFound)
			return
		}

		if err := catalog.Delete(r.Context(), sess.SellerID, id); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				redirectWith(w, r, "/products", "error", msgProductNotFound)
				return
			}
			logger.Error("failed to delete product", slog.Int64("productID", id), slog.Any("error", err))
			redirectWith(w, r, "/products", "error", msgOperationFailed)
			return
		}
		redirectWith(w, r, "/products", "status", "Deleted")
	}
}

// loadProduct читает товар по {id}; чужой или несуществующий товар уводит на список с ошибкой
func loadProduct(w http.ResponseWriter, r *http.Request, logger *slog.Logger, catalog service.CatalogService, sellerID int64) (*models.Product, bool) {
	id, ok := idParam(r)
	if !ok {
		redirectWith(w, r, "/products", "error", msgProductNotFound)
		return nil, false
	}

	product, err := catalog.Get(r.Context(), sellerID, id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			redirectWith(w, r, "/products", "error", msgProductNotFound)
			return nil, false
		}
		logger.Error("failed to get product", slog.Int64("productID", id), slog.Any("error", err))
		redirectWith(w, r, "/products", "error", msgOperationFailed)
		return nil, false
	}
	return product, true
}

func updateAction(id int64) string {
	return "/products/update/" + strconv.FormatInt(id, 10)
}
