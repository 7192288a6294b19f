package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linemk/inventory-system/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/inventory-system/internal/service"
	"github.com/linemk/inventory-system/internal/views"
)

// Deps зависимости обработчиков
type Deps struct {
	Log      *slog.Logger
	Auth     service.AuthServiceInterface
	Catalog  service.CatalogService
	Orders   service.OrderService
	Sessions SessionManager
	Views    views.Renderer
	// LoadSession кладёт сессию из cookie в контекст запроса
	LoadSession func(http.Handler) http.Handler
}

// Register вешает все маршруты приложения на роутер
func Register(router chi.Router, d Deps) {
	router.Group(func(r chi.Router) {
		r.Use(d.LoadSession)

		// открытые страницы
		r.Get("/", HomeHandler(d.Log, d.Views))
		r.Get("/signup", SignupPageHandler(d.Log, d.Views))
		r.Post("/signup", SignupHandler(d.Log, d.Auth, d.Sessions, d.Views))
		r.Get("/login", LoginPageHandler(d.Log, d.Views))
		r.Post("/login", LoginHandler(d.Log, d.Auth, d.Sessions, d.Views))
		r.Get("/logout", LogoutHandler(d.Sessions))

		r.Group(func(r chi.Router) {
			r.Use(jwtmiddleware.RequireSeller)

			// каталог
			r.Get("/products", ProductsHandler(d.Log, d.Catalog, d.Views))
			r.Get("/products/add", AddProductPageHandler(d.Log, d.Views))
			r.Post("/products/add", AddProductHandler(d.Log, d.Catalog, d.Views))
			r.Get("/product/{id}", ProductDetailHandler(d.Log, d.Catalog, d.Views))
			r.Get("/products/update/{id}", UpdateProductPageHandler(d.Log, d.Catalog, d.Views))
			r.Post("/products/update/{id}", UpdateProductHandler(d.Log, d.Catalog, d.Views))
			r.Get("/products/delete/{id}", DeleteProductPageHandler(d.Log, d.Catalog, d.Views))
			r.Post("/products/delete/{id}", DeleteProductHandler(d.Log, d.Catalog))

			// заказы
			r.Get("/orders", OrdersHandler(d.Log, d.Orders, d.Views))
			r.Get("/order/create", CreateOrderHandler(d.Log, d.Orders, d.Views))
			r.Get("/order/{id}", OrderDetailHandler(d.Log, d.Orders, d.Views))
			r.Post("/order/add-item", AddItemHandler(d.Log, d.Orders, d.Sessions))
			r.Post("/order/remove-item", RemoveItemHandler(d.Log, d.Orders, d.Sessions))
			r.Post("/order/clear", ClearDraftHandler(d.Log, d.Orders, d.Sessions))
			r.Post("/order/submit", SubmitOrderHandler(d.Log, d.Orders, d.Sessions))
		})
	})
}
