package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/linemk/inventory-system/internal/service"
	"github.com/linemk/inventory-system/internal/views"
)

const createOrderPath = "/order/create"

// RemoveItemRequest номер строки черновика
type RemoveItemRequest struct {
	Index string `validate:"required,number"`
}

// OrdersHandler – список заказов продавца, новые сверху
func OrdersHandler(log *slog.Logger, orders service.OrderService, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OrdersHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}

		page := views.OrdersPage{
			Status: r.URL.Query().Get("status"),
			Error:  r.URL.Query().Get("error"),
		}
		list, err := orders.List(r.Context(), sess.SellerID)
		if err != nil {
			logger.Error("failed to list orders", slog.Any("error", err))
			page.Error = msgOperationFailed
		}
		page.Orders = list
		render(w, logger, renderer, views.PageOrders, page)
	}
}

// CreateOrderHandler – экран черновика: товары продавца и накопленные строки
func CreateOrderHandler(log *slog.Logger, orders service.OrderService, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}

		page := views.CreateOrderPage{
			Status: r.URL.Query().Get("status"),
			Error:  r.URL.Query().Get("error"),
		}
		view, err := orders.DraftView(r.Context(), sess.SellerID, &sess.Draft)
		if err != nil {
			logger.Error("failed to build draft view", slog.Any("error", err))
			page.Error = msgOperationFailed
		} else {
			page.Products = view.Products
			page.Items = view.Items
			page.Total = view.Total
		}
		render(w, logger, renderer, views.PageCreateOrder, page)
	}
}

// AddItemHandler – добавление строки в черновик сессии
func AddItemHandler(log *slog.Logger, orders service.OrderService, sessions SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddItemHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			logger.Error("invalid request: form parsing error", slog.Any("error", err))
			redirectWith(w, r, createOrderPath, "error", msgOperationFailed)
			return
		}

		_, err := orders.AddItem(r.Context(), sess.SellerID, &sess.Draft, service.AddItemInput{
			ProductID: r.PostFormValue("product_id"),
			Quantity:  r.PostFormValue("quantity"),
		})
		if err != nil {
			var verr *service.ValidationError
			switch {
			case errors.Is(err, service.ErrInvalidDraftItem):
				// товар не выбран: молча возвращаем на форму
				redirect(w, r, createOrderPath)
			case errors.Is(err, service.ErrNotFound):
				redirectWith(w, r, createOrderPath, "error", msgProductNotFound)
			case errors.As(err, &verr):
				redirectWith(w, r, createOrderPath, "error", verr.Error())
			default:
				logger.Error("failed to add draft item", slog.Any("error", err))
				redirectWith(w, r, createOrderPath, "error", msgOperationFailed)
			}
			return
		}

		if err := sessions.Save(r.Context(), sess); err != nil {
			logger.Error("failed to save session", slog.Any("error", err))
			redirectWith(w, r, createOrderPath, "error", msgOperationFailed)
			return
		}
		redirect(w, r, createOrderPath)
	}
}

// RemoveItemHandler – удаление строки черновика по номеру
func RemoveItemHandler(log *slog.Logger, orders service.OrderService, sessions SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveItemHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			logger.Error("invalid request: form parsing error", slog.Any("error", err))
			redirectWith(w, r, createOrderPath, "error", msgOperationFailed)
			return
		}

		req := RemoveItemRequest{Index: r.PostFormValue("index")}
		if err := validate.Struct(req); err != nil {
			redirectWith(w, r, createOrderPath, "error", msgDraftItemMissing)
			return
		}
		index, err := strconv.Atoi(req.Index)
		if err != nil {
			redirectWith(w, r, createOrderPath, "error", msgDraftItemMissing)
			return
		}

		if err := orders.RemoveItem(&sess.Draft, index); err != nil {
			redirectWith(w, r, createOrderPath, "error", msgDraftItemMissing)
			return
		}
		if err := sessions.Save(r.Context(), sess); err != nil {
			logger.Error("failed to save session", slog.Any("error", err))
			redirectWith(w, r, createOrderPath, "error", msgOperationFailed)
			return
		}
		redirect(w, r, createOrderPath)
	}
}

// ClearDraftHandler – очистка черновика без выхода из системы
func ClearDraftHandler(log *slog.Logger, orders service.OrderService, sessions SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ClearDraftHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}

		orders.ClearDraft(&sess.Draft)
		if err := sessions.Save(r.Context(), sess); err != nil {
			logger.Error("failed to save session", slog.Any("error", err))
			redirectWith(w, r, createOrderPath, "error", msgOperationFailed)
			return
		}
		redirectWith(w, r, createOrderPath, "status", "Draft cleared")
	}
}

// SubmitOrderHandler – фиксация черновика одной транзакцией
func SubmitOrderHandler(log *slog.Logger, orders service.OrderService, sessions SessionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.SubmitOrderHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}
		if err := r.ParseForm(); err != nil {
			logger.Error("invalid request: form parsing error", slog.Any("error", err))
			redirectWith(w, r, createOrderPath, "error", msgOperationFailed)
			return
		}

		order, err := orders.Submit(r.Context(), sess.SellerID, &sess.Draft, r.PostFormValue("order_type"))
		if err != nil {
			var verr *service.ValidationError
			var stale *service.StaleItemError
			switch {
			case errors.Is(err, service.ErrEmptyDraft):
				redirect(w, r, createOrderPath)
				return
			case errors.As(err, &verr), errors.As(err, &stale), errors.Is(err, service.ErrConflict):
				logger.Info("order rejected", slog.Any("error", err))
			default:
				logger.Error("failed to submit order", slog.Any("error", err))
			}
			// черновик остаётся в сессии, продавец может его поправить
			redirectWith(w, r, createOrderPath, "error", userMessage(err))
			return
		}

		// заказ уже зафиксирован; если черновик не сохранился, продавец увидит его снова
		if err := sessions.Save(r.Context(), sess); err != nil {
			logger.Error("failed to save session after commit", slog.Int64("orderID", order.ID), slog.Any("error", err))
		}
		redirectWith(w, r, "/orders", "status", "Order created")
	}
}

// OrderDetailHandler – заказ со строками
func OrderDetailHandler(log *slog.Logger, orders service.OrderService, renderer views.Renderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.OrderDetailHandler"
		logger := log.With(slog.String("op", op))

		sess, ok := currentSession(w, r, logger)
		if !ok {
			return
		}
		id, ok := idParam(r)
		if !ok {
			redirectWith(w, r, "/orders", "error", msgOrderNotFound)
			return
		}

		detail, err := orders.Detail(r.Context(), sess.SellerID, id)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				redirectWith(w, r, "/orders", "error", msgOrderNotFound)
				return
			}
			logger.Error("failed to get order", slog.Int64("orderID", id), slog.Any("error", err))
			redirectWith(w, r, "/orders", "error", msgOperationFailed)
			return
		}
		render(w, logger, renderer, views.PageOrderDetail, views.OrderDetailPage{Order: detail.Order, Lines: detail.Lines})
	}
}
