package http

import (
	"net/http"
	"strconv"

	"storefront-service/internal/domain"
	"storefront-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	orders    *services.OrderService
	reviews   *services.ReviewService
	products  *services.ProductService
	analytics *services.AnalyticsService
	log       *logrus.Logger
}

func NewHandler(
	orders *services.OrderService,
	reviews *services.ReviewService,
	products *services.ProductService,
	analytics *services.AnalyticsService,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		orders:    orders,
		reviews:   reviews,
		products:  products,
		analytics: analytics,
		log:       logger,
	}
}

// RegisterRoutes mounts the authenticated API on r.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/orders", h.CreateOrder)
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.PATCH("/orders/:id/status", h.TransitionStatus)

	r.POST("/products", h.CreateProduct)
	r.GET("/products/:id", h.GetProduct)
	r.PATCH("/products/:id/price", h.UpdatePrice)

	r.GET("/products/:id/reviews", h.ListReviews)
	r.POST("/products/:id/reviews", h.CreateReview)
	r.PUT("/reviews/:id", h.UpdateReview)
	r.DELETE("/reviews/:id", h.DeleteReview)
	r.POST("/reviews/:id/helpful", h.MarkHelpful)

	a := r.Group("/analytics", RequireArtisan())
	a.GET("/sales-trend", h.SalesTrend)
	a.GET("/top-products", h.TopProducts)
	a.GET("/categories", h.Categories)
	a.GET("/customers", h.Customers)
	a.GET("/inventory", h.Inventory)
	a.GET("/overview", h.Overview)
	a.GET("/dashboard", h.Dashboard)
}

func (h *Handler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	actor := actorFrom(c)
	if !actor.IsCustomer() {
		ErrorResponse(c, http.StatusForbidden, CodeForbidden, "only customers can place orders")
		return
	}

	items := make([]domain.LineItemRequest, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, domain.LineItemRequest{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	order, err := h.orders.CreateOrder(c.Request.Context(), domain.CreateOrderRequest{
		CustomerID:      actor.ID,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Order created", toOrderResponse(order))
}

func (h *Handler) ListOrders(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}
	orders, err := h.orders.ListCustomerOrders(c.Request.Context(), actorFrom(c), limit, offset)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, toOrderResponse(&orders[i]))
	}
	SuccessResponse(c, http.StatusOK, "Orders retrieved", out)
}

func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Order retrieved", toOrderResponse(order))
}

func (h *Handler) TransitionStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	order, err := h.orders.TransitionStatus(c.Request.Context(), actorFrom(c), domain.TransitionRequest{
		OrderID:        id,
		Status:         domain.OrderStatus(req.Status),
		PaymentStatus:  domain.PaymentStatus(req.PaymentStatus),
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Order status updated", toOrderResponse(order))
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	p, err := h.products.CreateProduct(c.Request.Context(), actorFrom(c), services.CreateProductRequest{
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Stock:    req.Stock,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Product created", toProductResponse(p))
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	p, err := h.products.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Product retrieved", toProductResponse(p))
}

func (h *Handler) UpdatePrice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req UpdatePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	p, err := h.products.UpdatePrice(c.Request.Context(), actorFrom(c), id, req.Price)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Price updated", toProductResponse(p))
}

func (h *Handler) ListReviews(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	reviews, err := h.reviews.ListProductReviews(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Reviews retrieved", reviews)
}

func (h *Handler) CreateReview(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	review, summary, err := h.reviews.CreateReview(c.Request.Context(), actorFrom(c), id, req.Rating, req.Comment)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusCreated, "Review created", ReviewMutationResponse{
		Review:  review,
		Product: displaySummary(summary),
	})
}

func (h *Handler) UpdateReview(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return
	}
	review, summary, err := h.reviews.UpdateReview(c.Request.Context(), actorFrom(c), id, req.Rating, req.Comment)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Review updated", ReviewMutationResponse{
		Review:  review,
		Product: displaySummary(summary),
	})
}

func (h *Handler) DeleteReview(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	summary, err := h.reviews.DeleteReview(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Review deleted", ReviewMutationResponse{Product: displaySummary(summary)})
}

func (h *Handler) MarkHelpful(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	review, err := h.reviews.MarkHelpful(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Review marked helpful", review)
}

func (h *Handler) SalesTrend(c *gin.Context) {
	tf, ok := timeFrame(c)
	if !ok {
		return
	}
	out, err := h.analytics.SalesTrend(c.Request.Context(), actorFrom(c), tf)
	h.respond(c, "Sales trend retrieved", out, err)
}

func (h *Handler) TopProducts(c *gin.Context) {
	tf, ok := timeFrame(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	out, err := h.analytics.TopProducts(c.Request.Context(), actorFrom(c), tf, limit)
	h.respond(c, "Top products retrieved", out, err)
}

func (h *Handler) Categories(c *gin.Context) {
	out, err := h.analytics.Categories(c.Request.Context(), actorFrom(c))
	h.respond(c, "Category performance retrieved", out, err)
}

func (h *Handler) Customers(c *gin.Context) {
	tf, ok := timeFrame(c)
	if !ok {
		return
	}
	out, err := h.analytics.Customers(c.Request.Context(), actorFrom(c), tf)
	h.respond(c, "Customer insights retrieved", out, err)
}

func (h *Handler) Inventory(c *gin.Context) {
	out, err := h.analytics.Inventory(c.Request.Context(), actorFrom(c))
	h.respond(c, "Inventory insights retrieved", out, err)
}

func (h *Handler) Overview(c *gin.Context) {
	tf, ok := timeFrame(c)
	if !ok {
		return
	}
	out, err := h.analytics.Overview(c.Request.Context(), actorFrom(c), tf)
	h.respond(c, "Overview retrieved", out, err)
}

func (h *Handler) Dashboard(c *gin.Context) {
	tf, ok := timeFrame(c)
	if !ok {
		return
	}
	out, err := h.analytics.Dashboard(c.Request.Context(), actorFrom(c), tf)
	h.respond(c, "Dashboard retrieved", out, err)
}

func (h *Handler) respond(c *gin.Context, message string, data any, err error) {
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	SuccessResponse(c, http.StatusOK, message, data)
}

func pathID(c *gin.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		ErrorResponse(c, http.StatusBadRequest, CodeInvalidRequest, "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, CodeInvalidRequest, name+" must be an integer")
		return 0, false
	}
	return v, true
}

func timeFrame(c *gin.Context) (domain.TimeFrame, bool) {
	tf, err := domain.ParseTimeFrame(c.Query("timeFrame"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())
		return "", false
	}
	return tf, true
}
