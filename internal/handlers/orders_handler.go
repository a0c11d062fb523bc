package handlers

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-catalog-orders/internal/orders"
	"github.com/imrishuroy/go-catalog-orders/internal/pagination"
	"github.com/imrishuroy/go-catalog-orders/internal/validation"
)

type ordersHandler struct {
	svc    *orders.Service
	logger *log.Entry
}

type listOrdersQuery struct {
	Limit  int `form:"limit,default=10"`
	Offset int `form:"offset,default=0"`
}

// RegisterOrdersRoutes registers routes for order API.
func RegisterOrdersRoutes(r gin.IRouter, svc *orders.Service, logger *log.Entry) {
	h := &ordersHandler{svc: svc, logger: logger}
	r.POST("/orders", h.create)
	r.GET("/orders/:user_id", h.list)
}

func (h *ordersHandler) create(c *gin.Context) {
	var req validation.CreateOrderRequest
	if err := validation.BindJSON(c, &req); err != nil {
		return
	}

	id, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}

	c.Header("Location", "/orders/"+url.PathEscape(req.UserID))
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *ordersHandler) list(c *gin.Context) {
	var q listOrdersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badQuery(c, err)
		return
	}

	env, err := h.svc.List(c.Request.Context(), c.Param("user_id"), pagination.Params{Limit: q.Limit, Offset: q.Offset})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, env)
}
