package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/imrishuroy/go-catalog-orders/internal/pagination"
	"github.com/imrishuroy/go-catalog-orders/internal/products"
	"github.com/imrishuroy/go-catalog-orders/internal/validation"
)

type productsHandler struct {
	svc    *products.Service
	logger *log.Entry
}

type listProductsQuery struct {
	Name   string `form:"name"`
	Size   string `form:"size"`
	Limit  int    `form:"limit,default=10"`
	Offset int    `form:"offset,default=0"`
}

// RegisterProductsRoutes registers the catalog routes.
func RegisterProductsRoutes(r gin.IRouter, svc *products.Service, logger *log.Entry) {
	h := &productsHandler{svc: svc, logger: logger}
	r.POST("/products", h.create)
	r.GET("/products", h.list)
}

func (h *productsHandler) create(c *gin.Context) {
	var req validation.CreateProductRequest
	if err := validation.BindJSON(c, &req); err != nil {
		return
	}

	id, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *productsHandler) list(c *gin.Context) {
	var q listProductsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badQuery(c, err)
		return
	}

	env, err := h.svc.List(c.Request.Context(), products.Query{
		Filter: products.Filter{Name: q.Name, Size: q.Size},
		Page:   pagination.Params{Limit: q.Limit, Offset: q.Offset},
	})
	if err != nil {
		writeError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, env)
}
