package api

import (
	"net/http"

	"github.com/Domenick1991/chauffeur/internal/service/catalogue"
	"github.com/gin-gonic/gin"
)

type CatalogueHandler struct {
	service catalogue.CatalogueUseCase
}

func NewCatalogueHandler(service catalogue.CatalogueUseCase) *CatalogueHandler {
	return &CatalogueHandler{service: service}
}

func (h *CatalogueHandler) Register(router *gin.RouterGroup) {
	router.GET("/zones", h.zones)
	router.GET("/routes", h.routes)
	router.GET("/routes/:from/:to", h.route)
}

func (h *CatalogueHandler) zones(c *gin.Context) {
	zones, err := h.service.Zones(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, zones)
}

func (h *CatalogueHandler) routes(c *gin.Context) {
	routes, err := h.service.Routes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, routes)
}

func (h *CatalogueHandler) route(c *gin.Context) {
	route, err := h.service.Route(c.Request.Context(), c.Param("from"), c.Param("to"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}
