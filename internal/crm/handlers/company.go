package handlers

import (
	"net/http"

	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gin-gonic/gin"
)

const companyResource = "Company"

func (h *Handler) ListCompanies(c *gin.Context) {
	page, err := h.companies.ListCompanies(c.Request.Context(), h.pageRequest(c))
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, newList(page, "Companies retrieved successfully", func(company models.Company) CompanyResponse {
		return h.convert.company(&company, true)
	}))
}

func (h *Handler) CreateCompany(c *gin.Context) {
	fields, logo, err := bindFields(c)
	if err != nil {
		h.abort(c, err)
		return
	}

	company, err := h.companies.CreateCompany(c.Request.Context(), currentUser(c), fields, logo)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.convert.company(company, true))
}

func (h *Handler) GetCompany(c *gin.Context) {
	id, err := pathID(c, companyResource)
	if err != nil {
		h.abort(c, err)
		return
	}

	company, err := h.companies.GetCompany(c.Request.Context(), id)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, h.convert.company(company, true))
}

func (h *Handler) UpdateCompany(c *gin.Context) {
	id, err := pathID(c, companyResource)
	if err != nil {
		h.abort(c, err)
		return
	}
	fields, logo, err := bindFields(c)
	if err != nil {
		h.abort(c, err)
		return
	}

	company, err := h.companies.UpdateCompany(c.Request.Context(), id, fields, logo)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, h.convert.company(company, true))
}

func (h *Handler) DeleteCompany(c *gin.Context) {
	id, err := pathID(c, companyResource)
	if err != nil {
		h.abort(c, err)
		return
	}

	if err := h.companies.DeleteCompany(c.Request.Context(), id); err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Company deleted successfully"})
}
