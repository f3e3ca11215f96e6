package handlers

import (
	"net/http"
	"strconv"

	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gin-gonic/gin"
)

const employeeResource = "Employee"

// ListEmployees accepts an optional company_id filter. A value that is not
// an id matches no employees.
func (h *Handler) ListEmployees(c *gin.Context) {
	var companyID *uint
	if raw := c.Query("company_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			id = 0
		}
		filter := uint(id)
		companyID = &filter
	}

	page, err := h.employees.ListEmployees(c.Request.Context(), h.pageRequest(c), companyID)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, newList(page, "Employees retrieved successfully", func(emp models.Employee) EmployeeResponse {
		return h.convert.employee(&emp)
	}))
}

func (h *Handler) CreateEmployee(c *gin.Context) {
	fields, _, err := bindFields(c)
	if err != nil {
		h.abort(c, err)
		return
	}

	employee, err := h.employees.CreateEmployee(c.Request.Context(), fields)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.convert.employee(employee))
}

func (h *Handler) GetEmployee(c *gin.Context) {
	id, err := pathID(c, employeeResource)
	if err != nil {
		h.abort(c, err)
		return
	}

	employee, err := h.employees.GetEmployee(c.Request.Context(), id)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, h.convert.employee(employee))
}

func (h *Handler) UpdateEmployee(c *gin.Context) {
	id, err := pathID(c, employeeResource)
	if err != nil {
		h.abort(c, err)
		return
	}
	fields, _, err := bindFields(c)
	if err != nil {
		h.abort(c, err)
		return
	}

	employee, err := h.employees.UpdateEmployee(c.Request.Context(), id, fields)
	if err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, h.convert.employee(employee))
}

func (h *Handler) DeleteEmployee(c *gin.Context) {
	id, err := pathID(c, employeeResource)
	if err != nil {
		h.abort(c, err)
		return
	}

	if err := h.employees.DeleteEmployee(c.Request.Context(), id); err != nil {
		h.abort(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Employee deleted successfully"})
}
