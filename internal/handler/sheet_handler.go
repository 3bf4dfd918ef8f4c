package handler

import (
	"errors"
	"fmt"
	"net/http"

	"carf-backend/internal/middleware"
	"carf-backend/internal/sheet"
	"carf-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type SheetHandler struct {
	workbook *sheet.Workbook
}

func NewSheetHandler(workbook *sheet.Workbook) *SheetHandler {
	return &SheetHandler{workbook: workbook}
}

func (h *SheetHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.POST("/submitform", middleware.RequirePermission("customers.write"), h.SubmitForm)
		api.POST("/updateform", middleware.RequirePermission("customers.write"), h.UpdateForm)
		api.POST("/submittobos", middleware.RequirePermission("customers.write"), h.SubmitToBOS)
		api.POST("/submittoemail", middleware.RequirePermission("customers.write"), h.SubmitToEmail)
		api.POST("/submittoexecemail", middleware.RequirePermission("customers.write"), h.SubmitToExecEmail)
	}
}

// bindRow flattens a JSON object into the string cells a sheet row holds.
func bindRow(c *gin.Context) (map[string]string, error) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New("empty payload")
	}

	row := make(map[string]string, len(body))
	for k, v := range body {
		switch val := v.(type) {
		case string:
			row[k] = val
		case nil:
			row[k] = ""
		case bool:
			row[k] = fmt.Sprintf("%t", val)
		case float64:
			row[k] = fmt.Sprintf("%g", val)
		default:
			row[k] = fmt.Sprint(val)
		}
	}
	return row, nil
}

func (h *SheetHandler) appendTo(c *gin.Context, tab string) {
	row, err := bindRow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid payload: "+err.Error()))
		return
	}

	num, err := h.workbook.AppendRow(tab, row)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, map[string]interface{}{
		"tab":    tab,
		"number": num,
	}))
}

// SubmitForm appends a form row to the customer data tab
// @Summary      Submit form row
// @Description  Appends the posted form fields as a new row of the customer data tab; the workbook assigns the row number
// @Tags         sheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      object  true  "Flat form fields"
// @Success      201      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /api/submitform [post]
func (h *SheetHandler) SubmitForm(c *gin.Context) {
	h.appendTo(c, sheet.TabCustomerData)
}

// UpdateForm updates a customer data row in place by gencode
// @Summary      Update form row
// @Description  Finds the customer data row whose gencode matches and overwrites the posted columns
// @Tags         sheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      object  true  "Flat form fields including gencode"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/updateform [post]
func (h *SheetHandler) UpdateForm(c *gin.Context) {
	row, err := bindRow(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid payload: "+err.Error()))
		return
	}

	gencode := row["gencode"]
	if gencode == "" {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "gencode is required"))
		return
	}

	if err := h.workbook.UpdateRow(sheet.TabCustomerData, "gencode", gencode, row); err != nil {
		if errors.Is(err, sheet.ErrRowNotFound) {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Row not found for gencode "+gencode))
			return
		}
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Row updated"))
}

// SubmitToBOS appends a row to the back-office tab
// @Summary      Submit BOS row
// @Tags         sheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      object  true  "Flat form fields"
// @Success      201      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /api/submittobos [post]
func (h *SheetHandler) SubmitToBOS(c *gin.Context) {
	h.appendTo(c, sheet.TabBOSData)
}

// SubmitToEmail appends a row to the email notification tab
// @Summary      Submit email row
// @Tags         sheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      object  true  "Flat form fields"
// @Success      201      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /api/submittoemail [post]
func (h *SheetHandler) SubmitToEmail(c *gin.Context) {
	h.appendTo(c, sheet.TabEmailData)
}

// SubmitToExecEmail appends a row to the executive email tab
// @Summary      Submit executive email row
// @Tags         sheets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      object  true  "Flat form fields"
// @Success      201      {object}  response.Response{data=object}
// @Failure      400      {object}  response.Response
// @Router       /api/submittoexecemail [post]
func (h *SheetHandler) SubmitToExecEmail(c *gin.Context) {
	h.appendTo(c, sheet.TabExecEmail)
}
