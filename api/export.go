package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"sisgeagro/database"
	"sisgeagro/logger"
	"sisgeagro/models"
	"sisgeagro/service"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportHandler 导出处理器
type ExportHandler struct{}

// NewExportHandler 创建导出处理器
func NewExportHandler() *ExportHandler {
	return &ExportHandler{}
}

var exportHeaders = []string{
	"ID", "Fecha", "Tipo", "Descripción", "Entidad", "CUIT", "Factura",
	"Categoría", "Subcategoría", "Forma de pago", "Monto", "Impuestos", "Verificado",
}

var cellBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
}

// ExportExcel 导出收支为 Excel
// @Summary 导出收支为Excel
// @Description 使用与列表相同的筛选条件导出全部符合条件的收支
// @Tags 导出
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param type query string false "ingreso / egreso / inversion"
// @Param from query string false "开始日期 (YYYY-MM-DD)"
// @Param to query string false "结束日期 (YYYY-MM-DD)"
// @Success 200 {file} file "Excel文件"
// @Failure 400 {object} Response "参数错误"
// @Router /api/v1/movements/export/excel [get]
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	var f service.MovementFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		bindError(c, err)
		return
	}

	views, err := service.NewMovementService(database.DB, nil).All(c.Request.Context(), f)
	if err != nil {
		Fail(c, err)
		return
	}

	book, err := buildMovementWorkbook(views)
	if err != nil {
		Fail(c, err)
		return
	}
	defer book.Close()

	filename := fmt.Sprintf("movimientos_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", filename))
	if err := book.Write(c.Writer); err != nil {
		log := logger.FromContext(c.Request.Context())
		log.Error().Err(err).Msg("no se pudo escribir el Excel")
		c.Status(http.StatusInternalServerError)
	}
}

// buildMovementWorkbook 生成收支工作簿：表头、明细和按类型汇总
func buildMovementWorkbook(views []service.MovementView) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := "Movimientos"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 12, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder,
	})
	dataStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "center"},
		Border:    cellBorder,
	})
	summaryStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"FFC000"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    cellBorder,
	})

	widths := []float64{8, 12, 12, 35, 25, 16, 20, 20, 20, 16, 14, 30, 11}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}
	f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)

	totals := make(map[string]float64)
	for i, v := range views {
		row := i + 2
		values := []interface{}{
			v.ID,
			v.Date.Format(service.DateLayout),
			v.Type,
			v.Description,
			v.EntityName,
			v.FiscalID,
			v.BillNumber,
			v.Category,
			v.Subcategory,
			v.PaymentType,
			v.Amount,
			taxSummary(v.Taxes),
			yesNo(v.Verified),
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			f.SetCellValue(sheet, cell, value)
		}
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), dataStyle)
		totals[v.Type] += v.Amount
	}

	row := len(views) + 3
	for _, t := range models.GetMovementTypes() {
		f.SetCellValue(sheet, fmt.Sprintf("J%d", row), "Total "+t)
		f.SetCellValue(sheet, fmt.Sprintf("K%d", row), totals[t])
		f.SetCellStyle(sheet, fmt.Sprintf("J%d", row), fmt.Sprintf("K%d", row), summaryStyle)
		row++
	}
	f.SetCellValue(sheet, fmt.Sprintf("J%d", row), fmt.Sprintf("%d registros", len(views)))
	f.SetCellStyle(sheet, fmt.Sprintf("J%d", row), fmt.Sprintf("K%d", row), summaryStyle)

	return f, nil
}

func taxSummary(lines []service.TaxLineView) string {
	parts := make([]string, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, fmt.Sprintf("%s: %.2f", l.Name, l.CalculatedAmount))
	}
	return strings.Join(parts, "; ")
}

func yesNo(b bool) string {
	if b {
		return "Sí"
	}
	return "No"
}
