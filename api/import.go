package api

import (
	"io"
	"net/http"
	"strings"

	"sisgeagro/config"
	"sisgeagro/database"
	"sisgeagro/middleware"
	"sisgeagro/service"

	"github.com/gin-gonic/gin"
)

// ImportHandler CSV 批量导入处理器
type ImportHandler struct {
	cfg *config.Config
}

// NewImportHandler 创建导入处理器
func NewImportHandler(cfg *config.Config) *ImportHandler {
	return &ImportHandler{cfg: cfg}
}

// ImportJSONRequest 以 JSON 提交的已解析行，键为 CSV 表头
type ImportJSONRequest struct {
	Rows []map[string]string `json:"rows" binding:"required"`
}

// ImportResponse 导入汇总
type ImportResponse struct {
	Total    int                    `json:"total"`
	Imported int                    `json:"imported"`
	Failed   int                    `json:"failed"`
	Results  []service.ImportResult `json:"results"`
}

// Import 批量导入收支
// @Summary 批量导入收支
// @Description 支持 multipart 文件字段 file、text/csv 原始内容或 JSON rows。CSV 使用分号分隔并带表头，表头可用英文或西班牙文。逐行返回结果
// @Tags 收支
// @Accept multipart/form-data
// @Accept text/csv
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param file formData file false "CSV 文件"
// @Success 200 {object} Response{data=ImportResponse} "导入完成（可能部分失败）"
// @Failure 400 {object} Response "文件格式错误或行数超限"
// @Router /api/v1/movements/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	rows, err := h.readRows(c)
	if err != nil {
		Fail(c, err)
		return
	}
	if len(rows) == 0 {
		BadRequest(c, "el archivo no contiene filas")
		return
	}
	if limit := h.cfg.Import.MaxRows; limit > 0 && len(rows) > limit {
		Error(c, http.StatusBadRequest, "el archivo supera el máximo de filas permitido")
		return
	}

	importer := service.NewImporter(database.DB)
	results := importer.Import(c.Request.Context(), middleware.GetCurrentUserID(c), rows)

	resp := ImportResponse{Total: len(results), Results: results}
	for _, r := range results {
		if r.Success {
			resp.Imported++
		} else {
			resp.Failed++
		}
	}
	SuccessWithMessage(c, "importación finalizada", resp)
}

func (h *ImportHandler) readRows(c *gin.Context) ([]service.RawRow, error) {
	maxSize := h.cfg.Import.MaxFileSize
	contentType := c.ContentType()

	switch {
	case strings.HasPrefix(contentType, "multipart/"):
		file, err := c.FormFile("file")
		if err != nil {
			return nil, importError("falta el archivo CSV en el campo file")
		}
		if maxSize > 0 && file.Size > maxSize {
			return nil, importError("el archivo supera el tamaño máximo permitido")
		}
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return service.ParseCSV(f)

	case contentType == "application/json":
		var req ImportJSONRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, importError(SafeErrorMessage(err, "JSON inválido"))
		}
		rows := make([]service.RawRow, 0, len(req.Rows))
		for _, r := range req.Rows {
			row := make(service.RawRow, len(r))
			for k, v := range r {
				row[strings.ToLower(strings.TrimSpace(k))] = v
			}
			rows = append(rows, row)
		}
		return rows, nil

	default:
		var body io.Reader = c.Request.Body
		if maxSize > 0 {
			body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		}
		return service.ParseCSV(body)
	}
}

// importError 导入请求本身不合法
func importError(message string) error {
	return &service.Error{Kind: service.ErrValidation, Message: message}
}
