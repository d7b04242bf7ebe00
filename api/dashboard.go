package api

import (
	"sisgeagro/database"
	"sisgeagro/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler 看板统计处理器
type DashboardHandler struct{}

// NewDashboardHandler 创建看板处理器
func NewDashboardHandler() *DashboardHandler {
	return &DashboardHandler{}
}

// Summary 收支汇总
// @Summary 看板汇总
// @Description 按时间范围统计各收支类型总额、类别占比和月度序列。不传 from/to 则统计全部时间
// @Tags 统计
// @Produce json
// @Security BearerAuth
// @Param from query string false "开始日期 (YYYY-MM-DD)"
// @Param to query string false "结束日期 (YYYY-MM-DD)"
// @Success 200 {object} Response{data=service.Summary} "获取成功"
// @Failure 400 {object} Response "日期格式错误"
// @Router /api/v1/dashboard/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := service.NewDashboard(database.DB).Summary(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, summary)
}
