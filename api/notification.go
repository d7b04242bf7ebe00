package api

import (
	"strconv"

	"sisgeagro/database"
	"sisgeagro/middleware"
	"sisgeagro/service"

	"github.com/gin-gonic/gin"
)

// NotificationHandler 站内通知处理器
type NotificationHandler struct{}

// NewNotificationHandler 创建站内通知处理器
func NewNotificationHandler() *NotificationHandler {
	return &NotificationHandler{}
}

// List 当前用户的站内通知
// @Summary 站内通知
// @Tags 通知
// @Produce json
// @Security BearerAuth
// @Param limit query int false "数量，默认 50，最多 100"
// @Success 200 {object} Response{data=[]models.Notification} "获取成功"
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	n := service.NewNotifier(database.DB, nil)
	list, err := n.ListForUser(c.Request.Context(), middleware.GetCurrentUserID(c), limit)
	if err != nil {
		Fail(c, err)
		return
	}
	Success(c, list)
}
