package service

import (
	"context"
	"fmt"

	"sisgeagro/logger"
	"sisgeagro/models"

	"gorm.io/gorm"
)

// Notifier 大额收支提醒：邮件 + 站内通知，失败只记日志
type Notifier struct {
	db     *gorm.DB
	mailer Mailer
}

// NewNotifier 创建提醒器，mailer 为空时只写站内通知
func NewNotifier(db *gorm.DB, mailer Mailer) *Notifier {
	return &Notifier{db: db, mailer: mailer}
}

// NotifyMovement 通知所有阈值不高于金额且开启邮件提醒的用户
func (n *Notifier) NotifyMovement(ctx context.Context, movement *models.Movement, bill *models.Bill, entity *models.Entity) {
	log := logger.FromContext(ctx)

	var recipients []models.User
	err := n.db.WithContext(ctx).
		Where("email_notifications = ? AND expense_threshold <= ?", true, bill.Amount).
		Find(&recipients).Error
	if err != nil {
		log.Error().Err(err).Uint("movement_id", movement.ID).Msg("no se pudieron obtener destinatarios")
		return
	}

	for _, u := range recipients {
		alert := MovementAlert{
			Username:    u.Username,
			Description: movement.Description,
			Type:        movement.Type,
			Amount:      bill.Amount,
			Threshold:   u.ExpenseThreshold,
			Entity:      entity.Name,
			Date:        bill.Date.Format("2006-01-02"),
		}

		if n.mailer != nil && u.Email != "" {
			if err := n.mailer.Send(u.Email, alert.subject(), alert.text(), alert.html()); err != nil {
				log.Warn().Err(err).Uint("user_id", u.ID).Uint("movement_id", movement.ID).Msg("fallo el envío de correo")
			}
		}

		notification := models.Notification{
			UserID:     u.ID,
			MovementID: movement.ID,
			Title:      fmt.Sprintf("Nuevo %s", movement.Type),
			Message:    fmt.Sprintf("%s por $%.2f con %s", movement.Description, bill.Amount, entity.Name),
		}
		if err := n.db.WithContext(ctx).Create(&notification).Error; err != nil {
			log.Warn().Err(err).Uint("user_id", u.ID).Uint("movement_id", movement.ID).Msg("fallo la notificación interna")
		}
	}
}

// ListForUser 当前用户的站内通知
func (n *Notifier) ListForUser(ctx context.Context, userID uint, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var list []models.Notification
	err := n.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&list).Error
	return list, err
}
