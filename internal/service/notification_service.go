package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"loyalty/internal/domain"
	"loyalty/internal/engine"
	"loyalty/internal/metrics"
	"loyalty/internal/models"
	"loyalty/internal/repository"
	"loyalty/internal/ws"
	"loyalty/pkg/mailer"
)

// Notifier delivers notices collected by a committed transaction.
type Notifier interface {
	Dispatch(ctx context.Context, notices []engine.Notice)
}

type NotificationService struct {
	repo    *repository.NotificationRepository
	members *repository.MemberRepository
	fcm     *FCMService
	hub     *ws.Hub
	mail    mailer.Sender
	log     *slog.Logger
}

// NewNotificationService wires the delivery channels. fcm, hub and mail may be nil.
func NewNotificationService(store *repository.Store, fcm *FCMService, hub *ws.Hub, mail mailer.Sender, log *slog.Logger) *NotificationService {
	return &NotificationService{
		repo:    store.Notifications,
		members: store.Members,
		fcm:     fcm,
		hub:     hub,
		mail:    mail,
		log:     log,
	}
}

// Notify stores the notification, then fans it out to live sockets, push and email.
// Only the store write can fail the call.
func (s *NotificationService) Notify(ctx context.Context, memberID uint, notifType, title, body string, data map[string]any) error {
	var dataJSON string
	if data != nil {
		b, _ := json.Marshal(data)
		dataJSON = string(b)
	}
	n := &models.Notification{
		MemberID: memberID,
		Type:     notifType,
		Title:    title,
		Body:     body,
		Data:     dataJSON,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues("store", "error").Inc()
		return err
	}
	metrics.NotificationsTotal.WithLabelValues("store", "ok").Inc()

	if s.hub != nil && s.hub.BroadcastToMember(memberID, map[string]any{"type": "notification", "notification": n}) > 0 {
		metrics.NotificationsTotal.WithLabelValues("ws", "ok").Inc()
	}
	s.sendExternal(ctx, memberID, notifType, title, body, data)
	return nil
}

func (s *NotificationService) sendExternal(ctx context.Context, memberID uint, notifType, title, body string, data map[string]any) {
	if s.fcm == nil && (s.mail == nil || notifType != domain.NotifyLevelUnlock) {
		return
	}
	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		return
	}
	if s.fcm != nil && m.FCMToken != "" {
		status := "ok"
		if err := s.fcm.SendToMember(ctx, m.FCMToken, notifType, title, body, data); err != nil {
			status = "error"
		}
		metrics.NotificationsTotal.WithLabelValues("push", status).Inc()
	}
	if s.mail != nil && notifType == domain.NotifyLevelUnlock && m.Email != "" {
		status := "ok"
		if err := s.mail.Send(m.Email, title, fmt.Sprintf("Hi %s,\n\n%s\n", m.Name, body)); err != nil {
			s.log.Warn("notify: email failed", "member_id", memberID, "error", err)
			status = "error"
		}
		metrics.NotificationsTotal.WithLabelValues("email", status).Inc()
	}
}

// Dispatch sends every notice. Failures are logged and never returned.
func (s *NotificationService) Dispatch(ctx context.Context, notices []engine.Notice) {
	for _, n := range notices {
		if err := s.Notify(ctx, n.MemberID, n.Type, n.Title, n.Body, n.Data); err != nil {
			s.log.Warn("notify: dropped notice", "member_id", n.MemberID, "type", n.Type, "error", err)
		}
	}
}
