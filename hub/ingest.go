/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-05 10:44:02
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-27 09:31:18
 * @FilePath: \go-dvh\hub\ingest.go
 * @Description: Hub 入站帧处理 - 注册握手与设备上报落库
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package hub

import (
	"context"
	"time"

	"github.com/kamalyes/go-dvh/models"
	"github.com/kamalyes/go-dvh/repository"
	"github.com/kamalyes/go-toolbox/pkg/contextx"
	"github.com/kamalyes/go-toolbox/pkg/mathx"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// ============================================================================
// 注册握手
// ============================================================================

// handleDeviceRegister 处理设备注册帧
// 注册失败只回错误帧不断开连接，设备端按固定间隔重试
func (h *Hub) handleDeviceRegister(s *session, frame *InboundFrame) {
	if frame.DeviceID == "" {
		s.sendError("deviceId is required")
		return
	}

	ctx, cancel := context.WithTimeout(contextx.OrBackground(h.ctx), 5*time.Second)
	defer cancel()

	// 自定义注册校验钩子（token鉴权等）
	if h.verifier != nil {
		if err := h.verifier(ctx, frame); err != nil {
			h.logger.WarnKV("设备注册被拒绝",
				"device_id", frame.DeviceID,
				"error", err,
			)
			s.sendError(err.Error())
			return
		}
	}

	// 档案门禁：未登记设备拒绝注册，连接保持打开允许登记后重试
	device := &Device{
		ID:       frame.DeviceID,
		TenantID: frame.TenantID,
		Name:     frame.DeviceID,
	}
	if h.deviceRepo != nil {
		profile, err := h.deviceRepo.FindByID(ctx, frame.DeviceID)
		if err != nil {
			if IsDeviceNotFoundError(err) {
				h.logger.WarnKV("未登记设备尝试注册",
					"device_id", frame.DeviceID,
					"client_ip", s.clientIP,
				)
				s.sendError("device not registered")
				return
			}
			h.logger.ErrorKV("设备档案查询失败",
				"device_id", frame.DeviceID,
				"error", err,
			)
			s.sendError("device lookup failed")
			return
		}
		device = profile
	}

	conn := NewDeviceConn(h.idGenerator.GenerateRequestID(), device.ID, s.conn, h.config.MessageBufferSize).
		WithTenant(device.TenantID).
		WithName(device.Name).
		WithClientIP(s.clientIP).
		WithMetadataMap(s.meta).
		WithContext(h.ctx)

	h.putDevice(conn)
	s.device = conn
	s.state = models.SessionStateRegistered

	// 注册回执先于写泵启动直写，保证早于任何事件帧
	if err := s.writeDirect(models.NewRegisteredFrame(device.ID)); err != nil {
		h.logger.WarnKV("REGISTERED帧发送失败",
			"device_id", device.ID,
			"error", err,
		)
		s.conn.Close()
		return
	}
	go h.runDevicePump(conn)

	h.logger.InfoKV("📺 设备注册成功",
		"device_id", device.ID,
		"tenant_id", device.TenantID,
		"conn_id", conn.ConnID,
		"client_ip", conn.ClientIP,
		"online_devices", h.deviceConnCount.Load(),
	)

	h.persistDeviceOnline(conn)
	h.PublishEvent(NewDeviceOnlineEvent(device))

	// 封禁状态对账：封禁中的设备重连立即补发封禁指令
	if device.IsBlocked() {
		h.SendCommand(device.ID, models.NewBlockCommand(device.BlockMessage))
	}

	h.invokeDeviceConnectCallback(conn)
}

// handleObserverRegister 处理观察者（管理端）注册帧
func (h *Hub) handleObserverRegister(s *session, frame *InboundFrame) {
	if frame.UserID == "" {
		s.sendError("userId is required")
		return
	}

	if h.verifier != nil {
		ctx, cancel := context.WithTimeout(contextx.OrBackground(h.ctx), 5*time.Second)
		defer cancel()
		if err := h.verifier(ctx, frame); err != nil {
			h.logger.WarnKV("观察者注册被拒绝",
				"user_id", frame.UserID,
				"error", err,
			)
			s.sendError(err.Error())
			return
		}
	}

	conn := NewObserverConn(h.idGenerator.GenerateRequestID(), frame.UserID, s.conn, h.config.MessageBufferSize).
		WithTenant(frame.TenantID).
		WithClientIP(s.clientIP).
		WithContext(h.ctx)

	h.addObserver(conn)
	s.observer = conn
	s.state = models.SessionStateRegistered

	if err := s.writeDirectObserver(models.NewObserverRegisteredFrame(frame.UserID)); err != nil {
		h.logger.WarnKV("观察者REGISTERED帧发送失败",
			"user_id", frame.UserID,
			"error", err,
		)
		s.conn.Close()
		return
	}
	go h.runObserverPump(conn)
}

// persistDeviceOnline 异步落库设备上线投影
func (h *Hub) persistDeviceOnline(conn *DeviceConn) {
	if h.deviceRepo != nil {
		syncx.Go(contextx.OrBackground(h.ctx)).
			WithTimeout(3 * time.Second).
			OnError(func(err error) {
				h.logger.WarnKV("设备上线落库失败",
					"device_id", conn.DeviceID,
					"error", err,
				)
			}).
			ExecWithContext(func(ctx context.Context) error {
				if err := h.deviceRepo.SetStatus(ctx, conn.DeviceID, DeviceStatusOnline); err != nil {
					return err
				}
				if err := h.deviceRepo.TouchLastSeen(ctx, conn.DeviceID, time.Now()); err != nil {
					return err
				}
				return h.deviceRepo.AppendLog(ctx, conn.DeviceID, models.LogEventOnline, "online")
			})
	}

	if h.onlineRepo != nil {
		syncx.Go(contextx.OrBackground(h.ctx)).
			WithTimeout(3 * time.Second).
			OnError(func(err error) {
				h.logger.WarnKV("写入Redis在线状态失败",
					"device_id", conn.DeviceID,
					"error", err,
				)
			}).
			ExecWithContext(func(ctx context.Context) error {
				return h.onlineRepo.SetOnline(ctx, &repository.OnlineDeviceInfo{
					DeviceID:      conn.DeviceID,
					TenantID:      conn.TenantID,
					Name:          conn.Name,
					NodeID:        h.nodeID,
					ClientIP:      conn.ClientIP,
					ConnectedAt:   conn.ConnectedAt,
					LastHeartbeat: time.Now(),
				})
			})
	}
}

// invokeDeviceConnectCallback 异步触发设备上线回调
func (h *Hub) invokeDeviceConnectCallback(conn *DeviceConn) {
	if h.deviceConnectCallback == nil {
		return
	}
	syncx.Go().
		OnPanic(func(r any) {
			h.logger.ErrorKV("设备上线回调panic", "panic", r, "device_id", conn.DeviceID)
		}).
		OnError(func(err error) {
			h.logger.ErrorKV("设备上线回调执行失败",
				"device_id", conn.DeviceID,
				"error", err,
			)
		}).
		ExecWithContext(func(execCtx context.Context) error {
			return h.deviceConnectCallback(execCtx, conn)
		})
}

// ============================================================================
// 已注册设备入站帧
// ============================================================================

// handleDeviceFrame 路由已注册设备的入站帧
func (h *Hub) handleDeviceFrame(s *session, frame *InboundFrame) {
	switch frame.Type {
	case models.FrameHeartbeat:
		h.handleHeartbeat(s.device)
	case models.FramePlaybackLog:
		h.handlePlaybackLog(s.device, frame)
	case models.FrameDeviceStatus:
		h.handleDeviceStatus(s.device, frame)
	case models.FrameScreenshotResult:
		h.handleScreenshotResult(s.device, frame)
	case models.FrameDeviceRegister:
		// 重复注册视为回执丢失重试，幂等回执
		if data, err := models.NewRegisteredFrame(s.device.DeviceID).Encode(); err == nil {
			s.device.TrySend(data)
		}
	default:
		// 未知帧类型丢弃，不影响连接
		h.logger.WarnKV("收到未知类型帧，已丢弃",
			"device_id", s.device.DeviceID,
			"kind", frame.Type.String(),
		)
	}
}

// handleHeartbeat 处理心跳帧（活跃时间已在读循环刷新）
func (h *Hub) handleHeartbeat(conn *DeviceConn) {
	h.logger.DebugKV("💓 收到设备心跳", "device_id", conn.DeviceID)

	if data, err := models.NewHeartbeatAckFrame(conn.DeviceID).Encode(); err == nil {
		conn.TrySend(data)
	}

	if h.onlineRepo != nil {
		syncx.Go(contextx.OrBackground(h.ctx)).
			WithTimeout(3 * time.Second).
			OnError(func(err error) {
				h.logger.DebugKV("刷新Redis心跳失败",
					"device_id", conn.DeviceID,
					"error", err,
				)
			}).
			ExecWithContext(func(ctx context.Context) error {
				return h.onlineRepo.UpdateHeartbeat(ctx, conn.DeviceID)
			})
	}
}

// handlePlaybackLog 处理播放完成日志帧
func (h *Hub) handlePlaybackLog(conn *DeviceConn, frame *InboundFrame) {
	if frame.ContentID == "" {
		h.logger.DebugKV("播放日志缺少contentId，丢弃", "device_id", conn.DeviceID)
		return
	}

	if h.deviceRepo != nil {
		record := &models.PlaybackLog{
			DeviceID:   conn.DeviceID,
			TenantID:   conn.TenantID,
			ContentID:  frame.ContentID,
			CampaignID: frame.CampaignID,
			Duration:   frame.Duration,
			StartTime:  frame.StartTime,
			EndTime:    frame.EndTime,
		}
		syncx.Go(contextx.OrBackground(h.ctx)).
			WithTimeout(3 * time.Second).
			OnError(func(err error) {
				h.logger.WarnKV("播放日志落库失败",
					"device_id", conn.DeviceID,
					"content_id", frame.ContentID,
					"error", err,
				)
			}).
			ExecWithContext(func(ctx context.Context) error {
				return h.deviceRepo.InsertPlayback(ctx, record)
			})
	}

	h.PublishEvent(NewPlaybackUpdateEvent(conn.DeviceID, conn.TenantID, frame.ContentID, frame.CampaignID, frame.Duration))
}

// handleDeviceStatus 处理设备硬件状态帧
func (h *Hub) handleDeviceStatus(conn *DeviceConn, frame *InboundFrame) {
	status := mathx.IfEmpty(frame.Status, DeviceStatusOnline.String())

	if h.deviceRepo != nil && frame.Stats != nil {
		record := &models.DeviceStatsRecord{
			DeviceID:    conn.DeviceID,
			CPU:         frame.Stats.CPU,
			Memory:      frame.Stats.Memory,
			Storage:     frame.Stats.Storage,
			Temperature: frame.Stats.Temperature,
			Status:      status,
		}
		syncx.Go(contextx.OrBackground(h.ctx)).
			WithTimeout(3 * time.Second).
			OnError(func(err error) {
				h.logger.WarnKV("设备指标落库失败",
					"device_id", conn.DeviceID,
					"error", err,
				)
			}).
			ExecWithContext(func(ctx context.Context) error {
				return h.deviceRepo.UpsertStats(ctx, record)
			})
	}

	h.PublishEvent(NewDeviceStatusUpdateEvent(conn.DeviceID, conn.Name, conn.TenantID, status, frame.Stats))
}

// handleScreenshotResult 处理截图回传帧
func (h *Hub) handleScreenshotResult(conn *DeviceConn, frame *InboundFrame) {
	if frame.Screenshot == "" {
		h.logger.DebugKV("截图回传为空，丢弃", "device_id", conn.DeviceID)
		return
	}

	if h.deviceRepo != nil {
		record := &models.ScreenshotRecord{
			DeviceID:   conn.DeviceID,
			Data:       frame.Screenshot,
			CapturedAt: frame.Timestamp,
		}
		syncx.Go(contextx.OrBackground(h.ctx)).
			WithTimeout(3 * time.Second).
			OnError(func(err error) {
				h.logger.WarnKV("截图落库失败",
					"device_id", conn.DeviceID,
					"error", err,
				)
			}).
			ExecWithContext(func(ctx context.Context) error {
				return h.deviceRepo.InsertScreenshot(ctx, record)
			})
	}

	h.PublishEvent(NewScreenshotReadyEvent(conn.DeviceID, conn.Name, conn.TenantID))
}
