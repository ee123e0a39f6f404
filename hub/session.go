/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-05 09:18:40
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-26 16:02:33
 * @FilePath: \go-dvh\hub\session.go
 * @Description: Hub 会话生命周期 - Connecting → Unregistered → Registered → Closed
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package hub

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kamalyes/go-dvh/models"
	"github.com/kamalyes/go-toolbox/pkg/contextx"
	"github.com/kamalyes/go-toolbox/pkg/mathx"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// session 单条WebSocket连接的会话状态
// 读循环独占该结构，注册成功后写出交给写泵
type session struct {
	hub      *Hub
	conn     *websocket.Conn
	clientIP string
	meta     map[string]interface{}
	state    SessionState
	device   *DeviceConn
	observer *ObserverConn
}

// run 会话主流程：CONNECTED确认 → 读循环 → 收尾
func (s *session) run() {
	h := s.hub
	h.wg.Add(1)
	defer h.wg.Done()

	// 连接建立确认帧，注册前写泵未启动，直写安全
	if err := s.writeDirect(models.NewConnectedFrame()); err != nil {
		h.logger.WarnKV("CONNECTED帧发送失败",
			"remote_addr", s.conn.RemoteAddr().String(),
			"error", err,
		)
		s.conn.Close()
		return
	}
	s.state = models.SessionStateUnregistered

	s.readLoop()
}

// readLoop 读循环：逐帧路由，单帧故障不拖垮连接
func (s *session) readLoop() {
	h := s.hub
	defer s.closed(models.DisconnectReasonReadError)

	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			h.logger.InfoKV("连接读取结束",
				"remote_addr", s.conn.RemoteAddr().String(),
				"error", err,
			)
			return
		}

		// 任意入站帧都刷新设备活跃时间
		if s.device != nil {
			h.TouchDevice(s.device.DeviceID)
		}

		switch messageType {
		case websocket.TextMessage:
			s.route(data)
		case websocket.CloseMessage:
			return
		case websocket.PingMessage:
			_ = s.conn.WriteMessage(websocket.PongMessage, nil)
		}
	}
}

// route 按会话状态和帧类型路由入站帧
func (s *session) route(data []byte) {
	h := s.hub
	defer syncx.RecoverWithHandler(func(r interface{}) {
		h.logger.ErrorKV("帧处理panic",
			"remote_addr", s.conn.RemoteAddr().String(),
			"panic", r,
		)
	})

	frame, err := models.DecodeInboundFrame(data)
	if err != nil {
		// 畸形帧只回错误帧，连接保持打开
		h.logger.WarnKV("收到无法解析的帧",
			"remote_addr", s.conn.RemoteAddr().String(),
			"size", len(data),
		)
		s.sendError("invalid frame payload")
		return
	}

	switch s.state {
	case models.SessionStateUnregistered:
		switch frame.Type {
		case models.FrameDeviceRegister:
			h.handleDeviceRegister(s, frame)
		case models.FrameAdminRegister:
			h.handleObserverRegister(s, frame)
		default:
			s.sendError("registration required")
		}
	case models.SessionStateRegistered:
		if s.device != nil {
			h.handleDeviceFrame(s, frame)
			return
		}
		// 观察者是只读端，入站帧忽略
		h.logger.DebugKV("忽略观察者入站帧",
			"observer_id", s.observer.ObserverID,
			"kind", frame.Type.String(),
		)
	}
}

// closed 会话收尾（读循环退出后的唯一出口）
func (s *session) closed(reason DisconnectReason) {
	s.state = models.SessionStateClosed

	switch {
	case s.device != nil:
		s.hub.finalizeDeviceDisconnect(s.device, reason)
	case s.observer != nil:
		s.hub.removeObserver(s.observer)
	default:
		// 未注册连接直接关闭，不产生任何事件
		s.conn.Close()
	}
}

// writeDirect 直写设备帧（仅注册完成前使用，写泵启动后走发送通道）
func (s *session) writeDirect(frame *models.DeviceFrame) error {
	data, err := frame.Encode()
	if err != nil {
		return err
	}
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// writeDirectObserver 直写观察者帧（仅注册完成前使用）
func (s *session) writeDirectObserver(frame *models.ObserverFrame) error {
	data, err := frame.Encode()
	if err != nil {
		return err
	}
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// sendError 下发错误帧，已注册连接必须走发送通道避免并发写socket
func (s *session) sendError(message string) {
	frame := models.NewErrorFrame(message)

	if s.device != nil {
		if data, err := frame.Encode(); err == nil {
			s.device.TrySend(data)
		}
		return
	}
	if s.observer != nil {
		if data, err := frame.Encode(); err == nil {
			s.observer.TrySend(data)
		}
		return
	}
	if err := s.writeDirect(frame); err != nil {
		s.hub.logger.DebugKV("错误帧发送失败",
			"remote_addr", s.conn.RemoteAddr().String(),
			"error", err,
		)
	}
}

// ============================================================================
// 写泵
// ============================================================================

// runDevicePump 设备写泵 - 注册后独占socket数据帧写出
func (h *Hub) runDevicePump(conn *DeviceConn) {
	h.wg.Add(1)
	defer h.wg.Done()

	for {
		select {
		case message, ok := <-conn.SendChan:
			if !ok {
				h.logger.DebugKV("设备发送通道关闭", "device_id", conn.DeviceID)
				return
			}
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.WarnKV("设备消息写入失败",
					"device_id", conn.DeviceID,
					"error", err,
				)
				// 关闭socket让读循环退出并走统一收尾
				conn.Conn.Close()
				return
			}
		case <-h.ctx.Done():
			return
		}
	}
}

// runObserverPump 观察者写泵
func (h *Hub) runObserverPump(conn *ObserverConn) {
	h.wg.Add(1)
	defer h.wg.Done()

	for {
		select {
		case message, ok := <-conn.SendChan:
			if !ok {
				h.logger.DebugKV("观察者发送通道关闭", "observer_id", conn.ObserverID)
				return
			}
			conn.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.logger.WarnKV("观察者消息写入失败",
					"observer_id", conn.ObserverID,
					"conn_id", conn.ConnID,
					"error", err,
				)
				conn.Conn.Close()
				return
			}
		case <-h.ctx.Done():
			return
		}
	}
}

// ============================================================================
// 设备断开收尾
// ============================================================================

// finalizeDeviceDisconnect 设备连接收尾
// 身份匹配失败说明该连接已被顶替或驱逐，离线收尾由对应路径负责
func (h *Hub) finalizeDeviceDisconnect(conn *DeviceConn, reason DisconnectReason) {
	if !h.removeDevice(conn) {
		return
	}

	h.logger.InfoKV("设备断开连接",
		"device_id", conn.DeviceID,
		"conn_id", conn.ConnID,
		"reason", reason.String(),
		"online_devices", h.deviceConnCount.Load(),
	)

	h.persistDeviceOffline(conn, reason)
	h.PublishEvent(NewDeviceOfflineEvent(conn.DeviceID, conn.Name, conn.TenantID))
	h.invokeDeviceDisconnectCallback(conn, reason)
}

// persistDeviceOffline 异步落库设备离线投影（尽力而为，失败只记日志）
func (h *Hub) persistDeviceOffline(conn *DeviceConn, reason DisconnectReason) {
	logMessage := mathx.IF(reason == DisconnectReasonTimeout,
		"offline (heartbeat timeout)", "offline (disconnected)")

	if h.deviceRepo != nil {
		syncx.Go(contextx.OrBackground(h.ctx)).
			WithTimeout(3 * time.Second).
			OnError(func(err error) {
				h.logger.WarnKV("设备离线落库失败",
					"device_id", conn.DeviceID,
					"error", err,
				)
			}).
			ExecWithContext(func(ctx context.Context) error {
				if err := h.deviceRepo.SetStatus(ctx, conn.DeviceID, DeviceStatusOffline); err != nil {
					return err
				}
				if err := h.deviceRepo.TouchLastSeen(ctx, conn.DeviceID, time.Now()); err != nil {
					return err
				}
				return h.deviceRepo.AppendLog(ctx, conn.DeviceID, models.LogEventOffline, logMessage)
			})
	}

	if h.onlineRepo != nil {
		syncx.Go(contextx.OrBackground(h.ctx)).
			WithTimeout(3 * time.Second).
			OnError(func(err error) {
				h.logger.WarnKV("移除Redis在线状态失败",
					"device_id", conn.DeviceID,
					"error", err,
				)
			}).
			ExecWithContext(func(ctx context.Context) error {
				return h.onlineRepo.SetOffline(ctx, conn.DeviceID)
			})
	}
}

// invokeDeviceDisconnectCallback 异步触发设备断开回调
func (h *Hub) invokeDeviceDisconnectCallback(conn *DeviceConn, reason DisconnectReason) {
	if h.deviceDisconnectCallback == nil {
		return
	}
	syncx.Go().
		OnPanic(func(r any) {
			h.logger.ErrorKV("设备断开回调panic", "panic", r, "device_id", conn.DeviceID)
		}).
		OnError(func(err error) {
			h.logger.ErrorKV("设备断开回调执行失败",
				"device_id", conn.DeviceID,
				"error", err,
			)
		}).
		ExecWithContext(func(execCtx context.Context) error {
			return h.deviceDisconnectCallback(execCtx, conn, reason)
		})
}
