/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-06 14:22:51
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-27 10:18:06
 * @FilePath: \go-dvh\hub\monitor.go
 * @Description: Hub 心跳监控 - 周期扫描驱逐失联设备，保活Ping探测半开连接
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package hub

import (
	"time"

	"github.com/gorilla/websocket"
)

// checkDeviceTimeout 扫描设备注册表，驱逐超过心跳窗口未活跃的连接
//
// 扫描间隔和超时窗口独立配置：扫描是采样动作，
// 超时判定永远基于 lastSeen 与当前时间的差值
func (h *Hub) checkDeviceTimeout() {
	timeout := h.config.ClientTimeout
	now := time.Now()

	devices := h.GetDevicesCopy()
	evicted := 0

	for _, conn := range devices {
		lastSeen := h.deviceLastSeen(conn)
		elapsed := now.Sub(lastSeen)
		if elapsed <= timeout {
			continue
		}
		if h.evictDevice(conn, lastSeen, elapsed) {
			evicted++
		}
	}

	if evicted > 0 {
		h.logger.InfoKV("⏱️ 心跳扫描完成",
			"scanned", len(devices),
			"evicted", evicted,
			"timeout", timeout.String(),
		)
	}
}

// evictDevice 驱逐单个失联设备
// 身份匹配失败说明连接在扫描间隙已被正常收尾或顶替，直接跳过
func (h *Hub) evictDevice(conn *DeviceConn, lastSeen time.Time, elapsed time.Duration) bool {
	if !h.removeDevice(conn) {
		return false
	}

	h.logger.WarnKV("💔 设备心跳超时，已驱逐",
		"device_id", conn.DeviceID,
		"conn_id", conn.ConnID,
		"last_seen", lastSeen.Format(time.RFC3339),
		"elapsed", elapsed.String(),
	)

	h.persistDeviceOffline(conn, DisconnectReasonTimeout)
	h.PublishEvent(NewDeviceOfflineEvent(conn.DeviceID, conn.Name, conn.TenantID))

	if h.heartbeatTimeoutCallback != nil {
		h.heartbeatTimeoutCallback(conn.DeviceID, lastSeen)
	}
	h.invokeDeviceDisconnectCallback(conn, DisconnectReasonTimeout)
	return true
}

// sendKeepalive 向所有连接发送协议层Ping，探测半开TCP连接
//
// 保活只为触发对端TCP栈反馈，不代表应用层活跃，
// 收到的Pong不会刷新 lastSeen，心跳判定只认应用层帧
func (h *Hub) sendKeepalive() {
	deadline := time.Now().Add(5 * time.Second)

	for _, conn := range h.GetDevicesCopy() {
		if conn.IsClosed() {
			continue
		}
		if err := conn.Conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			h.logger.DebugKV("设备保活Ping发送失败",
				"device_id", conn.DeviceID,
				"error", err,
			)
		}
	}

	for _, conn := range h.GetObserverConns("") {
		if conn.IsClosed() {
			continue
		}
		if err := conn.Conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			h.logger.DebugKV("观察者保活Ping发送失败",
				"observer_id", conn.ObserverID,
				"error", err,
			)
		}
	}
}
