/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-06 16:30:44
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-27 14:12:09
 * @FilePath: \go-dvh\hub\http_upgrade.go
 * @Description: HTTP WebSocket 升级处理
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package hub

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/kamalyes/go-dvh/models"
	"github.com/kamalyes/go-toolbox/pkg/metadata"
)

// ============================================================================
// WebSocket 升级器配置
// ============================================================================

// ConfigureUpgrader 配置 WebSocket 升级器
// 根据 Hub 配置创建升级器，支持自定义缓冲区大小和 Origin 检查
func (h *Hub) ConfigureUpgrader() *websocket.Upgrader {
	upgrader := &websocket.Upgrader{
		ReadBufferSize:  h.config.MessageBufferSize,
		WriteBufferSize: h.config.MessageBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true // 默认允许所有来源
		},
	}

	// 自定义 Origin 检查
	if len(h.config.WebSocketOrigins) > 0 {
		upgrader.CheckOrigin = h.createOriginChecker()
	}

	return upgrader
}

// createOriginChecker 创建 Origin 检查器
// 根据配置的允许来源列表检查请求的 Origin
func (h *Hub) createOriginChecker() func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		for _, allowedOrigin := range h.config.WebSocketOrigins {
			if allowedOrigin == "*" || allowedOrigin == origin {
				return true
			}
		}
		return false
	}
}

// ============================================================================
// HTTP WebSocket 升级处理
// ============================================================================

// HandleRealtimeUpgrade 处理设备/观察者的 WebSocket 升级请求
// 升级成功后会话进入状态机：CONNECTED下发 → 等待注册帧 → 正常收发
//
// 设备和观察者共用同一个端点，身份在注册帧中声明
func (h *Hub) HandleRealtimeUpgrade(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()

	// 记录升级请求开始
	h.logger.InfoContextKV(ctx, "[Realtime] 升级请求",
		"method", r.Method,
		"path", r.URL.Path,
		"query", r.URL.RawQuery,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.Header.Get("User-Agent"),
		"origin", r.Header.Get("Origin"),
		"sec_websocket_key", r.Header.Get("Sec-WebSocket-Key"),
		"sec_websocket_version", r.Header.Get("Sec-WebSocket-Version"),
	)

	// 配置并升级 WebSocket 连接
	upgrader := h.ConfigureUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WithError(err).ErrorContextKV(ctx, "[Realtime] 升级失败",
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
			"upgrade_failed", true,
		)
		return
	}

	h.logger.InfoContextKV(ctx, "[Realtime] 升级成功",
		"status_code", 101,
		"remote_addr", conn.RemoteAddr().String(),
		"local_addr", conn.LocalAddr().String(),
		"duration_ms", time.Since(start).Milliseconds(),
		"upgrade_success", true,
	)

	h.startSession(r, conn)
}

// startSession 从升级完成的连接创建会话并启动读循环
func (h *Hub) startSession(r *http.Request, conn *websocket.Conn) {
	// 使用 metadata 提取所有请求元数据
	requestMeta := metadata.ExtractRequestMetadata(r)

	s := &session{
		hub:      h,
		conn:     conn,
		clientIP: requestMeta.ClientIP,
		meta:     requestMeta.ToMap(),
		state:    models.SessionStateConnecting,
	}
	go s.run()
}
