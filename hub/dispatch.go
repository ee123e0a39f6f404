/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-06 09:27:14
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-25 17:09:43
 * @FilePath: \go-dvh\hub\dispatch.go
 * @Description: Hub 指令派发 - 点对点至多一次投递
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package hub

import (
	"context"
	"time"

	"github.com/kamalyes/go-dvh/models"
	"github.com/kamalyes/go-toolbox/pkg/contextx"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// SendCommand 向指定设备派发指令
//
// 至多一次语义：设备不在线或发送通道拥塞直接返回false，
// 不排队不重试，补偿动作（如封禁对账）由调用方自己的触发点保证
func (h *Hub) SendCommand(deviceID string, cmd Command) bool {
	conn, exists := h.GetDevice(deviceID)
	if !exists {
		h.logger.DebugKV("指令派发失败：设备不在线",
			"device_id", deviceID,
			"command", cmd.Type.String(),
		)
		return false
	}

	frame := cmd.ToFrame(deviceID)
	if frame == nil {
		h.logger.ErrorKV("未知指令类型",
			"device_id", deviceID,
			"command", cmd.Type.String(),
		)
		return false
	}

	data, err := frame.Encode()
	if err != nil {
		h.logger.ErrorKV("指令帧序列化失败",
			"device_id", deviceID,
			"command", cmd.Type.String(),
			"error", err,
		)
		return false
	}

	if !conn.TrySend(data) {
		h.logger.WarnKV("指令派发失败：发送通道拥塞或连接已关闭",
			"device_id", deviceID,
			"command", cmd.Type.String(),
		)
		return false
	}

	h.commandsSent.Add(1)
	h.logger.InfoKV("📤 指令已派发",
		"device_id", deviceID,
		"command", cmd.Type.String(),
	)
	return true
}

// BlockDevice 派发封禁指令并落库封禁状态
// 返回指令是否送达（设备离线时状态照常落库，重连时由对账补发）
func (h *Hub) BlockDevice(deviceID, message string) bool {
	h.persistBlockState(deviceID, DeviceStatusBlocked, message, models.LogEventBlocked)
	return h.SendCommand(deviceID, NewBlockCommand(message))
}

// UnblockDevice 派发解封指令并落库解封状态
func (h *Hub) UnblockDevice(deviceID string) bool {
	// 解封后按注册表在线与否回写真实状态
	status := DeviceStatusOffline
	if h.HasDevice(deviceID) {
		status = DeviceStatusOnline
	}
	h.persistBlockState(deviceID, status, "", models.LogEventUnblocked)
	return h.SendCommand(deviceID, NewUnblockCommand())
}

// RefreshContent 派发内容刷新指令
func (h *Hub) RefreshContent(deviceID string) bool {
	return h.SendCommand(deviceID, NewRefreshContentCommand())
}

// persistBlockState 异步落库封禁/解封状态（尽力而为，失败只记日志）
func (h *Hub) persistBlockState(deviceID string, status DeviceStatus, message string, event LogEventType) {
	if h.deviceRepo == nil {
		return
	}
	syncx.Go(contextx.OrBackground(h.ctx)).
		WithTimeout(3 * time.Second).
		OnError(func(err error) {
			h.logger.WarnKV("封禁状态落库失败",
				"device_id", deviceID,
				"status", status.String(),
				"error", err,
			)
		}).
		ExecWithContext(func(ctx context.Context) error {
			if err := h.deviceRepo.UpdateBlockState(ctx, deviceID, status, message); err != nil {
				return err
			}
			return h.deviceRepo.AppendLog(ctx, deviceID, event, event.String())
		})
}
