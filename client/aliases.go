/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-08 09:12:30
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-03-28 16:44:15
 * @FilePath: \go-dvh\client\aliases.go
 * @Description: Client 类型别名 - 为 models 包中的类型创建别名，便于在设备代理层使用
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package client

import (
	"github.com/kamalyes/go-dvh/models"
)

// ============================================================================
// 类型别名 - 从 models 包导入
// ============================================================================

type (
	ConnectionStatus = models.ConnectionStatus
	DeviceFrame      = models.DeviceFrame
	InboundFrame     = models.InboundFrame
	DeviceStats      = models.DeviceStats
	FrameKind        = models.FrameKind
)

// 常量别名
const (
	ConnectionStatusConnecting   = models.ConnectionStatusConnecting
	ConnectionStatusConnected    = models.ConnectionStatusConnected
	ConnectionStatusDisconnected = models.ConnectionStatusDisconnected
	ConnectionStatusReconnecting = models.ConnectionStatusReconnecting
	ConnectionStatusError        = models.ConnectionStatusError
)

// 错误别名
var (
	ErrConnectionClosed  = models.ErrConnClosed
	ErrMessageBufferFull = models.ErrSendChannelFull
)
