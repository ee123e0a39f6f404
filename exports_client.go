/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-10 09:30:41
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-28 14:28:19
 * @FilePath: \go-dvh\exports_client.go
 * @Description: Client 包的类型和函数导出
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package dvh

import (
	"github.com/kamalyes/go-dvh/client"
)

// ============================================================================
// Client 类型导出
// ============================================================================

type (
	DeviceAgent = client.DeviceAgent
)

// 设备代理默认参数导出
const (
	DefaultRegisterRetryInterval  = client.DefaultRegisterRetryInterval
	DefaultAgentHeartbeatInterval = client.DefaultAgentHeartbeatInterval
)

// ============================================================================
// Client 函数导出
// ============================================================================

var (
	NewDeviceAgent = client.NewDeviceAgent
)
