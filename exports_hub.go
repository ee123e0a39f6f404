/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-10 09:05:12
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-28 14:20:36
 * @FilePath: \go-dvh\exports_hub.go
 * @Description: Hub 包的类型和函数导出
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package dvh

import (
	"github.com/kamalyes/go-dvh/hub"
)

// ============================================================================
// Hub 类型导出
// ============================================================================

type (
	Hub                      = hub.Hub
	HubHealthInfo            = hub.HubHealthInfo
	RegisterVerifier         = hub.RegisterVerifier
	DeviceConnectCallback    = hub.DeviceConnectCallback
	DeviceDisconnectCallback = hub.DeviceDisconnectCallback
	HeartbeatTimeoutCallback = hub.HeartbeatTimeoutCallback
)

// 默认配置导出
const (
	DefaultScanInterval      = hub.DefaultScanInterval
	DefaultStaleTimeout      = hub.DefaultStaleTimeout
	DefaultKeepaliveInterval = hub.DefaultKeepaliveInterval
	DefaultEventChannel      = hub.DefaultEventChannel
)

// ============================================================================
// Hub 函数导出
// ============================================================================

var (
	NewHub = hub.NewHub
)

// ============================================================================
// Hub 方法速览 - 这些方法通过 Hub 实例调用
// ============================================================================

// 例如：h := dvh.NewHub(config); h.HandleRealtimeUpgrade(w, r)

// HTTP WebSocket 升级方法：
// - ConfigureUpgrader() *websocket.Upgrader: 配置 WebSocket 升级器
// - HandleRealtimeUpgrade(w http.ResponseWriter, r *http.Request): 处理设备/观察者升级请求

// 连接注册表方法：
// - GetDevice(deviceID string) (*DeviceConn, bool): 获取设备连接
// - HasDevice(deviceID string) bool: 检查设备是否在线
// - DeviceCount() int64 / ObserverCount() int: 在线数量
// - GetOnlineDeviceIDs() []string: 所有在线设备ID

// 指令派发方法：
// - SendCommand(deviceID string, cmd Command) bool: 点对点至多一次派发
// - BlockDevice(deviceID, message string) bool / UnblockDevice(deviceID string) bool
// - RefreshContent(deviceID string) bool

// 事件广播方法：
// - PublishEvent(event *Event) int: 租户域内观察者扇出
// - SubscribeEvents(handler): 订阅跨进程事件转发频道

// 生命周期方法：
// - Run() / WaitForStart() / WaitForStartWithTimeout(timeout)
// - Shutdown() / SafeShutdown()
// - GetHubHealth() *HubHealthInfo: 健康状态快照
