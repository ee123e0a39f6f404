/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 10:12:40
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-03-21 09:45:11
 * @FilePath: \go-dvh\models\enums.go
 * @Description: 枚举类型定义
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

// DeviceStatus 设备持久化状态
// 注意：status 字段只是注册表成员关系的最终一致投影，
// 指令可达性判断永远以注册表为准，不读取该字段
type DeviceStatus string

const (
	DeviceStatusOnline  DeviceStatus = "online"  // 在线
	DeviceStatusOffline DeviceStatus = "offline" // 离线
	DeviceStatusBlocked DeviceStatus = "blocked" // 已封禁
)

// String 实现Stringer接口
func (s DeviceStatus) String() string {
	return string(s)
}

// IsValid 检查设备状态是否有效
func (s DeviceStatus) IsValid() bool {
	switch s {
	case DeviceStatusOnline, DeviceStatusOffline, DeviceStatusBlocked:
		return true
	default:
		return false
	}
}

// LogEventType 设备日志事件类型
type LogEventType string

const (
	LogEventOnline    LogEventType = "online"    // 设备上线
	LogEventOffline   LogEventType = "offline"   // 设备离线
	LogEventRegister  LogEventType = "register"  // 设备注册
	LogEventBlocked   LogEventType = "blocked"   // 设备被封禁
	LogEventUnblocked LogEventType = "unblocked" // 设备解除封禁
)

// String 实现Stringer接口
func (t LogEventType) String() string {
	return string(t)
}

// DisconnectReason 断开连接原因
type DisconnectReason string

const (
	DisconnectReasonReadError      DisconnectReason = "read_error"      // 读取错误
	DisconnectReasonWriteError     DisconnectReason = "write_error"     // 写入错误
	DisconnectReasonTimeout        DisconnectReason = "timeout"         // 心跳超时被驱逐
	DisconnectReasonReplaced       DisconnectReason = "replaced"        // 被同ID新注册顶替
	DisconnectReasonClientRequest  DisconnectReason = "client_request"  // 客户端主动断开
	DisconnectReasonServerShutdown DisconnectReason = "server_shutdown" // 服务器关闭
	DisconnectReasonUnknown        DisconnectReason = "unknown"         // 未知原因
)

// String 实现Stringer接口
func (r DisconnectReason) String() string {
	return string(r)
}

// SessionState 会话状态机
//
// Connecting → Unregistered → Registered → Closed
// 注册失败停留在 Unregistered，允许客户端重试
type SessionState int32

const (
	SessionStateConnecting   SessionState = iota // 升级完成，CONNECTED未发送
	SessionStateUnregistered                     // 等待 DEVICE_REGISTER / ADMIN_REGISTER
	SessionStateRegistered                       // 注册成功，进入正常收发
	SessionStateClosed                           // 终态
)

// String 实现Stringer接口
func (s SessionState) String() string {
	switch s {
	case SessionStateConnecting:
		return "connecting"
	case SessionStateUnregistered:
		return "unregistered"
	case SessionStateRegistered:
		return "registered"
	case SessionStateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnectionStatus 设备代理侧连接状态
type ConnectionStatus int32

const (
	ConnectionStatusDisconnected ConnectionStatus = iota // 未连接
	ConnectionStatusConnecting                           // 连接中
	ConnectionStatusConnected                            // 已连接
	ConnectionStatusReconnecting                         // 重连中
	ConnectionStatusError                                // 连接异常
)

// String 实现Stringer接口
func (s ConnectionStatus) String() string {
	switch s {
	case ConnectionStatusDisconnected:
		return "disconnected"
	case ConnectionStatusConnecting:
		return "connecting"
	case ConnectionStatusConnected:
		return "connected"
	case ConnectionStatusReconnecting:
		return "reconnecting"
	case ConnectionStatusError:
		return "error"
	default:
		return "unknown"
	}
}

// IDGenerator ID生成器接口（兼容 go-toolbox idgen 短雪花生成器）
type IDGenerator interface {
	GenerateRequestID() string
}
