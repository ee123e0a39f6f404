/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 11:02:30
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-08 16:40:19
 * @FilePath: \go-dvh\models\frame.go
 * @Description: 线上帧协议定义（JSON文本帧，type字段路由）
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

import (
	"encoding/json"
	"time"
)

// FrameKind 帧类型
type FrameKind string

// 设备入站帧类型（设备 → 服务端）
const (
	FrameDeviceRegister   FrameKind = "DEVICE_REGISTER"   // 设备注册
	FrameHeartbeat        FrameKind = "HEARTBEAT"         // 心跳
	FramePlaybackLog      FrameKind = "PLAYBACK_LOG"      // 播放完成日志
	FrameDeviceStatus     FrameKind = "DEVICE_STATUS"     // 硬件指标快照
	FrameScreenshotResult FrameKind = "SCREENSHOT_RESULT" // 截图结果
)

// 观察者入站帧类型（管理端 → 服务端）
const (
	FrameAdminRegister FrameKind = "ADMIN_REGISTER" // 观察者注册
)

// 设备出站帧类型（服务端 → 设备）
const (
	FrameConnected     FrameKind = "CONNECTED"      // 连接建立确认
	FrameRegistered    FrameKind = "REGISTERED"     // 注册成功确认
	FrameError         FrameKind = "ERROR"          // 错误通知
	FrameHeartbeatAck  FrameKind = "HEARTBEAT_ACK"  // 心跳确认
	FrameContentUpdate FrameKind = "CONTENT_UPDATE" // 内容刷新指令
	FrameBlockDevice   FrameKind = "BLOCK_DEVICE"   // 封禁指令
	FrameUnblockDevice FrameKind = "UNBLOCK_DEVICE" // 解封指令
)

// 观察者出站帧类型（服务端 → 管理端）
const (
	FrameDeviceOnline       FrameKind = "DEVICE_ONLINE"        // 设备上线
	FrameDeviceOffline      FrameKind = "DEVICE_OFFLINE"       // 设备离线
	FrameDeviceRegistered   FrameKind = "DEVICE_REGISTERED"    // 新设备完成登记
	FrameDeviceStatusUpdate FrameKind = "DEVICE_STATUS_UPDATE" // 设备指标更新
	FramePlaybackUpdate     FrameKind = "PLAYBACK_UPDATE"      // 播放事件
	FrameScreenshotReady    FrameKind = "SCREENSHOT_READY"     // 截图就绪
)

// String 实现Stringer接口
func (k FrameKind) String() string {
	return string(k)
}

// DeviceStats 设备硬件指标快照
type DeviceStats struct {
	CPU         float64 `json:"cpu"`         // CPU占用率
	Memory      float64 `json:"memory"`      // 内存占用率
	Storage     float64 `json:"storage"`     // 存储占用率
	Temperature float64 `json:"temperature"` // 温度
}

// InboundFrame 入站帧（设备/观察者 → 服务端）
// 所有入站帧共用一个信封，按 type 字段路由，缺省字段零值
type InboundFrame struct {
	Type       FrameKind    `json:"type"`                 // 帧类型
	DeviceID   string       `json:"deviceId,omitempty"`   // 设备ID
	UserID     string       `json:"userId,omitempty"`     // 观察者ID
	TenantID   string       `json:"tenantId,omitempty"`   // 租户ID
	Token      string       `json:"token,omitempty"`      // 注册凭据（校验器钩子消费）
	ContentID  string       `json:"contentId,omitempty"`  // 内容ID
	CampaignID string       `json:"campaignId,omitempty"` // 投放计划ID
	Duration   int64        `json:"duration,omitempty"`   // 播放时长（毫秒）
	StartTime  *time.Time   `json:"startTime,omitempty"`  // 播放开始时间
	EndTime    *time.Time   `json:"endTime,omitempty"`    // 播放结束时间
	Status     string       `json:"status,omitempty"`     // 设备自报状态
	Stats      *DeviceStats `json:"stats,omitempty"`      // 硬件指标
	Screenshot string       `json:"screenshot,omitempty"` // 截图数据（base64）
	Timestamp  *time.Time   `json:"timestamp,omitempty"`  // 客户端时间戳
}

// DecodeInboundFrame 解析入站帧
// 格式非法或缺失type字段返回 ErrInvalidFrame
func DecodeInboundFrame(data []byte) (*InboundFrame, error) {
	var frame InboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, ErrInvalidFrame
	}
	if frame.Type == "" {
		return nil, ErrInvalidFrame
	}
	return &frame, nil
}

// EncodeInboundFrame 序列化入站帧（终端侧使用）
func EncodeInboundFrame(frame *InboundFrame) ([]byte, error) {
	return json.Marshal(frame)
}

// DecodeDeviceFrame 解析设备出站帧（终端侧使用）
// 格式非法或缺失type字段返回 ErrInvalidFrame
func DecodeDeviceFrame(data []byte) (*DeviceFrame, error) {
	var frame DeviceFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, ErrInvalidFrame
	}
	if frame.Type == "" {
		return nil, ErrInvalidFrame
	}
	return &frame, nil
}

// DeviceFrame 设备出站帧（服务端 → 设备）
type DeviceFrame struct {
	Type     FrameKind `json:"type"`               // 帧类型
	DeviceID string    `json:"deviceId,omitempty"` // 设备ID
	Message  string    `json:"message,omitempty"`  // 提示信息（ERROR/BLOCK_DEVICE携带）
	Action   string    `json:"action,omitempty"`   // 指令动作（CONTENT_UPDATE携带）
}

// ObserverFrame 观察者出站帧（服务端 → 管理端）
type ObserverFrame struct {
	Type       FrameKind    `json:"type"`                 // 帧类型
	UserID     string       `json:"userId,omitempty"`     // 观察者ID（REGISTERED回执携带）
	DeviceID   string       `json:"deviceId,omitempty"`   // 设备ID
	DeviceName string       `json:"deviceName,omitempty"` // 设备名称
	TenantID   string       `json:"tenantId,omitempty"`   // 租户ID
	Device     *Device      `json:"device,omitempty"`     // 设备档案（DEVICE_ONLINE/DEVICE_REGISTERED携带）
	Status     string       `json:"status,omitempty"`     // 设备状态
	Stats      *DeviceStats `json:"stats,omitempty"`      // 硬件指标
	ContentID  string       `json:"contentId,omitempty"`  // 内容ID
	CampaignID string       `json:"campaignId,omitempty"` // 投放计划ID
	Duration   int64        `json:"duration,omitempty"`   // 播放时长（毫秒）
	Timestamp  time.Time    `json:"timestamp"`            // 服务端时间戳
}

// Encode 序列化设备出站帧
func (f *DeviceFrame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// Encode 序列化观察者出站帧
func (f *ObserverFrame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// NewConnectedFrame 构造连接确认帧
func NewConnectedFrame() *DeviceFrame {
	return &DeviceFrame{Type: FrameConnected}
}

// NewRegisteredFrame 构造设备注册确认帧
func NewRegisteredFrame(deviceID string) *DeviceFrame {
	return &DeviceFrame{Type: FrameRegistered, DeviceID: deviceID}
}

// NewErrorFrame 构造错误帧
func NewErrorFrame(message string) *DeviceFrame {
	return &DeviceFrame{Type: FrameError, Message: message}
}

// NewHeartbeatAckFrame 构造心跳确认帧
func NewHeartbeatAckFrame(deviceID string) *DeviceFrame {
	return &DeviceFrame{Type: FrameHeartbeatAck, DeviceID: deviceID}
}

// NewObserverRegisteredFrame 构造观察者注册确认帧
func NewObserverRegisteredFrame(userID string) *ObserverFrame {
	return &ObserverFrame{Type: FrameRegistered, UserID: userID, Timestamp: time.Now()}
}
