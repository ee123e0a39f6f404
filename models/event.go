/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 15:11:26
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-15 09:33:41
 * @FilePath: \go-dvh\models\event.go
 * @Description: 观察者广播事件定义
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

import "time"

// Event 观察者广播事件
// TenantID 为空表示全站事件，所有观察者可见
type Event struct {
	Type       FrameKind    `json:"type"`                 // 事件类型（复用观察者帧类型）
	DeviceID   string       `json:"deviceId"`             // 设备ID
	DeviceName string       `json:"deviceName,omitempty"` // 设备名称
	TenantID   string       `json:"tenantId,omitempty"`   // 租户ID
	Device     *Device      `json:"device,omitempty"`     // 设备档案
	Status     string       `json:"status,omitempty"`     // 设备状态
	Stats      *DeviceStats `json:"stats,omitempty"`      // 硬件指标
	ContentID  string       `json:"contentId,omitempty"`  // 内容ID
	CampaignID string       `json:"campaignId,omitempty"` // 投放计划ID
	Duration   int64        `json:"duration,omitempty"`   // 播放时长（毫秒）
	Timestamp  time.Time    `json:"timestamp"`            // 事件时间
}

// ToFrame 转换为观察者出站帧
func (e *Event) ToFrame() *ObserverFrame {
	return &ObserverFrame{
		Type:       e.Type,
		DeviceID:   e.DeviceID,
		DeviceName: e.DeviceName,
		TenantID:   e.TenantID,
		Device:     e.Device,
		Status:     e.Status,
		Stats:      e.Stats,
		ContentID:  e.ContentID,
		CampaignID: e.CampaignID,
		Duration:   e.Duration,
		Timestamp:  e.Timestamp,
	}
}

// NewDeviceOnlineEvent 构造设备上线事件
func NewDeviceOnlineEvent(device *Device) *Event {
	return &Event{
		Type:       FrameDeviceOnline,
		DeviceID:   device.ID,
		DeviceName: device.Name,
		TenantID:   device.TenantID,
		Device:     device,
		Status:     DeviceStatusOnline.String(),
		Timestamp:  time.Now(),
	}
}

// NewDeviceOfflineEvent 构造设备离线事件
func NewDeviceOfflineEvent(deviceID, deviceName, tenantID string) *Event {
	return &Event{
		Type:       FrameDeviceOffline,
		DeviceID:   deviceID,
		DeviceName: deviceName,
		TenantID:   tenantID,
		Status:     DeviceStatusOffline.String(),
		Timestamp:  time.Now(),
	}
}

// NewDeviceRegisteredEvent 构造新设备登记事件（CRUD后台登记设备后广播）
func NewDeviceRegisteredEvent(device *Device) *Event {
	return &Event{
		Type:       FrameDeviceRegistered,
		DeviceID:   device.ID,
		DeviceName: device.Name,
		TenantID:   device.TenantID,
		Device:     device,
		Timestamp:  time.Now(),
	}
}

// NewDeviceStatusUpdateEvent 构造设备指标更新事件
func NewDeviceStatusUpdateEvent(deviceID, deviceName, tenantID, status string, stats *DeviceStats) *Event {
	return &Event{
		Type:       FrameDeviceStatusUpdate,
		DeviceID:   deviceID,
		DeviceName: deviceName,
		TenantID:   tenantID,
		Status:     status,
		Stats:      stats,
		Timestamp:  time.Now(),
	}
}

// NewPlaybackUpdateEvent 构造播放事件
func NewPlaybackUpdateEvent(deviceID, tenantID, contentID, campaignID string, duration int64) *Event {
	return &Event{
		Type:       FramePlaybackUpdate,
		DeviceID:   deviceID,
		TenantID:   tenantID,
		ContentID:  contentID,
		CampaignID: campaignID,
		Duration:   duration,
		Timestamp:  time.Now(),
	}
}

// NewScreenshotReadyEvent 构造截图就绪事件
func NewScreenshotReadyEvent(deviceID, deviceName, tenantID string) *Event {
	return &Event{
		Type:       FrameScreenshotReady,
		DeviceID:   deviceID,
		DeviceName: deviceName,
		TenantID:   tenantID,
		Timestamp:  time.Now(),
	}
}
