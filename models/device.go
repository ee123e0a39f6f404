/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 14:05:33
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-14 10:52:08
 * @FilePath: \go-dvh\models\device.go
 * @Description: 设备档案与上报数据持久化模型 - GORM
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

import (
	"time"

	"github.com/kamalyes/go-sqlbuilder"
	"gorm.io/gorm"
)

// 数据库查询常量
const (
	QueryDeviceIDWhere    = "device_id = ?"
	OrderByCreatedAtDesc  = "created_at DESC"
	OrderByCapturedAtDesc = "captured_at DESC"
	OrderByStartTimeDesc  = "start_time DESC"
)

// Device 设备档案（GORM 模型）
// 由CRUD后台登记，枢纽只读档案、写状态投影
type Device struct {
	ID           string         `gorm:"column:device_id;primaryKey;size:64;comment:设备ID,业务主键" json:"deviceId"`          // 设备ID
	TenantID     string         `gorm:"column:tenant_id;size:64;index;comment:租户ID" json:"tenantId"`                    // 租户ID
	Name         string         `gorm:"size:255;comment:设备名称" json:"deviceName"`                                        // 设备名称
	Location     string         `gorm:"size:255;comment:安装位置" json:"location,omitempty"`                                // 安装位置
	Status       DeviceStatus   `gorm:"index;size:20;not null;default:'offline';comment:状态投影(最终一致)" json:"status"`      // 状态投影
	BlockMessage string         `gorm:"size:512;comment:封禁提示语" json:"blockMessage,omitempty"`                           // 封禁提示语
	LastSeenAt   *time.Time     `gorm:"index;comment:最后活跃时间" json:"lastSeenAt,omitempty"`                               // 最后活跃时间
	CreatedAt    time.Time      `gorm:"comment:记录创建时间" json:"createdAt"`                                                // 创建时间
	UpdatedAt    time.Time      `gorm:"comment:记录最后更新时间" json:"updatedAt"`                                              // 最后更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index;comment:记录删除时间,支持软删除" json:"-"`                                            // 删除时间
}

// TableName 指定表名
func (Device) TableName() string {
	return "dvh_devices"
}

// TableComment 表注释
func (Device) TableComment() string {
	return "数字标牌设备档案表-status列仅为注册表成员关系的最终一致投影"
}

// IsBlocked 判断设备是否处于封禁状态
func (d *Device) IsBlocked() bool {
	return d.Status == DeviceStatusBlocked
}

// DeviceLog 设备在离线日志（GORM 模型）
type DeviceLog struct {
	ID        uint         `gorm:"primaryKey;autoIncrement;comment:主键" json:"id"`                        // 主键
	DeviceID  string       `gorm:"column:device_id;size:64;not null;index;comment:设备ID" json:"deviceId"` // 设备ID
	EventType LogEventType `gorm:"index;size:20;not null;comment:事件类型" json:"eventType"`                 // 事件类型
	Message   string       `gorm:"size:512;comment:事件描述" json:"message"`                                 // 事件描述
	CreatedAt time.Time    `gorm:"index;comment:记录创建时间" json:"createdAt"`                                // 创建时间
}

// TableName 指定表名
func (DeviceLog) TableName() string {
	return "dvh_device_logs"
}

// TableComment 表注释
func (DeviceLog) TableComment() string {
	return "设备在离线日志表-记录上线下线注册封禁等事件用于审计"
}

// PlaybackLog 播放完成日志（GORM 模型）
type PlaybackLog struct {
	ID         uint       `gorm:"primaryKey;autoIncrement;comment:主键" json:"id"`                        // 主键
	DeviceID   string     `gorm:"column:device_id;size:64;not null;index;comment:设备ID" json:"deviceId"` // 设备ID
	TenantID   string     `gorm:"column:tenant_id;size:64;index;comment:租户ID" json:"tenantId"`          // 租户ID
	ContentID  string     `gorm:"column:content_id;size:64;index;comment:内容ID" json:"contentId"`        // 内容ID
	CampaignID string     `gorm:"column:campaign_id;size:64;index;comment:投放计划ID" json:"campaignId"`    // 投放计划ID
	Duration   int64      `gorm:"comment:播放时长,毫秒" json:"duration"`                                      // 播放时长
	StartTime  *time.Time `gorm:"index;comment:播放开始时间" json:"startTime,omitempty"`                      // 播放开始时间
	EndTime    *time.Time `gorm:"comment:播放结束时间" json:"endTime,omitempty"`                              // 播放结束时间
	CreatedAt  time.Time  `gorm:"index;comment:记录创建时间" json:"createdAt"`                                // 创建时间
}

// TableName 指定表名
func (PlaybackLog) TableName() string {
	return "dvh_playback_logs"
}

// TableComment 表注释
func (PlaybackLog) TableComment() string {
	return "设备播放完成日志表-投放结算与排期核对的数据来源"
}

// DeviceStatsRecord 设备硬件指标快照（GORM 模型，按设备覆盖写）
type DeviceStatsRecord struct {
	DeviceID    string            `gorm:"column:device_id;primaryKey;size:64;comment:设备ID" json:"deviceId"` // 设备ID
	CPU         float64           `gorm:"comment:CPU占用率" json:"cpu"`                                        // CPU占用率
	Memory      float64           `gorm:"comment:内存占用率" json:"memory"`                                      // 内存占用率
	Storage     float64           `gorm:"comment:存储占用率" json:"storage"`                                     // 存储占用率
	Temperature float64           `gorm:"comment:温度" json:"temperature"`                                    // 温度
	Status      string            `gorm:"size:50;comment:设备自报状态" json:"status"`                             // 设备自报状态
	Extra       sqlbuilder.MapAny `gorm:"type:json;comment:扩展指标,类型为JSON" json:"extra"`                      // 扩展指标
	UpdatedAt   time.Time         `gorm:"comment:记录最后更新时间" json:"updatedAt"`                                // 最后更新时间
}

// TableName 指定表名
func (DeviceStatsRecord) TableName() string {
	return "dvh_device_stats"
}

// TableComment 表注释
func (DeviceStatsRecord) TableComment() string {
	return "设备硬件指标快照表-每设备一行覆盖更新"
}

// BeforeSave GORM 钩子：保存前
func (r *DeviceStatsRecord) BeforeSave(tx *gorm.DB) error {
	if r.Extra == nil {
		r.Extra = make(sqlbuilder.MapAny)
	}
	return nil
}

// ScreenshotRecord 设备截图记录（GORM 模型）
type ScreenshotRecord struct {
	ID         uint              `gorm:"primaryKey;autoIncrement;comment:主键" json:"id"`                        // 主键
	DeviceID   string            `gorm:"column:device_id;size:64;not null;index;comment:设备ID" json:"deviceId"` // 设备ID
	Data       string            `gorm:"type:longtext;comment:截图数据,base64编码" json:"data"`                      // 截图数据
	Meta       sqlbuilder.MapAny `gorm:"type:json;comment:截图元信息,类型为JSON" json:"meta"`                          // 截图元信息
	CapturedAt *time.Time        `gorm:"index;comment:截图时间" json:"capturedAt,omitempty"`                       // 截图时间
	CreatedAt  time.Time         `gorm:"index;comment:记录创建时间" json:"createdAt"`                                // 创建时间
}

// TableName 指定表名
func (ScreenshotRecord) TableName() string {
	return "dvh_screenshots"
}

// TableComment 表注释
func (ScreenshotRecord) TableComment() string {
	return "设备截图记录表-远程巡检截图落库"
}

// BeforeCreate GORM 钩子：创建前
func (r *ScreenshotRecord) BeforeCreate(tx *gorm.DB) error {
	if r.Meta == nil {
		r.Meta = make(sqlbuilder.MapAny)
	}
	return nil
}
