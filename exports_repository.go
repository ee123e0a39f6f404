/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-10 09:36:27
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-28 14:30:55
 * @FilePath: \go-dvh\exports_repository.go
 * @Description: Repository 包的类型和函数导出
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package dvh

import (
	"github.com/kamalyes/go-dvh/repository"
)

// ============================================================================
// Repository 类型导出
// ============================================================================

type (
	DeviceRepository       = repository.DeviceRepository
	OnlineStatusRepository = repository.OnlineStatusRepository
	OnlineDeviceInfo       = repository.OnlineDeviceInfo
)

// 常量导出
const (
	DefaultOnlineKeyPrefix  = repository.DefaultOnlineKeyPrefix
	DefaultOnlineTTLSeconds = repository.DefaultOnlineTTLSeconds
)

// ============================================================================
// Repository 函数导出
// ============================================================================

var (
	NewDeviceRepository            = repository.NewDeviceRepository
	NewRedisOnlineStatusRepository = repository.NewRedisOnlineStatusRepository
	OpenMySQL                      = repository.OpenMySQL
	AutoMigrate                    = repository.AutoMigrate
)
