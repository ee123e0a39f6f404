/**
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-03 09:14:27
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-03-03 09:52:10
 * @FilePath: \go-dvh\repository\constants.go
 * @Description: Repository 层常量定义 - 统一管理 Redis key 前缀
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package repository

const (
	// ============================================================================
	// Redis Key 前缀常量
	// ============================================================================

	// DefaultOnlineKeyPrefix 设备在线状态默认 key 前缀
	DefaultOnlineKeyPrefix = "dvh:online:"

	// DefaultOnlineTTL 设备在线状态默认过期时间（秒）
	// 略大于心跳超时窗口，保证投影最终收敛
	DefaultOnlineTTLSeconds = 360
)
