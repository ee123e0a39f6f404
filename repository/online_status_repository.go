/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-03 10:22:40
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-20 15:36:12
 * @FilePath: \go-dvh\repository\online_status_repository.go
 * @Description: 设备在线状态投影 - Redis 存储
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"github.com/kamalyes/go-toolbox/pkg/json"
	"github.com/kamalyes/go-toolbox/pkg/mathx"
	"github.com/redis/go-redis/v9"
)

// OnlineDeviceInfo 设备在线信息（Redis 存储结构）
type OnlineDeviceInfo struct {
	DeviceID      string    `json:"device_id"`      // 设备ID
	TenantID      string    `json:"tenant_id"`      // 租户ID
	Name          string    `json:"name"`           // 设备名称
	NodeID        string    `json:"node_id"`        // 所在节点ID
	ClientIP      string    `json:"client_ip"`      // 客户端IP
	ConnectedAt   time.Time `json:"connected_at"`   // 连接时间
	LastHeartbeat time.Time `json:"last_heartbeat"` // 最后心跳时间
}

// OnlineStatusRepository 设备在线状态仓库接口
//
// 该投影只服务跨进程读取（管理后台列表、监控大盘），
// 枢纽内部的指令可达性判断永远走注册表，不读这里
type OnlineStatusRepository interface {
	// SetOnline 设置设备在线
	SetOnline(ctx context.Context, info *OnlineDeviceInfo) error

	// SetOffline 设置设备离线
	SetOffline(ctx context.Context, deviceID string) error

	// IsOnline 检查设备是否在线
	IsOnline(ctx context.Context, deviceID string) (bool, error)

	// GetOnlineInfo 获取设备在线信息
	GetOnlineInfo(ctx context.Context, deviceID string) (*OnlineDeviceInfo, error)

	// GetAllOnlineDevices 获取所有在线设备ID列表
	GetAllOnlineDevices(ctx context.Context) ([]string, error)

	// GetOnlineDevicesByTenant 获取指定租户的在线设备
	GetOnlineDevicesByTenant(ctx context.Context, tenantID string) ([]string, error)

	// GetOnlineCount 获取在线设备总数
	GetOnlineCount(ctx context.Context) (int64, error)

	// UpdateHeartbeat 刷新设备心跳（会刷新 TTL）
	UpdateHeartbeat(ctx context.Context, deviceID string) error

	// CleanupExpired 清理集合中已过期的设备成员
	CleanupExpired(ctx context.Context) (int64, error)
}

// RedisOnlineStatusRepository Redis 实现
type RedisOnlineStatusRepository struct {
	client    *redis.Client
	keyPrefix string        // key 前缀
	ttl       time.Duration // 过期时间
}

// NewRedisOnlineStatusRepository 创建 Redis 在线状态仓库
//
// 参数:
//   - client: Redis 客户端 (github.com/redis/go-redis/v9)
//   - keyPrefix: key 前缀，空值使用 DefaultOnlineKeyPrefix
//   - ttl: 过期时间，零值使用默认（略大于心跳超时窗口）
func NewRedisOnlineStatusRepository(client *redis.Client, keyPrefix string, ttl time.Duration) OnlineStatusRepository {
	return &RedisOnlineStatusRepository{
		client:    client,
		keyPrefix: mathx.IF(keyPrefix == "", DefaultOnlineKeyPrefix, keyPrefix),
		ttl:       mathx.IF(ttl == 0, DefaultOnlineTTLSeconds*time.Second, ttl),
	}
}

// GetDeviceKey 获取设备在线状态的 key
func (r *RedisOnlineStatusRepository) GetDeviceKey(deviceID string) string {
	return fmt.Sprintf("%sdevice:%s", r.keyPrefix, deviceID)
}

// GetTenantSetKey 获取租户在线设备集合的 key
func (r *RedisOnlineStatusRepository) GetTenantSetKey(tenantID string) string {
	return fmt.Sprintf("%stenant:%s", r.keyPrefix, tenantID)
}

// GetAllDevicesSetKey 获取所有在线设备集合的 key
func (r *RedisOnlineStatusRepository) GetAllDevicesSetKey() string {
	return fmt.Sprintf("%sall", r.keyPrefix)
}

// SetOnline 设置设备在线
func (r *RedisOnlineStatusRepository) SetOnline(ctx context.Context, info *OnlineDeviceInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return errorx.WrapError("failed to marshal online device info", err)
	}

	// 使用 pipeline 批量执行
	pipe := r.client.Pipeline()

	// 1. 设置设备在线信息
	pipe.Set(ctx, r.GetDeviceKey(info.DeviceID), data, r.ttl)

	// 2. 添加到全局在线设备集合
	pipe.SAdd(ctx, r.GetAllDevicesSetKey(), info.DeviceID)

	// 3. 添加到租户在线设备集合
	if info.TenantID != "" {
		pipe.SAdd(ctx, r.GetTenantSetKey(info.TenantID), info.DeviceID)
	}

	_, err = pipe.Exec(ctx)
	return err
}

// SetOffline 设置设备离线
func (r *RedisOnlineStatusRepository) SetOffline(ctx context.Context, deviceID string) error {
	// 先获取设备信息，以便从租户集合中移除
	info, _ := r.GetOnlineInfo(ctx, deviceID)

	pipe := r.client.Pipeline()

	// 1. 删除设备在线信息
	pipe.Del(ctx, r.GetDeviceKey(deviceID))

	// 2. 从全局在线设备集合中移除
	pipe.SRem(ctx, r.GetAllDevicesSetKey(), deviceID)

	// 3. 从租户集合中移除
	if info != nil && info.TenantID != "" {
		pipe.SRem(ctx, r.GetTenantSetKey(info.TenantID), deviceID)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// IsOnline 检查设备是否在线
func (r *RedisOnlineStatusRepository) IsOnline(ctx context.Context, deviceID string) (bool, error) {
	exists, err := r.client.Exists(ctx, r.GetDeviceKey(deviceID)).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// GetOnlineInfo 获取设备在线信息
func (r *RedisOnlineStatusRepository) GetOnlineInfo(ctx context.Context, deviceID string) (*OnlineDeviceInfo, error) {
	data, err := r.client.Get(ctx, r.GetDeviceKey(deviceID)).Result()
	if err != nil {
		return nil, err
	}

	var info OnlineDeviceInfo
	if err := json.Unmarshal([]byte(data), &info); err != nil {
		return nil, errorx.WrapError("failed to unmarshal online device info", err)
	}

	return &info, nil
}

// GetAllOnlineDevices 获取所有在线设备ID列表
func (r *RedisOnlineStatusRepository) GetAllOnlineDevices(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, r.GetAllDevicesSetKey()).Result()
}

// GetOnlineDevicesByTenant 获取指定租户的在线设备
func (r *RedisOnlineStatusRepository) GetOnlineDevicesByTenant(ctx context.Context, tenantID string) ([]string, error) {
	return r.client.SMembers(ctx, r.GetTenantSetKey(tenantID)).Result()
}

// GetOnlineCount 获取在线设备总数
func (r *RedisOnlineStatusRepository) GetOnlineCount(ctx context.Context) (int64, error) {
	return r.client.SCard(ctx, r.GetAllDevicesSetKey()).Result()
}

// UpdateHeartbeat 刷新设备心跳
func (r *RedisOnlineStatusRepository) UpdateHeartbeat(ctx context.Context, deviceID string) error {
	// 获取当前信息
	info, err := r.GetOnlineInfo(ctx, deviceID)
	if err != nil {
		return err
	}

	// 更新心跳时间
	info.LastHeartbeat = time.Now()

	// 重新设置（会刷新 TTL）
	return r.SetOnline(ctx, info)
}

// CleanupExpired 清理集合中已过期的设备成员
// 注意：Redis 会自动清理过期的 key，此方法主要用于清理集合中的无效成员
func (r *RedisOnlineStatusRepository) CleanupExpired(ctx context.Context) (int64, error) {
	allDevices, err := r.GetAllOnlineDevices(ctx)
	if err != nil {
		return 0, err
	}

	pipe := r.client.Pipeline()
	var removed int64

	for _, deviceID := range allDevices {
		exists, err := r.client.Exists(ctx, r.GetDeviceKey(deviceID)).Result()
		if err != nil {
			continue
		}
		if exists == 0 {
			// 设备信息已过期，但还在集合中
			info, _ := r.GetOnlineInfo(ctx, deviceID)

			pipe.SRem(ctx, r.GetAllDevicesSetKey(), deviceID)
			if info != nil && info.TenantID != "" {
				pipe.SRem(ctx, r.GetTenantSetKey(info.TenantID), deviceID)
			}
			removed++
		}
	}

	if removed > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return 0, err
		}
	}

	return removed, nil
}
