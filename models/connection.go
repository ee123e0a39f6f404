/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-02 11:30:52
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-10 09:21:44
 * @FilePath: \go-dvh\models\connection.go
 * @Description: 设备/观察者活动连接定义
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package models

import (
	"context"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// DeviceConn 设备活动连接
//
// SendChan 的所有权规则：只有注册表的移除路径允许 close，
// 其它地方一律通过 TrySend 非阻塞入队
type DeviceConn struct {
	ConnID      string                 `json:"conn_id"`      // 连接ID
	DeviceID    string                 `json:"device_id"`    // 设备ID（注册表主键）
	TenantID    string                 `json:"tenant_id"`    // 租户ID
	Name        string                 `json:"name"`         // 设备名称
	ClientIP    string                 `json:"client_ip"`    // 客户端IP
	Conn        *websocket.Conn        `json:"-"`            // WebSocket连接（不序列化）
	ConnectedAt time.Time              `json:"connected_at"` // 连接时间
	LastSeen    time.Time              `json:"last_seen"`    // 最后活跃时间（注册表锁保护）
	Metadata    map[string]interface{} `json:"metadata"`     // 元数据
	SendChan    chan []byte            `json:"-"`            // 发送通道（不序列化）
	Context     context.Context        `json:"-"`            // 上下文（不序列化）
	closed      atomic.Bool            `json:"-"`            // channel关闭标志（不序列化）
	CloseMu     sync.Mutex             `json:"-"`            // 保护channel关闭的互斥锁（不序列化）
}

// NewDeviceConn 创建设备连接实例
func NewDeviceConn(connID, deviceID string, conn *websocket.Conn, bufferSize int) *DeviceConn {
	now := time.Now()
	return &DeviceConn{
		ConnID:      connID,
		DeviceID:    deviceID,
		Conn:        conn,
		ConnectedAt: now,
		LastSeen:    now,
		Metadata:    make(map[string]interface{}),
		SendChan:    make(chan []byte, bufferSize),
		Context:     context.Background(),
	}
}

// WithTenant 设置租户ID
func (c *DeviceConn) WithTenant(tenantID string) *DeviceConn {
	c.TenantID = tenantID
	return c
}

// WithName 设置设备名称
func (c *DeviceConn) WithName(name string) *DeviceConn {
	c.Name = name
	return c
}

// WithClientIP 设置客户端IP
func (c *DeviceConn) WithClientIP(ip string) *DeviceConn {
	c.ClientIP = ip
	return c
}

// WithMetadataMap 批量设置元数据
func (c *DeviceConn) WithMetadataMap(metadata map[string]interface{}) *DeviceConn {
	if c.Metadata == nil {
		c.Metadata = make(map[string]interface{})
	}
	for k, v := range metadata {
		c.Metadata[k] = v
	}
	return c
}

// WithContext 设置上下文
func (c *DeviceConn) WithContext(ctx context.Context) *DeviceConn {
	c.Context = ctx
	return c
}

// GetClientIP 获取客户端IP地址
func (c *DeviceConn) GetClientIP() string {
	if c.ClientIP != "" {
		return c.ClientIP
	}
	if c.Conn != nil {
		if remoteAddr := c.Conn.RemoteAddr(); remoteAddr != nil {
			if host, _, err := net.SplitHostPort(remoteAddr.String()); err == nil {
				return host
			}
			return remoteAddr.String()
		}
	}
	return "unknown"
}

// IsClosed 检查连接channel是否已关闭
func (c *DeviceConn) IsClosed() bool {
	return c.closed.Load()
}

// MarkClosed 标记连接channel为已关闭
func (c *DeviceConn) MarkClosed() {
	c.closed.Store(true)
}

// TrySend 尝试向设备入队数据，已关闭或通道满返回false
func (c *DeviceConn) TrySend(data []byte) bool {
	c.CloseMu.Lock()
	defer c.CloseMu.Unlock()

	if c.IsClosed() || c.SendChan == nil {
		return false
	}

	select {
	case c.SendChan <- data:
		return true
	default:
		return false
	}
}

// ObserverConn 观察者活动连接
//
// 同一 observerId 允许多条并存连接，注册表按 (observerId, connId) 定位
type ObserverConn struct {
	ConnID      string          `json:"conn_id"`      // 连接ID（二级键）
	ObserverID  string          `json:"observer_id"`  // 观察者ID
	TenantID    string          `json:"tenant_id"`    // 租户过滤，空值表示全量
	ClientIP    string          `json:"client_ip"`    // 客户端IP
	Conn        *websocket.Conn `json:"-"`            // WebSocket连接（不序列化）
	ConnectedAt time.Time       `json:"connected_at"` // 连接时间
	SendChan    chan []byte     `json:"-"`            // 发送通道（不序列化）
	Context     context.Context `json:"-"`            // 上下文（不序列化）
	closed      atomic.Bool     `json:"-"`            // channel关闭标志（不序列化）
	CloseMu     sync.Mutex      `json:"-"`            // 保护channel关闭的互斥锁（不序列化）
}

// NewObserverConn 创建观察者连接实例
func NewObserverConn(connID, observerID string, conn *websocket.Conn, bufferSize int) *ObserverConn {
	return &ObserverConn{
		ConnID:      connID,
		ObserverID:  observerID,
		Conn:        conn,
		ConnectedAt: time.Now(),
		SendChan:    make(chan []byte, bufferSize),
		Context:     context.Background(),
	}
}

// WithTenant 设置租户过滤
func (c *ObserverConn) WithTenant(tenantID string) *ObserverConn {
	c.TenantID = tenantID
	return c
}

// WithClientIP 设置客户端IP
func (c *ObserverConn) WithClientIP(ip string) *ObserverConn {
	c.ClientIP = ip
	return c
}

// WithContext 设置上下文
func (c *ObserverConn) WithContext(ctx context.Context) *ObserverConn {
	c.Context = ctx
	return c
}

// IsClosed 检查连接channel是否已关闭
func (c *ObserverConn) IsClosed() bool {
	return c.closed.Load()
}

// MarkClosed 标记连接channel为已关闭
func (c *ObserverConn) MarkClosed() {
	c.closed.Store(true)
}

// TrySend 尝试向观察者入队数据，已关闭或通道满返回false
func (c *ObserverConn) TrySend(data []byte) bool {
	c.CloseMu.Lock()
	defer c.CloseMu.Unlock()

	if c.IsClosed() || c.SendChan == nil {
		return false
	}

	select {
	case c.SendChan <- data:
		return true
	default:
		return false
	}
}

// Matches 判断观察者是否应收到指定租户的事件
// 观察者未声明租户视为全量订阅；事件未携带租户视为全站事件
func (c *ObserverConn) Matches(tenantID string) bool {
	return c.TenantID == "" || tenantID == "" || c.TenantID == tenantID
}
