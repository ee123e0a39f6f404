/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-04 10:02:15
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-24 11:21:50
 * @FilePath: \go-dvh\hub\registry.go
 * @Description: Hub 连接注册表 - 设备/观察者在线成员关系的唯一事实来源
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package hub

import (
	"time"

	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// ============================================================================
// 设备注册表
// ============================================================================

// putDevice 写入设备连接，同ID旧连接被原子顶替并关闭
// 返回被顶替的旧连接（无则为nil）
func (h *Hub) putDevice(conn *DeviceConn) *DeviceConn {
	h.mutex.Lock()
	old := h.devices[conn.DeviceID]
	h.devices[conn.DeviceID] = conn
	h.mutex.Unlock()

	if old == nil {
		h.deviceConnCount.Add(1)
		return nil
	}

	// 同ID重复注册：新连接胜出，旧连接关闭后其会话自行收尾
	// 收尾时身份匹配失败，不会误删新连接也不会广播离线
	h.logger.InfoKV("设备重复注册，顶替旧连接",
		"device_id", conn.DeviceID,
		"old_conn_id", old.ConnID,
		"new_conn_id", conn.ConnID,
	)
	h.closeDeviceConn(old)
	return old
}

// removeDevice 身份匹配移除设备连接
// 仅当注册表中登记的就是该连接实例时才移除并关闭，
// 防止旧连接的延迟收尾误删顶替它的新连接
func (h *Hub) removeDevice(conn *DeviceConn) bool {
	h.mutex.Lock()
	current, exists := h.devices[conn.DeviceID]
	if !exists || current != conn {
		h.mutex.Unlock()
		return false
	}
	delete(h.devices, conn.DeviceID)
	h.mutex.Unlock()

	h.deviceConnCount.Add(-1)
	h.closeDeviceConn(conn)
	return true
}

// GetDevice 获取设备连接（非变更操作，不存在返回false）
func (h *Hub) GetDevice(deviceID string) (*DeviceConn, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	conn, exists := h.devices[deviceID]
	return conn, exists
}

// HasDevice 检查设备是否在线
func (h *Hub) HasDevice(deviceID string) bool {
	_, exists := h.GetDevice(deviceID)
	return exists
}

// DeviceCount 获取在线设备数
func (h *Hub) DeviceCount() int64 {
	return h.deviceConnCount.Load()
}

// GetOnlineDeviceIDs 获取所有在线设备ID
func (h *Hub) GetOnlineDeviceIDs() []string {
	return syncx.WithRLockReturnValue(&h.mutex, func() []string {
		ids := make([]string, 0, len(h.devices))
		for id := range h.devices {
			ids = append(ids, id)
		}
		return ids
	})
}

// GetDevicesCopy 获取所有设备连接的副本
func (h *Hub) GetDevicesCopy() []*DeviceConn {
	return syncx.WithRLockReturnValue(&h.mutex, func() []*DeviceConn {
		conns := make([]*DeviceConn, 0, len(h.devices))
		for _, conn := range h.devices {
			conns = append(conns, conn)
		}
		return conns
	})
}

// TouchDevice 刷新设备最后活跃时间（单调不回退）
func (h *Hub) TouchDevice(deviceID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if conn, exists := h.devices[deviceID]; exists {
		now := time.Now()
		if now.After(conn.LastSeen) {
			conn.LastSeen = now
		}
	}
}

// deviceLastSeen 加锁读取设备最后活跃时间
func (h *Hub) deviceLastSeen(conn *DeviceConn) time.Time {
	return syncx.WithRLockReturnValue(&h.mutex, func() time.Time {
		return conn.LastSeen
	})
}

// ============================================================================
// 观察者注册表
// ============================================================================

// addObserver 写入观察者连接 - 同ID多端并存
func (h *Hub) addObserver(conn *ObserverConn) {
	h.mutex.Lock()
	if _, exists := h.observers[conn.ObserverID]; !exists {
		h.observers[conn.ObserverID] = make(map[string]*ObserverConn)
	}
	h.observers[conn.ObserverID][conn.ConnID] = conn
	total := len(h.observers)
	h.mutex.Unlock()

	h.observerConnCount.Add(1)
	h.logger.DebugKV("👁️ 观察者已注册",
		"observer_id", conn.ObserverID,
		"conn_id", conn.ConnID,
		"tenant_id", conn.TenantID,
		"total_observers", total,
	)
}

// removeObserver 身份匹配移除观察者连接
func (h *Hub) removeObserver(conn *ObserverConn) bool {
	h.mutex.Lock()
	connMap, exists := h.observers[conn.ObserverID]
	if !exists {
		h.mutex.Unlock()
		return false
	}
	current, exists := connMap[conn.ConnID]
	if !exists || current != conn {
		h.mutex.Unlock()
		return false
	}
	delete(connMap, conn.ConnID)
	// 如果该观察者没有其他连接了，删除整个映射
	if len(connMap) == 0 {
		delete(h.observers, conn.ObserverID)
	}
	h.mutex.Unlock()

	h.observerConnCount.Add(-1)
	h.closeObserverConn(conn)
	h.logger.DebugKV("❌ 观察者已移除",
		"observer_id", conn.ObserverID,
		"conn_id", conn.ConnID,
	)
	return true
}

// GetObserverConns 获取匹配指定租户的观察者连接副本
// 事件租户为空视为全站事件，观察者租户为空视为全量订阅
func (h *Hub) GetObserverConns(tenantID string) []*ObserverConn {
	return syncx.WithRLockReturnValue(&h.mutex, func() []*ObserverConn {
		conns := make([]*ObserverConn, 0, len(h.observers))
		for _, connMap := range h.observers {
			for _, conn := range connMap {
				if conn.Matches(tenantID) {
					conns = append(conns, conn)
				}
			}
		}
		return conns
	})
}

// ObserverCount 获取在线观察者数（按observerId去重）
func (h *Hub) ObserverCount() int {
	return syncx.WithRLockReturnValue(&h.mutex, func() int {
		return len(h.observers)
	})
}

// ObserverConnCount 获取观察者连接总数
func (h *Hub) ObserverConnCount() int64 {
	return h.observerConnCount.Load()
}

// ============================================================================
// 连接关闭
// ============================================================================

// closeDeviceConn 关闭设备连接（通道关闭的唯一入口）
func (h *Hub) closeDeviceConn(conn *DeviceConn) {
	conn.CloseMu.Lock()
	defer conn.CloseMu.Unlock()

	// 标记为已关闭，防止其他goroutine继续发送
	if conn.IsClosed() {
		return
	}
	conn.MarkClosed()

	if conn.SendChan != nil {
		close(conn.SendChan)
	}
	if conn.Conn != nil {
		conn.Conn.Close()
	}
}

// closeObserverConn 关闭观察者连接
func (h *Hub) closeObserverConn(conn *ObserverConn) {
	conn.CloseMu.Lock()
	defer conn.CloseMu.Unlock()

	if conn.IsClosed() {
		return
	}
	conn.MarkClosed()

	if conn.SendChan != nil {
		close(conn.SendChan)
	}
	if conn.Conn != nil {
		conn.Conn.Close()
	}
}

// closeAllConnections 关闭所有连接（仅关闭流程调用）
func (h *Hub) closeAllConnections() {
	devices := h.GetDevicesCopy()
	observers := h.GetObserverConns("")

	for _, conn := range devices {
		h.removeDevice(conn)
	}
	for _, conn := range observers {
		h.removeObserver(conn)
	}
}
