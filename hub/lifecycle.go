/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-06 15:08:19
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-27 11:26:40
 * @FilePath: \go-dvh\hub\lifecycle.go
 * @Description: Hub 生命周期管理
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package hub

import (
	"time"

	"github.com/kamalyes/go-toolbox/pkg/mathx"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// Run 启动Hub（阻塞运行，直到context被取消）
func (h *Hub) Run() {
	h.wg.Add(1)
	defer h.wg.Done()

	// 使用 Console 分组记录 Hub 启动日志
	cg := h.logger.NewConsoleGroup()
	cg.Group("🚀 设备枢纽启动")

	startTimer := cg.Time("Hub 启动耗时")

	// 显示启动配置
	config := map[string]interface{}{
		"节点ID":   h.nodeID,
		"消息缓冲大小": h.config.MessageBufferSize,
		"心跳扫描间隔": h.config.HeartbeatInterval,
		"心跳超时窗口": h.config.ClientTimeout,
		"保活Ping": h.keepaliveInterval,
		"事件转发":   h.pubsub != nil,
	}
	cg.Table(config)

	// 设置已启动标志并通知等待的goroutine
	if h.started.CompareAndSwap(false, true) {
		startTimer.End()
		cg.Info("✅ Hub 启动成功")
		cg.GroupEnd()
		close(h.startCh)
	}

	// 使用 EventLoop 管理定时任务
	// 扫描间隔和保活间隔各自独立，保活Pong不影响心跳判定
	syncx.NewEventLoop(h.ctx).
		// 心跳扫描定时器：驱逐超过超时窗口未活跃的设备
		OnTicker(h.config.HeartbeatInterval, h.checkDeviceTimeout).
		// 保活Ping定时器：探测半开TCP连接
		OnTicker(h.keepaliveInterval, h.sendKeepalive).
		// Panic处理：捕获定时任务中的panic，防止整个Hub崩溃
		OnPanic(func(r interface{}) {
			h.logger.ErrorKV("Hub事件循环panic", "panic", r, "node_id", h.nodeID)
		}).
		// 优雅关闭：事件循环停止时记录日志
		OnShutdown(func() {
			h.logger.InfoKV("Hub事件循环已停止", "node_id", h.nodeID)
		}).
		Run()
}

// WaitForStart 等待Hub启动完成
func (h *Hub) WaitForStart() {
	<-h.startCh
}

// WaitForStartWithTimeout 带超时的等待Hub启动
func (h *Hub) WaitForStartWithTimeout(timeout time.Duration) error {
	select {
	case <-h.startCh:
		return nil
	case <-time.After(timeout):
		return ErrHubStartupTimeout
	}
}

// SafeShutdown 安全关闭Hub，确保所有操作完成
func (h *Hub) SafeShutdown() error {
	// 设置关闭标志（先标记避免新操作进入）
	if !h.shutdown.CompareAndSwap(false, true) {
		h.logger.Debug("Hub已经关闭，跳过重复关闭操作")
		return nil
	}

	// 使用 Console 分组记录关闭流程
	cg := h.logger.NewConsoleGroup()
	cg.Group("🛑 设备枢纽安全关闭流程")
	shutdownTimer := cg.Time("Hub 关闭耗时")

	cg.Info("开始安全关闭 Hub [节点: %s]", h.nodeID)

	// 记录关闭前连接数用于动态超时计算
	totalConns := h.deviceConnCount.Load() + h.observerConnCount.Load()

	// 关闭所有连接
	cg.Info("→ 关闭所有设备和观察者连接...")
	h.closeAllConnections()

	// 取消context（通知所有 goroutine 停止）
	cg.Info("→ 取消所有上下文...")
	h.cancel()

	// 等待一小段时间让goroutine有机会响应取消信号
	time.Sleep(10 * time.Millisecond)

	// 动态计算：基础超时 + (连接数 * 10ms)，但不超过最大超时
	baseTimeout := mathx.IfNotZero(h.config.ShutdownBaseTimeout, 5*time.Second)
	maxTimeout := mathx.IfNotZero(h.config.ShutdownMaxTimeout, 60*time.Second)

	calculatedTimeout := baseTimeout + time.Duration(totalConns)*10*time.Millisecond
	if calculatedTimeout > maxTimeout {
		calculatedTimeout = maxTimeout
	}

	// 等待所有goroutine完成，带超时保护
	cg.Info("→ 等待所有协程完成...")
	done := make(chan struct{})
	syncx.Go(h.ctx).
		OnPanic(func(r any) {
			h.logger.ErrorKV("WaitGroup等待崩溃", "panic", r)
		}).
		Exec(func() {
			h.wg.Wait()
			close(done)
		})

	select {
	case <-done:
		finalStats := map[string]any{
			"broadcasts_sent": h.broadcastsSent.Load(),
			"commands_sent":   h.commandsSent.Load(),
			"uptime_seconds":  int64(time.Since(h.startTime).Seconds()),
		}

		shutdownTimer.End()
		cg.Info("→ 显示最终统计...")
		cg.Table(finalStats)
		cg.Info("✅ Hub 安全关闭成功")
		cg.GroupEnd()
		return nil

	case <-time.After(calculatedTimeout):
		shutdownTimer.End()
		cg.Info("⚠️ Hub 关闭超时（超时时间: %v）", calculatedTimeout)
		cg.GroupEnd()
		return ErrHubShutdownTimeout
	}
}

// Shutdown 关闭Hub（旧API，兼容性方法）
func (h *Hub) Shutdown() {
	_ = h.SafeShutdown()
}

// ============================================================================
// 运行状态快照
// ============================================================================

// HubHealthInfo Hub健康状态快照
type HubHealthInfo struct {
	NodeID            string `json:"nodeId"`            // 节点ID
	Started           bool   `json:"started"`           // 是否已启动
	Shutdown          bool   `json:"shutdown"`          // 是否已关闭
	DeviceCount       int64  `json:"deviceCount"`       // 在线设备数
	ObserverCount     int    `json:"observerCount"`     // 在线观察者数（去重）
	ObserverConnCount int64  `json:"observerConnCount"` // 观察者连接总数
	BroadcastsSent    int64  `json:"broadcastsSent"`    // 累计广播次数
	CommandsSent      int64  `json:"commandsSent"`      // 累计指令派发数
	UptimeSeconds     int64  `json:"uptimeSeconds"`     // 运行时长（秒）
}

// GetHubHealth 获取Hub健康状态快照（监控端点数据源）
func (h *Hub) GetHubHealth() *HubHealthInfo {
	return &HubHealthInfo{
		NodeID:            h.nodeID,
		Started:           h.started.Load(),
		Shutdown:          h.shutdown.Load(),
		DeviceCount:       h.deviceConnCount.Load(),
		ObserverCount:     h.ObserverCount(),
		ObserverConnCount: h.observerConnCount.Load(),
		BroadcastsSent:    h.broadcastsSent.Load(),
		CommandsSent:      h.commandsSent.Load(),
		UptimeSeconds:     int64(time.Since(h.startTime).Seconds()),
	}
}
