/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-08 10:22:48
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-28 11:50:33
 * @FilePath: \go-dvh\client\connection.go
 * @Description: 设备代理连接管理 - 指数退避重连、注册重试、周期心跳
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package client

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jpillora/backoff"
	"github.com/kamalyes/go-dvh/models"
)

// Connect 发起连接（阻塞直到首次连接成功）
// 连接失败按指数退避重试，成功后自动进入注册重试流程
func (a *DeviceAgent) Connect() {
	// 转换到连接中状态
	if err := a.stateMachine.TransitionTo(ConnectionStatusConnecting); err != nil {
		a.handleConnectError(err)
		return
	}

	a.initSendChannel()
	b := a.createBackoff()
	for {
		nextRec := b.Duration()
		if err := a.attemptConnection(); err != nil {
			_ = a.stateMachine.TransitionTo(ConnectionStatusError)
			a.handleConnectError(err)
			time.Sleep(nextRec)
			_ = a.stateMachine.TransitionTo(ConnectionStatusReconnecting)
			continue
		}
		a.onConnectionSuccess()
		return
	}
}

// initSendChannel 初始化/重置发送通道以及其关闭控制结构（支持断线重连后的再次关闭）
func (a *DeviceAgent) initSendChannel() {
	a.sendChanMu.Lock()
	a.sendChan = make(chan *agentMessage, a.Config.MessageBufferSize)
	a.sendChanOnce = sync.Once{}
	atomic.StoreInt32(&a.sendChanClosed, 0)
	a.sendChanMu.Unlock()
}

// createBackoff 创建指数退避策略，用于连接重试
func (a *DeviceAgent) createBackoff() *backoff.Backoff {
	return &backoff.Backoff{
		Min:    a.Config.MinRecTime,
		Max:    a.Config.MaxRecTime,
		Factor: a.Config.RecFactor,
		Jitter: true,
	}
}

// attemptConnection 尝试建立连接
func (a *DeviceAgent) attemptConnection() error {
	conn, _, err := a.dialer.Dial(a.url, a.requestHeader)
	if err != nil {
		return err
	}
	a.connMu.Lock()
	a.conn = conn
	a.isConnected = true
	a.connMu.Unlock()
	return nil
}

// handleConnectError 处理连接错误
func (a *DeviceAgent) handleConnectError(err error) {
	if f := a.onConnectError.Load(); f != nil {
		f.(func(error))(err)
	}
}

// onConnectionSuccess 连接成功后的处理
func (a *DeviceAgent) onConnectionSuccess() {
	epoch := a.connEpoch.Add(1)
	a.registered.Store(false)

	_ = a.stateMachine.TransitionTo(ConnectionStatusConnected)
	if f := a.onConnected.Load(); f != nil {
		f.(func())()
	}

	a.connMu.RLock()
	conn := a.conn
	a.connMu.RUnlock()
	conn.SetReadLimit(a.Config.MaxMessageSize)

	// 启动读写协程和注册重试协程
	go a.readMessages(epoch)
	go a.writeMessages()
	go a.registerLoop(epoch)
}

// ============================================================================
// 注册与心跳
// ============================================================================

// registerLoop 注册重试循环
// 立即发送注册帧，此后按固定间隔重发，直到收到REGISTERED或连接翻代
func (a *DeviceAgent) registerLoop(epoch int64) {
	ticker := time.NewTicker(a.registerRetryInterval)
	defer ticker.Stop()

	a.sendRegister()
	for range ticker.C {
		if a.connEpoch.Load() != epoch || a.registered.Load() {
			return
		}
		a.sendRegister()
	}
}

// sendRegister 发送注册帧
func (a *DeviceAgent) sendRegister() {
	_ = a.SendFrame(&InboundFrame{
		Type:     models.FrameDeviceRegister,
		DeviceID: a.deviceID,
		TenantID: a.tenantID,
		Token:    a.token,
	})
}

// heartbeatLoop 心跳上报循环，注册成功后启动
func (a *DeviceAgent) heartbeatLoop(epoch int64) {
	ticker := time.NewTicker(a.heartbeatInterval)
	defer ticker.Stop()

	for range ticker.C {
		if a.connEpoch.Load() != epoch || !a.IsConnected() {
			return
		}
		_ = a.SendHeartbeat()
	}
}

// ============================================================================
// 读写协程
// ============================================================================

// readMessages 读消息协程
func (a *DeviceAgent) readMessages(epoch int64) {
	a.connMu.RLock()
	conn := a.conn
	a.connMu.RUnlock()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			a.handleReadError(err)
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		a.routeFrame(epoch, message)
	}
}

// routeFrame 分发服务端下行帧
func (a *DeviceAgent) routeFrame(epoch int64, data []byte) {
	frame, err := models.DecodeDeviceFrame(data)
	if err != nil {
		// 无法解析的帧直接忽略
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch frame.Type {
	case models.FrameConnected:
		// 连接确认帧，注册由registerLoop负责

	case models.FrameRegistered:
		// 幂等：重复回执只触发一次注册成功流程
		if a.registered.CompareAndSwap(false, true) {
			go a.heartbeatLoop(epoch)
			if f := a.onRegistered.Load(); f != nil {
				f.(func(string))(frame.DeviceID)
			}
		}

	case models.FrameHeartbeatAck:
		// 心跳确认，无需处理

	case models.FrameBlockDevice:
		if f := a.onBlock.Load(); f != nil {
			f.(func(string))(frame.Message)
		}

	case models.FrameUnblockDevice:
		if f := a.onUnblock.Load(); f != nil {
			f.(func())()
		}

	case models.FrameContentUpdate:
		if f := a.onContentUpdate.Load(); f != nil {
			f.(func(string))(frame.Action)
		}

	case models.FrameError:
		if f := a.onServerError.Load(); f != nil {
			f.(func(string))(frame.Message)
		}
	}
}

// handleReadError 处理读取消息时的错误
func (a *DeviceAgent) handleReadError(err error) {
	// 异常断线，通知断线回调
	if f := a.onDisconnected.Load(); f != nil {
		f.(func(error))(err)
	}
	// 根据配置决定是否重连
	if a.Config == nil || a.Config.AutoReconnect {
		a.closeAndRecConn()
	} else {
		a.clean()
	}
}

// writeMessages 写消息协程
// 不断从发送缓冲池中读取消息并写入连接
func (a *DeviceAgent) writeMessages() {
	// 捕获当前的 sendChan 引用（读锁保护期间读取）
	a.sendChanMu.RLock()
	sendChan := a.sendChan
	a.sendChanMu.RUnlock()

	for msg := range sendChan {
		if err := a.send(msg.T, msg.Msg); err != nil {
			continue // 发送失败丢弃，继续处理下一个消息
		}
		if msg.T == websocket.CloseMessage {
			return
		}
	}
}

// send 发送消息到连接端
func (a *DeviceAgent) send(messageType int, data []byte) error {
	a.sendMu.Lock()
	defer a.sendMu.Unlock()

	// 使用读锁保护连接状态和 conn 的访问
	a.connMu.RLock()
	if !a.isConnected {
		a.connMu.RUnlock()
		return ErrConnectionClosed
	}
	conn := a.conn
	a.connMu.RUnlock()

	_ = conn.SetWriteDeadline(time.Now().Add(a.Config.WriteTimeout))
	return conn.WriteMessage(messageType, data)
}

// ============================================================================
// 关闭与重连
// ============================================================================

// CloseAndReconnect 处理断线重连
func (a *DeviceAgent) CloseAndReconnect() {
	if a.Closed() {
		return
	}
	a.clean()
	go a.Connect()
}

// closeAndRecConn 内部方法，调用公有方法
func (a *DeviceAgent) closeAndRecConn() {
	a.CloseAndReconnect()
}

// Close 主动关闭连接（不触发重连）
func (a *DeviceAgent) Close() {
	if a.Closed() {
		return
	}
	_ = a.send(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	a.clean()
}

// clean 清理资源
func (a *DeviceAgent) clean() {
	a.mu.Lock()
	defer a.mu.Unlock()

	// 先转换状态为Disconnected，确保Closed()立即返回true
	_ = a.stateMachine.TransitionTo(ConnectionStatusDisconnected)
	// 连接翻代，旧连接的注册/心跳协程退出
	a.connEpoch.Add(1)
	a.registered.Store(false)

	a.connMu.Lock()
	a.isConnected = false
	if a.conn != nil {
		_ = a.conn.Close()
	}
	// 原子关闭 sendChan（写锁保护）
	a.sendChanMu.Lock()
	a.sendChanOnce.Do(func() {
		atomic.StoreInt32(&a.sendChanClosed, 1)
		close(a.sendChan)
	})
	a.sendChanMu.Unlock()
	a.connMu.Unlock()
}
