/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-08 09:40:12
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-28 10:36:47
 * @FilePath: \go-dvh\client\agent.go
 * @Description: DeviceAgent 结构体及其方法 - 数字标牌终端侧接入代理
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */
package client

import (
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	wscconfig "github.com/kamalyes/go-config/pkg/wsc"
	"github.com/kamalyes/go-dvh/models"
	"github.com/kamalyes/go-toolbox/pkg/mathx"
	"github.com/kamalyes/go-toolbox/pkg/safe"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// 设备代理默认参数
const (
	// DefaultRegisterRetryInterval 注册重试间隔
	// 注册回执可能丢失或档案暂未登记，固定间隔重发直到收到REGISTERED
	DefaultRegisterRetryInterval = 3 * time.Second
	// DefaultAgentHeartbeatInterval 心跳上报间隔
	DefaultAgentHeartbeatInterval = 30 * time.Second
)

// agentMessage 发送通道中的出站消息
type agentMessage struct {
	T   int    // 消息类型
	Msg []byte // 消息内容
}

// DeviceAgent 设备接入代理
//
// 封装终端侧的完整接入生命周期：拨号、指数退避重连、
// 注册重试、周期心跳、下行指令帧分发
type DeviceAgent struct {
	mu           sync.Mutex                            // 互斥锁，用于保护并发访问
	Config       *wscconfig.WSC                        // 配置信息
	url          string                                // 服务端接入地址
	deviceID     string                                // 设备ID
	tenantID     string                                // 租户ID
	token        string                                // 注册凭据
	stateMachine *syncx.StateMachine[ConnectionStatus] // 连接状态机

	dialer        *websocket.Dialer // WebSocket 拨号器
	requestHeader http.Header       // 请求头

	conn        *websocket.Conn // 当前连接
	connMu      sync.RWMutex    // 连接状态锁
	isConnected bool            // 是否已连接
	sendMu      sync.Mutex      // 发送消息锁

	sendChan       chan *agentMessage // 发送消息缓冲池
	sendChanMu     sync.RWMutex       // 保护 sendChan 指针和关闭操作
	sendChanClosed int32              // 发送通道关闭标记（原子）
	sendChanOnce   sync.Once          // 只关闭一次

	registered            atomic.Bool   // 本连接是否已收到REGISTERED回执
	registerRetryInterval time.Duration // 注册重试间隔
	heartbeatInterval     time.Duration // 心跳上报间隔
	connEpoch             atomic.Int64  // 连接代数，旧连接的后台协程据此自杀

	// 连接相关的回调函数
	onConnected    atomic.Value // 连接成功回调 func()
	onConnectError atomic.Value // 连接错误回调 func(error)
	onDisconnected atomic.Value // 连接断开回调 func(error)

	// 协议相关的回调函数
	onRegistered    atomic.Value // 注册成功回调 func(deviceID string)
	onBlock         atomic.Value // 封禁指令回调 func(message string)
	onUnblock       atomic.Value // 解封指令回调 func()
	onContentUpdate atomic.Value // 内容刷新指令回调 func(action string)
	onServerError   atomic.Value // 服务端错误帧回调 func(message string)
}

// NewDeviceAgent 创建设备接入代理
// 参数 url: 服务端接入地址；deviceID: 设备ID
func NewDeviceAgent(url, deviceID string) *DeviceAgent {
	// 初始化状态机，配置允许的状态转换
	sm := syncx.NewStateMachine(ConnectionStatusDisconnected)
	sm.AllowTransitions(ConnectionStatusDisconnected, ConnectionStatusConnecting, ConnectionStatusReconnecting)
	sm.AllowTransitions(ConnectionStatusConnecting, ConnectionStatusConnected, ConnectionStatusDisconnected, ConnectionStatusError)
	sm.AllowTransitions(ConnectionStatusConnected, ConnectionStatusDisconnected, ConnectionStatusError)
	sm.AllowTransitions(ConnectionStatusReconnecting, ConnectionStatusConnected, ConnectionStatusDisconnected, ConnectionStatusError)
	sm.AllowTransitions(ConnectionStatusError, ConnectionStatusDisconnected, ConnectionStatusReconnecting)

	config := safe.MergeWithDefaults(nil, wscconfig.Default())

	return &DeviceAgent{
		Config:                config,
		url:                   url,
		deviceID:              deviceID,
		stateMachine:          sm,
		dialer:                websocket.DefaultDialer,
		requestHeader:         http.Header{},
		registerRetryInterval: DefaultRegisterRetryInterval,
		heartbeatInterval:     DefaultAgentHeartbeatInterval,
		sendChan:              make(chan *agentMessage, config.MessageBufferSize),
	}
}

// SetConfig 设置代理配置
func (a *DeviceAgent) SetConfig(config *wscconfig.WSC) {
	a.Config = config
}

// WithTenant 设置租户ID
func (a *DeviceAgent) WithTenant(tenantID string) *DeviceAgent {
	a.tenantID = tenantID
	return a
}

// WithToken 设置注册凭据
func (a *DeviceAgent) WithToken(token string) *DeviceAgent {
	a.token = token
	return a
}

// WithDialer 设置自定义的 WebSocket 拨号器
func (a *DeviceAgent) WithDialer(dialer *websocket.Dialer) *DeviceAgent {
	a.dialer = dialer
	return a
}

// WithRequestHeader 设置请求头
func (a *DeviceAgent) WithRequestHeader(header http.Header) *DeviceAgent {
	a.requestHeader = header
	return a
}

// WithRegisterRetryInterval 设置注册重试间隔
func (a *DeviceAgent) WithRegisterRetryInterval(interval time.Duration) *DeviceAgent {
	a.registerRetryInterval = mathx.IfNotZero(interval, DefaultRegisterRetryInterval)
	return a
}

// WithHeartbeatInterval 设置心跳上报间隔
func (a *DeviceAgent) WithHeartbeatInterval(interval time.Duration) *DeviceAgent {
	a.heartbeatInterval = mathx.IfNotZero(interval, DefaultAgentHeartbeatInterval)
	return a
}

// ============================================================================
// 回调设置
// ============================================================================

// OnConnected 设置连接成功的回调
func (a *DeviceAgent) OnConnected(f func()) {
	a.onConnected.Store(f)
}

// OnConnectError 设置连接出错的回调
func (a *DeviceAgent) OnConnectError(f func(err error)) {
	a.onConnectError.Store(f)
}

// OnDisconnected 设置连接断开的回调
func (a *DeviceAgent) OnDisconnected(f func(err error)) {
	a.onDisconnected.Store(f)
}

// OnRegistered 设置注册成功的回调
func (a *DeviceAgent) OnRegistered(f func(deviceID string)) {
	a.onRegistered.Store(f)
}

// OnBlock 设置封禁指令的回调
func (a *DeviceAgent) OnBlock(f func(message string)) {
	a.onBlock.Store(f)
}

// OnUnblock 设置解封指令的回调
func (a *DeviceAgent) OnUnblock(f func()) {
	a.onUnblock.Store(f)
}

// OnContentUpdate 设置内容刷新指令的回调
func (a *DeviceAgent) OnContentUpdate(f func(action string)) {
	a.onContentUpdate.Store(f)
}

// OnServerError 设置服务端错误帧的回调
func (a *DeviceAgent) OnServerError(f func(message string)) {
	a.onServerError.Store(f)
}

// ============================================================================
// 状态查询
// ============================================================================

// GetConnectionStatus 获取当前连接状态
func (a *DeviceAgent) GetConnectionStatus() ConnectionStatus {
	return a.stateMachine.CurrentState()
}

// IsConnected 检查是否已连接
func (a *DeviceAgent) IsConnected() bool {
	return a.stateMachine.CurrentState() == ConnectionStatusConnected
}

// IsRegistered 检查当前连接是否已完成注册
func (a *DeviceAgent) IsRegistered() bool {
	return a.registered.Load()
}

// Closed 返回连接是否处于断开状态
func (a *DeviceAgent) Closed() bool {
	return a.stateMachine.CurrentState() == ConnectionStatusDisconnected
}

// DeviceID 获取设备ID
func (a *DeviceAgent) DeviceID() string {
	return a.deviceID
}

// ============================================================================
// 上行帧发送
// ============================================================================

// SendFrame 发送入站帧到服务端
func (a *DeviceAgent) SendFrame(frame *InboundFrame) error {
	data, err := models.EncodeInboundFrame(frame)
	if err != nil {
		return err
	}
	return a.enqueue(websocket.TextMessage, data)
}

// SendHeartbeat 发送心跳帧
func (a *DeviceAgent) SendHeartbeat() error {
	return a.SendFrame(&InboundFrame{
		Type:     models.FrameHeartbeat,
		DeviceID: a.deviceID,
	})
}

// ReportPlayback 上报播放完成日志
func (a *DeviceAgent) ReportPlayback(contentID, campaignID string, duration int64, startTime, endTime *time.Time) error {
	return a.SendFrame(&InboundFrame{
		Type:       models.FramePlaybackLog,
		DeviceID:   a.deviceID,
		ContentID:  contentID,
		CampaignID: campaignID,
		Duration:   duration,
		StartTime:  startTime,
		EndTime:    endTime,
	})
}

// ReportStats 上报硬件指标快照
func (a *DeviceAgent) ReportStats(status string, stats *DeviceStats) error {
	return a.SendFrame(&InboundFrame{
		Type:     models.FrameDeviceStatus,
		DeviceID: a.deviceID,
		Status:   status,
		Stats:    stats,
	})
}

// ReportScreenshot 上报截图结果（base64编码）
func (a *DeviceAgent) ReportScreenshot(screenshot string) error {
	now := time.Now()
	return a.SendFrame(&InboundFrame{
		Type:       models.FrameScreenshotResult,
		DeviceID:   a.deviceID,
		Screenshot: screenshot,
		Timestamp:  &now,
	})
}

// enqueue 将消息放入发送缓冲池（非阻塞）
func (a *DeviceAgent) enqueue(messageType int, data []byte) error {
	if a.Closed() {
		return ErrConnectionClosed
	}
	// 读锁保护 sendChan 指针与关闭标志一致性
	a.sendChanMu.RLock()
	defer a.sendChanMu.RUnlock()
	if atomic.LoadInt32(&a.sendChanClosed) == 1 {
		return ErrConnectionClosed
	}
	select {
	case a.sendChan <- &agentMessage{T: messageType, Msg: data}:
		return nil
	default:
		return ErrMessageBufferFull
	}
}
