/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-04 09:10:22
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-22 14:48:37
 * @FilePath: \go-dvh\hub\hub.go
 * @Description: Hub 核心结构和类型定义
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package hub

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kamalyes/go-cachex"
	wscconfig "github.com/kamalyes/go-config/pkg/wsc"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"github.com/kamalyes/go-toolbox/pkg/idgen"
	"github.com/kamalyes/go-toolbox/pkg/mathx"
	"github.com/kamalyes/go-toolbox/pkg/osx"
	"github.com/kamalyes/go-toolbox/pkg/safe"

	"github.com/kamalyes/go-dvh/middleware"
	"github.com/kamalyes/go-dvh/models"
	"github.com/kamalyes/go-dvh/repository"
)

// ============================================================================
// 类型别名 - 从 models repository middleware 包导入
// ============================================================================

type (
	Device                 = models.Device
	DeviceConn             = models.DeviceConn
	ObserverConn           = models.ObserverConn
	DeviceStats            = models.DeviceStats
	Event                  = models.Event
	Command                = models.Command
	CommandType            = models.CommandType
	InboundFrame           = models.InboundFrame
	DeviceFrame            = models.DeviceFrame
	ObserverFrame          = models.ObserverFrame
	FrameKind              = models.FrameKind
	DeviceStatus           = models.DeviceStatus
	LogEventType           = models.LogEventType
	SessionState           = models.SessionState
	DisconnectReason       = models.DisconnectReason
	IDGenerator            = models.IDGenerator
	DVHLogger              = middleware.DVHLogger
	DeviceRepository       = repository.DeviceRepository
	OnlineStatusRepository = repository.OnlineStatusRepository
	OnlineDeviceInfo       = repository.OnlineDeviceInfo
	ErrorType              = errorx.ErrorType
)

// 函数导入
var (
	InitLogger                 = middleware.InitLogger
	IsRetryableError           = models.IsRetryableError
	IsDeviceNotFoundError      = models.IsDeviceNotFoundError
	IsSendFailureError         = models.IsSendFailureError
	NewDeviceConn              = models.NewDeviceConn
	NewObserverConn            = models.NewObserverConn
	NewDeviceOnlineEvent       = models.NewDeviceOnlineEvent
	NewDeviceOfflineEvent      = models.NewDeviceOfflineEvent
	NewDeviceRegisteredEvent   = models.NewDeviceRegisteredEvent
	NewDeviceStatusUpdateEvent = models.NewDeviceStatusUpdateEvent
	NewPlaybackUpdateEvent     = models.NewPlaybackUpdateEvent
	NewScreenshotReadyEvent    = models.NewScreenshotReadyEvent
	NewBlockCommand            = models.NewBlockCommand
	NewUnblockCommand          = models.NewUnblockCommand
	NewRefreshContentCommand   = models.NewRefreshContentCommand
)

// 错误常量
var (
	ErrHubStartupTimeout  = models.ErrHubStartupTimeout
	ErrHubShutdownTimeout = models.ErrHubShutdownTimeout
	ErrHubNotRunning      = models.ErrHubNotRunning
	ErrConnClosed         = models.ErrConnClosed
	ErrSendChannelFull    = models.ErrSendChannelFull
	ErrPubSubNotSet       = models.ErrPubSubNotSet
)

// DisconnectReason 常量
const (
	DisconnectReasonReadError      = models.DisconnectReasonReadError
	DisconnectReasonWriteError     = models.DisconnectReasonWriteError
	DisconnectReasonTimeout        = models.DisconnectReasonTimeout
	DisconnectReasonReplaced       = models.DisconnectReasonReplaced
	DisconnectReasonClientRequest  = models.DisconnectReasonClientRequest
	DisconnectReasonServerShutdown = models.DisconnectReasonServerShutdown
)

// DeviceStatus 常量
const (
	DeviceStatusOnline  = models.DeviceStatusOnline
	DeviceStatusOffline = models.DeviceStatusOffline
	DeviceStatusBlocked = models.DeviceStatusBlocked
)

// 默认配置
const (
	// DefaultScanInterval 心跳扫描默认间隔
	DefaultScanInterval = 60 * time.Second
	// DefaultStaleTimeout 心跳超时默认窗口
	DefaultStaleTimeout = 5 * time.Minute
	// DefaultKeepaliveInterval 保活Ping默认间隔
	DefaultKeepaliveInterval = 30 * time.Second
	// DefaultEventChannel 事件转发PubSub默认频道
	DefaultEventChannel = "dvh:events"
)

// ============================================================================
// 回调函数类型
// ============================================================================

type (
	// RegisterVerifier 注册校验钩子
	// 返回非nil错误时拒绝注册，连接保持打开允许重试
	RegisterVerifier func(ctx context.Context, frame *InboundFrame) error
	// DeviceConnectCallback 设备注册成功回调
	DeviceConnectCallback func(ctx context.Context, conn *DeviceConn) error
	// DeviceDisconnectCallback 设备断开回调
	DeviceDisconnectCallback func(ctx context.Context, conn *DeviceConn, reason DisconnectReason) error
	// HeartbeatTimeoutCallback 心跳超时驱逐回调
	HeartbeatTimeoutCallback func(deviceID string, lastSeen time.Time)
)

// ============================================================================
// Hub 核心结构
// ============================================================================

// Hub 设备接入管理中心
//
// 注册表是指令可达性的唯一事实来源，所有读写都在内部锁下完成，
// 持久化状态和Redis投影只是它的最终一致影子
type Hub struct {
	nodeID    string
	workerID  int64
	startTime time.Time

	// 设备注册表：deviceId → 活动连接（每设备最多一条）
	devices map[string]*DeviceConn
	// 观察者注册表：observerId → connId → 活动连接（允许多端）
	observers map[string]map[string]*ObserverConn

	// 原子计数器：用于快速获取连接数，避免加锁
	deviceConnCount   atomic.Int64
	observerConnCount atomic.Int64
	broadcastsSent    atomic.Int64
	commandsSent      atomic.Int64

	deviceRepo  DeviceRepository
	onlineRepo  OnlineStatusRepository
	idGenerator IDGenerator

	// 📡 事件转发（跨进程消费者，非跨节点派发）
	pubsub       *cachex.PubSub
	eventChannel string

	verifier                 RegisterVerifier
	deviceConnectCallback    DeviceConnectCallback
	deviceDisconnectCallback DeviceDisconnectCallback
	heartbeatTimeoutCallback HeartbeatTimeoutCallback

	keepaliveInterval time.Duration

	wg       sync.WaitGroup
	shutdown atomic.Bool
	started  atomic.Bool
	startCh  chan struct{}

	logger DVHLogger
	mutex  sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	config *wscconfig.WSC
}

// NewHub 创建新的Hub
func NewHub(config *wscconfig.WSC) *Hub {
	ctx, cancel := context.WithCancel(context.Background())

	// 生成节点ID（支持K8s环境），统一使用短哈希格式
	nodeID := safe.ShortHash(generateNodeID(config))

	workerID := osx.GetWorkerIdForSnowflake()
	idGenerator := idgen.NewShortFlakeGenerator(workerID)

	// 设置默认值
	config.MessageBufferSize = mathx.IfEmpty(config.MessageBufferSize, 1024)
	config.HeartbeatInterval = mathx.IfNotZero(config.HeartbeatInterval, DefaultScanInterval)
	config.ClientTimeout = mathx.IfNotZero(config.ClientTimeout, DefaultStaleTimeout)

	hub := &Hub{
		nodeID:            nodeID,
		workerID:          workerID,
		idGenerator:       idGenerator,
		startTime:         time.Now(),
		devices:           make(map[string]*DeviceConn),
		observers:         make(map[string]map[string]*ObserverConn),
		keepaliveInterval: DefaultKeepaliveInterval,
		eventChannel:      DefaultEventChannel,
		ctx:               ctx,
		cancel:            cancel,
		startCh:           make(chan struct{}),
		config:            config,
		logger:            InitLogger(config),
	}
	return hub
}

// ============================================================================
// 基础 Getter/Setter 方法
// ============================================================================

func (h *Hub) GetNodeID() string           { return h.nodeID }
func (h *Hub) GetWorkerID() int64          { return h.workerID }
func (h *Hub) GetIDGenerator() IDGenerator { return h.idGenerator }
func (h *Hub) GetLogger() DVHLogger        { return h.logger }
func (h *Hub) GetContext() context.Context { return h.ctx }
func (h *Hub) IsStarted() bool             { return h.started.Load() }
func (h *Hub) IsShutdown() bool            { return h.shutdown.Load() }
func (h *Hub) GetConfig() *wscconfig.WSC   { return h.config }
func (h *Hub) Context() context.Context    { return h.ctx }

func (h *Hub) SetIDGenerator(generator IDGenerator) {
	h.idGenerator = generator
	h.logger.InfoKV("ID生成器已设置", "generator_type", "idgen")
}

func (h *Hub) SetDeviceRepository(repo DeviceRepository) {
	h.deviceRepo = repo
}

func (h *Hub) GetDeviceRepository() DeviceRepository {
	return h.deviceRepo
}

func (h *Hub) SetOnlineStatusRepository(repo OnlineStatusRepository) {
	h.onlineRepo = repo
}

func (h *Hub) GetOnlineStatusRepo() OnlineStatusRepository {
	return h.onlineRepo
}

func (h *Hub) SetPubSub(pubsub *cachex.PubSub) {
	h.pubsub = pubsub
	h.logger.InfoKV("PubSub已设置", "enabled", true, "channel", h.eventChannel)
}

func (h *Hub) GetPubSub() *cachex.PubSub {
	return h.pubsub
}

// SetEventChannel 设置事件转发频道名
func (h *Hub) SetEventChannel(channel string) {
	h.eventChannel = mathx.IfEmpty(channel, DefaultEventChannel)
}

// SetRegisterVerifier 设置注册校验钩子
func (h *Hub) SetRegisterVerifier(verifier RegisterVerifier) {
	h.verifier = verifier
}

// OnDeviceConnect 设置设备注册成功回调
func (h *Hub) OnDeviceConnect(callback DeviceConnectCallback) {
	h.deviceConnectCallback = callback
}

// OnDeviceDisconnect 设置设备断开回调
func (h *Hub) OnDeviceDisconnect(callback DeviceDisconnectCallback) {
	h.deviceDisconnectCallback = callback
}

// OnHeartbeatTimeout 设置心跳超时驱逐回调
func (h *Hub) OnHeartbeatTimeout(callback HeartbeatTimeoutCallback) {
	h.heartbeatTimeoutCallback = callback
}

// SetHeartbeatConfig 设置心跳配置
// interval: 扫描间隔，默认60秒
// timeout: 心跳超时窗口，默认5分钟
func (h *Hub) SetHeartbeatConfig(interval, timeout time.Duration) {
	h.config.HeartbeatInterval = interval
	h.config.ClientTimeout = timeout
}

// SetKeepaliveInterval 设置保活Ping间隔，默认30秒
func (h *Hub) SetKeepaliveInterval(interval time.Duration) {
	h.keepaliveInterval = mathx.IfNotZero(interval, DefaultKeepaliveInterval)
}

// ============================================================================
// K8s 兼容的节点ID生成
// ============================================================================

// generateNodeID 生成节点ID（支持K8s环境）
// 优先级：
// 1. 环境变量 POD_NAME（K8s推荐）
// 2. 环境变量 HOSTNAME（容器环境）
// 3. 环境变量 NODE_ID（自定义）
// 4. IP:Port（传统方式）
func generateNodeID(config *wscconfig.WSC) string {
	// 1. 优先使用 K8s Pod Name
	if podName := osx.Getenv("POD_NAME", ""); podName != "" {
		return podName
	}

	// 2. 使用 Hostname（容器环境）
	if hostname := osx.Getenv("HOSTNAME", ""); hostname != "" {
		return hostname
	}

	// 3. 使用自定义 NODE_ID
	if nodeID := osx.Getenv("NODE_ID", ""); nodeID != "" {
		return nodeID
	}

	// 4. 回退到 IP:Port（传统方式）
	return fmt.Sprintf("%s-%d", config.NodeIP, config.NodePort)
}
