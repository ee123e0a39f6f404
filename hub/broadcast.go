/*
 * @Author: kamalyes 501893067@qq.com
 * @Date: 2026-03-06 10:15:37
 * @LastEditors: kamalyes 501893067@qq.com
 * @LastEditTime: 2026-04-26 11:40:28
 * @FilePath: \go-dvh\hub\broadcast.go
 * @Description: Hub 事件广播 - 租户域内观察者扇出，单点失败互不影响
 *
 * Copyright (c) 2026 by kamalyes, All Rights Reserved.
 */

package hub

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kamalyes/go-dvh/models"
	"github.com/kamalyes/go-toolbox/pkg/contextx"
	"github.com/kamalyes/go-toolbox/pkg/errorx"
	"github.com/kamalyes/go-toolbox/pkg/syncx"
)

// PublishEvent 向匹配租户域的观察者广播事件，返回成功投递的连接数
//
// 同步扇出保证同一来源的事件按产生顺序到达每个观察者；
// 单个观察者投递失败只影响它自己，失败连接异步摘除
func (h *Hub) PublishEvent(event *Event) int {
	if event == nil {
		return 0
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	data, err := event.ToFrame().Encode()
	if err != nil {
		h.logger.ErrorKV("事件帧序列化失败",
			"event_type", event.Type.String(),
			"device_id", event.DeviceID,
			"error", err,
		)
		return 0
	}

	targets := h.GetObserverConns(event.TenantID)
	if len(targets) == 0 {
		h.republishEvent(event, data)
		return 0
	}

	var delivered atomic.Int32

	syncx.NewParallelSliceExecutor[*ObserverConn, error](targets).
		OnSuccess(func(idx int, conn *ObserverConn, result error) {
			delivered.Add(1)
		}).
		OnError(func(idx int, conn *ObserverConn, err error) {
			// 投递失败只影响该观察者，失败连接异步摘除
			h.logger.WarnKV("观察者事件投递失败",
				"observer_id", conn.ObserverID,
				"conn_id", conn.ConnID,
				"event_type", event.Type.String(),
				"error", err,
			)
			h.scheduleObserverRemoval(conn)
		}).
		OnPanic(func(idx int, conn *ObserverConn, panicVal any) {
			h.logger.WarnKV("观察者事件投递panic(通道可能已关闭)",
				"observer_id", conn.ObserverID,
				"conn_id", conn.ConnID,
				"panic", panicVal,
			)
		}).
		Execute(func(idx int, conn *ObserverConn) (error, error) {
			return nil, h.sendToObserverConn(conn, data)
		})

	h.broadcastsSent.Add(1)
	h.logger.DebugKV("📡 事件已广播",
		"event_type", event.Type.String(),
		"device_id", event.DeviceID,
		"tenant_id", event.TenantID,
		"targets", len(targets),
		"delivered", delivered.Load(),
	)

	h.republishEvent(event, data)
	return int(delivered.Load())
}

// sendToObserverConn 向单个观察者连接投递事件帧
func (h *Hub) sendToObserverConn(conn *ObserverConn, data []byte) error {
	if conn.IsClosed() {
		return ErrConnClosed
	}
	if !conn.TrySend(data) {
		return errorx.NewError(models.ErrTypeSendChannelFull, conn.ConnID)
	}
	return nil
}

// scheduleObserverRemoval 异步摘除投递失败的观察者连接
func (h *Hub) scheduleObserverRemoval(conn *ObserverConn) {
	syncx.Go().
		OnPanic(func(r any) {
			h.logger.ErrorKV("观察者摘除panic", "panic", r, "observer_id", conn.ObserverID)
		}).
		ExecWithContext(func(ctx context.Context) error {
			h.removeObserver(conn)
			return nil
		})
}

// SubscribeEvents 订阅事件转发频道（跨进程消费者入口）
// 回调在订阅goroutine中执行，返回的错误只记日志不中断订阅
func (h *Hub) SubscribeEvents(handler func(ctx context.Context, channel string, payload string) error) error {
	if h.pubsub == nil {
		return ErrPubSubNotSet
	}
	_, err := h.pubsub.Subscribe([]string{h.eventChannel}, func(subCtx context.Context, ch string, msg string) error {
		if err := handler(subCtx, ch, msg); err != nil {
			h.logger.WarnKV("事件订阅回调执行失败",
				"channel", ch,
				"error", err,
			)
		}
		return nil
	})
	return err
}

// republishEvent 将事件转发到PubSub频道，供跨进程消费者订阅
// 观察者派发永远走本地注册表，转发只是旁路（审计、大盘、第三方集成）
func (h *Hub) republishEvent(event *Event, data []byte) {
	if h.pubsub == nil {
		return
	}
	syncx.Go(contextx.OrBackground(h.ctx)).
		WithTimeout(3 * time.Second).
		OnError(func(err error) {
			h.logger.DebugKV("事件PubSub转发失败",
				"event_type", event.Type.String(),
				"channel", h.eventChannel,
				"error", err,
			)
		}).
		ExecWithContext(func(ctx context.Context) error {
			return h.pubsub.Publish(ctx, h.eventChannel, string(data))
		})
}
