package transaction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/google/uuid"

	"github.com/chainorders/upwood-sub002/client/core/contract"
	"github.com/chainorders/upwood-sub002/client/core/transport"
	"github.com/chainorders/upwood-sub002/client/core/wallet"
	corelog "github.com/chainorders/upwood-sub002/internal/core/infrastructure/log"
	logInterface "github.com/chainorders/upwood-sub002/pkg/interfaces/infrastructure/log"
	"github.com/chainorders/upwood-sub002/pkg/types"
)

// DefaultPollInterval 默认状态轮询间隔
const DefaultPollInterval = 500 * time.Millisecond

var (
	// ErrBusy 当前尝试尚未确认，不能再次提交
	ErrBusy = errors.New("transaction already in progress")

	// ErrClosed Submitter 已关闭
	ErrClosed = errors.New("submitter closed")

	// ErrInvalidRequest 请求不完整
	ErrInvalidRequest = errors.New("invalid transaction request")

	// ErrAbandoned 钱包交互期间被 Acknowledge，交易已发出但不再跟踪
	ErrAbandoned = errors.New("transaction abandoned before tracking")
)

// Request 一次合约交易请求
type Request struct {
	// Account 发起账户
	Account string
	// Method 入口描述；receive 需要 Contract，init 使用 Method 的模块引用
	Method *contract.Method
	// Contract 目标合约（仅 receive）
	Contract types.ContractAddress
	// Amount 附带的原生币数量（最小单位）
	Amount uint64
	// Params JSON 形态或可 JSON 编码的参数；nil 表示无参数
	Params any
	// OnSuccess 交易成功确定后回调（例如读取新合约地址）
	OnSuccess func(summary *transport.BlockItemSummary)
}

// Option Submitter 选项
type Option func(*Submitter)

// WithPollInterval 设置轮询间隔
func WithPollInterval(d time.Duration) Option {
	return func(s *Submitter) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(s *Submitter) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// attempt 一次提交尝试的轮询生命周期
//
// ctx 与 cancel 在创建时确定；polling 由 Submitter.mu 保护，sentAt 在轮询开始前写入。
type attempt struct {
	id      uuid.UUID
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	polling bool
	sentAt  time.Time
}

// subscription 一个状态订阅；removed 由 subsMu 保护
type subscription struct {
	topic   string
	fn      func(State)
	handler func(State)
	removed bool
}

// Submitter 驱动单个交易状态机
//
// 状态变化通过 Subscribe 推送，按订阅顺序在状态变化所在的 goroutine 中同步执行。
// 回调内可以取消自己的订阅，但不得同步调用 Submit/Acknowledge/Close。
type Submitter struct {
	wallet   wallet.Wallet
	node     transport.Node
	interval time.Duration
	logger   logInterface.Logger

	mu      sync.Mutex
	state   State
	current *attempt
	closed  bool

	bus    evbus.Bus
	subsMu sync.Mutex
	subs   []*subscription
	// stale 已取消但尚未从 bus 移除的订阅
	stale []*subscription
}

// NewSubmitter 创建交易提交器，初始状态为 Init
func NewSubmitter(w wallet.Wallet, node transport.Node, opts ...Option) *Submitter {
	s := &Submitter{
		wallet:   w,
		node:     node,
		interval: DefaultPollInterval,
		state:    State{Phase: PhaseInit},
		bus:      evbus.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = corelog.NewModuleLogger(corelog.GetLogger(), "tx")
	}
	return s
}

// State 当前状态快照
func (s *Submitter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe 订阅状态变化，返回取消订阅函数
func (s *Submitter) Subscribe(fn func(State)) (unsubscribe func()) {
	sub := &subscription{topic: "state:" + uuid.NewString(), fn: fn}
	sub.handler = func(st State) {
		s.subsMu.Lock()
		removed := sub.removed
		s.subsMu.Unlock()
		if !removed {
			sub.fn(st)
		}
	}
	if err := s.bus.Subscribe(sub.topic, sub.handler); err != nil {
		s.logger.Warnf("subscribe state handler: %v", err)
		return func() {}
	}
	s.subsMu.Lock()
	s.subs = append(s.subs, sub)
	s.subsMu.Unlock()

	// 回调执行期间 bus 锁被持有，这里只做标记，bus 注销推迟到下一次 publish 或 Close
	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		if sub.removed {
			return
		}
		sub.removed = true
		for i, cur := range s.subs {
			if cur == sub {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				break
			}
		}
		s.stale = append(s.stale, sub)
	}
}

func (s *Submitter) publish(st State) {
	s.subsMu.Lock()
	live := append([]*subscription(nil), s.subs...)
	stale := s.stale
	s.stale = nil
	s.subsMu.Unlock()

	for _, sub := range stale {
		_ = s.bus.Unsubscribe(sub.topic, sub.handler)
	}
	for _, sub := range live {
		s.bus.Publish(sub.topic, st)
	}
}

// Submit 序列化参数并通过钱包提交交易
//
// 只能在 Init 阶段调用。参数编码失败或钱包失败时保持 Init（钱包错误记录在 State.Err）。
// 成功后进入 Sent(Received) 并开始轮询，返回交易哈希。
func (s *Submitter) Submit(ctx context.Context, req *Request) (string, error) {
	kind, payload, err := BuildPayload(req)
	if err != nil {
		submissionsTotal.WithLabelValues("codec_error").Inc()
		return "", err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", ErrClosed
	}
	if s.state.Phase != PhaseInit || s.current != nil {
		s.mu.Unlock()
		return "", ErrBusy
	}
	// 占位，防止钱包交互期间的并发提交；轮询 ctx 不随调用方取消
	pollCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a := &attempt{id: uuid.New(), ctx: pollCtx, cancel: cancel, done: make(chan struct{})}
	s.current = a
	s.mu.Unlock()

	hash, err := s.wallet.SendTransaction(ctx, req.Account, kind, payload, req.Method.ParamsSchemaBase64())
	if err != nil {
		submissionsTotal.WithLabelValues("wallet_error").Inc()
		s.logger.Warnf("send %s failed: %v", req.Method, err)
		cancel()
		s.mu.Lock()
		owned := s.current == a && !s.closed
		if owned {
			s.current = nil
			s.state = State{Phase: PhaseInit, Err: err}
		}
		st := s.state
		s.mu.Unlock()
		close(a.done)
		if owned {
			s.publish(st)
		}
		return "", err
	}
	submissionsTotal.WithLabelValues("sent").Inc()
	s.logger.Infof("sent %s hash=%s attempt=%s", req.Method, hash, a.id)

	s.mu.Lock()
	if s.closed || s.current != a {
		// 钱包交互期间发生了 Close 或 Acknowledge：不再开始轮询
		closed := s.closed
		s.mu.Unlock()
		cancel()
		close(a.done)
		if closed {
			return hash, ErrClosed
		}
		s.logger.Warnf("attempt %s acknowledged before tracking, hash=%s", a.id, hash)
		return hash, ErrAbandoned
	}
	a.polling = true
	a.sentAt = time.Now()
	s.state = State{Phase: PhaseSent, AttemptID: a.id, Hash: hash, Status: transport.StatusReceived}
	st := s.state
	s.mu.Unlock()

	s.publish(st)
	go s.poll(a, hash, req)
	return hash, nil
}

// poll 顺序轮询：上一次查询返回后才安排下一次
func (s *Submitter) poll(a *attempt, hash string, req *Request) {
	defer close(a.done)

	ctx := a.ctx
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		status, err := s.node.GetBlockItemStatus(ctx, hash)
		if ctx.Err() != nil {
			return
		}
		if err == nil && status == nil {
			err = fmt.Errorf("%w: %s", transport.ErrNotFound, hash)
		}
		if err != nil {
			pollErrorsTotal.Inc()
			s.logger.Warnf("poll %s failed, stop polling: %v", hash, err)
			s.update(a, func(st *State) bool {
				st.Err = err
				return true
			})
			return
		}
		pollsTotal.WithLabelValues(string(status.Status)).Inc()

		switch status.Status {
		case transport.StatusReceived, transport.StatusCommitted:
			s.update(a, func(st *State) bool {
				if st.Status == status.Status {
					return false
				}
				st.Status = status.Status
				return true
			})
		case transport.StatusFinalized:
			outcome := Classify(req.Method, status.Outcome)
			finalizedTotal.WithLabelValues(outcome.Kind.String()).Inc()
			finalizationSeconds.Observe(time.Since(a.sentAt).Seconds())
			s.logger.Infof("finalized %s hash=%s outcome=%s %s", req.Method, hash, outcome.Kind, outcome.Message)

			applied := s.update(a, func(st *State) bool {
				st.Phase = PhaseFinalized
				st.Status = transport.StatusFinalized
				st.Outcome = outcome
				return true
			})
			if applied && outcome.Succeeded() && req.OnSuccess != nil {
				req.OnSuccess(outcome.Summary)
			}
			return
		default:
			err := fmt.Errorf("unknown block item status %q", status.Status)
			pollErrorsTotal.Inc()
			s.update(a, func(st *State) bool {
				st.Err = err
				return true
			})
			return
		}

		timer.Reset(s.interval)
	}
}

// update 仅当 a 仍是当前尝试时修改状态，有变化时发布
func (s *Submitter) update(a *attempt, mutate func(*State) bool) bool {
	s.mu.Lock()
	if s.current != a || s.closed {
		s.mu.Unlock()
		return false
	}
	if !mutate(&s.state) {
		s.mu.Unlock()
		return false
	}
	st := s.state
	s.mu.Unlock()
	s.publish(st)
	return true
}

// Acknowledge 确认结果：停止轮询并重置为 Init
//
// 钱包交互尚未返回时同样立即重置，该尝试随后不会开始轮询。
func (s *Submitter) Acknowledge() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	a, polling := s.detachLocked()
	changed := s.state.Phase != PhaseInit || s.state.Err != nil
	s.state = State{Phase: PhaseInit}
	st := s.state
	s.mu.Unlock()

	if polling {
		<-a.done
	}
	if changed {
		s.publish(st)
	}
}

// Wait 阻塞直到当前轮询结束（最终确定、轮询失败或被取消）
func (s *Submitter) Wait(ctx context.Context) (State, error) {
	s.mu.Lock()
	a := s.current
	s.mu.Unlock()
	if a == nil {
		return s.State(), nil
	}
	select {
	case <-a.done:
		return s.State(), nil
	case <-ctx.Done():
		return s.State(), ctx.Err()
	}
}

// Close 拆除：停止轮询，之后不会再发生任何查询或状态推送
func (s *Submitter) Close() {
	s.mu.Lock()
	s.closed = true
	a, polling := s.detachLocked()
	s.mu.Unlock()
	if polling {
		<-a.done
	}

	s.subsMu.Lock()
	subs := append(s.subs, s.stale...)
	for _, sub := range subs {
		sub.removed = true
	}
	s.subs, s.stale = nil, nil
	s.subsMu.Unlock()
	for _, sub := range subs {
		_ = s.bus.Unsubscribe(sub.topic, sub.handler)
	}
}

// detachLocked 取消并解除当前尝试，返回是否需要等待轮询 goroutine 退出。
// 调用方持有 s.mu。
func (s *Submitter) detachLocked() (*attempt, bool) {
	a := s.current
	if a == nil {
		return nil, false
	}
	s.current = nil
	a.cancel()
	return a, a.polling
}

// BuildPayload 把请求转换为钱包交易载荷（包含参数序列化）
func BuildPayload(req *Request) (wallet.TransactionKind, *wallet.Payload, error) {
	if req == nil || req.Method == nil {
		return "", nil, fmt.Errorf("%w: missing method", ErrInvalidRequest)
	}
	param, err := contract.SerializeParams(req.Method, req.Params)
	if err != nil {
		return "", nil, err
	}
	payload := &wallet.Payload{
		Amount:    transport.Uint64(req.Amount),
		MaxEnergy: transport.Uint64(req.Method.MaxEnergy()),
		Param:     param,
	}
	if req.Method.Kind() == contract.KindInit {
		payload.ModuleRef = req.Method.ModuleRef()
		payload.InitName = req.Method.InitName()
		return wallet.KindInitContract, payload, nil
	}
	addr := req.Contract
	payload.Address = &addr
	payload.ReceiveName = req.Method.ReceiveName()
	return wallet.KindUpdate, payload, nil
}

// SendAndWait 阻塞式提交：钱包提交后直接等待节点确定，不产生中间状态
func SendAndWait(ctx context.Context, w wallet.Wallet, node transport.Node, req *Request) (string, *Outcome, error) {
	kind, payload, err := BuildPayload(req)
	if err != nil {
		return "", nil, err
	}
	hash, err := w.SendTransaction(ctx, req.Account, kind, payload, req.Method.ParamsSchemaBase64())
	if err != nil {
		return "", nil, err
	}
	summary, err := node.WaitForTransactionFinalization(ctx, hash)
	if err != nil {
		return hash, nil, fmt.Errorf("wait for %s: %w", hash, err)
	}
	outcome := Classify(req.Method, summary)
	if outcome.Succeeded() && req.OnSuccess != nil {
		req.OnSuccess(summary)
	}
	return hash, outcome, nil
}
