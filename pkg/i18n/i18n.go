package i18n

import (
	"reflect"
	"sync"
)

// Language type
type Language string

const (
	LangEN Language = "en"
	LangZH Language = "zh"
)

// Messages holds all translatable strings
type Messages struct {
	// System
	Starting         string
	ConfigLoaded     string
	ConfigInvalid    string
	SymbolTracked    string
	GatewaySelected  string
	JournalOpened    string
	JournalDisabled  string
	JournalFailed    string
	ServerListening  string
	APIServerError   string
	ShuttingDown     string
	Stopped          string
	TimeSyncFailed   string
	KeyringLoadError string

	// Setup
	SetupApplied string
	SetupIgnored string

	// Scheduler
	JobStarted string
	JobStopped string
	JobPanic   string
	TickFailed string

	// Entry loop
	EntryInPosition  string
	EntryStopSeeded  string
	EntryFlat        string
	SignalReceived   string
	SignalHold       string
	EntrySized       string
	EntryOrderPlaced string

	// Risk engine
	RiskNoPosition  string
	RiskSnapshot    string
	RiskExit        string
	RiskClosed      string
	RiskManualClose string

	// Orders
	OrderSubmitted string
	OrderRejected  string

	// Alerts
	AlertRaised string
}

var (
	currentLang Language = LangEN
	mu          sync.RWMutex
	messages    *Messages
)

// English messages
var messagesEN = Messages{
	// System
	Starting:         "Starting AI swap agent...",
	ConfigLoaded:     "Config loaded (exchange: %s, symbols: %d, entry every %s, stop check every %s)",
	ConfigInvalid:    "Configuration rejected: %v",
	SymbolTracked:    "Tracking %s (leverage %dx, %.2f USDT, %s)",
	GatewaySelected:  "Exchange gateway: %s",
	JournalOpened:    "Journal opened: %s",
	JournalDisabled:  "Journal disabled (JOURNAL_PATH empty)",
	JournalFailed:    "Journal unavailable, continuing without it: %v",
	ServerListening:  "Status API listening on :%s",
	APIServerError:   "API server error: %v",
	ShuttingDown:     "Shutting down, no new ticks will be scheduled...",
	Stopped:          "All loops stopped.",
	TimeSyncFailed:   "Exchange time sync failed: %v",
	KeyringLoadError: "Failed to load master key: %v",

	// Setup
	SetupApplied: "Setup %s",
	SetupIgnored: "Setup %s (ignored)",

	// Scheduler
	JobStarted: "Job %s started (every %s)",
	JobStopped: "Job %s stopped",
	JobPanic:   "Job %s recovered from panic: %v",
	TickFailed: "[%s] %s tick failed: %v",

	// Entry loop
	EntryInPosition:  "[%s] %s position open: %g contracts @ %g",
	EntryStopSeeded:  "[%s] initial stop price %g (%s, confidence %s)",
	EntryFlat:        "[%s] no open position, asking for a signal",
	SignalReceived:   "[%s] signal=%s confidence=%s trend=%s reason=%s",
	SignalHold:       "[%s] hold, no order this tick",
	EntrySized:       "[%s] %g USDT x%d -> %g contracts",
	EntryOrderPlaced: "[%s] %s market order placed: %g contracts (order %s)",

	// Risk engine
	RiskNoPosition:  "[%s] no open position",
	RiskSnapshot:    "[%s] pnl %.4f (%.2f%%) peak %.4f (%.2f%%) mark %g stop %s",
	RiskExit:        "[%s] exit %s: closing %s %g contracts",
	RiskClosed:      "[%s] position closed, risk state cleared",
	RiskManualClose: "[%s] manual close requested by %s",

	// Orders
	OrderSubmitted: "Order %s %s %s %g reduceOnly=%v -> %s",
	OrderRejected:  "Order %s %s %s %g rejected: %v",

	// Alerts
	AlertRaised: "[ALERT][%s] %s: %s",
}

// Chinese messages
var messagesZH = Messages{
	// System
	Starting:         "正在启动 AI 合约交易代理...",
	ConfigLoaded:     "配置已加载（交易所: %s, 币种数: %d, 开仓间隔 %s, 止损检查间隔 %s）",
	ConfigInvalid:    "配置无效: %v",
	SymbolTracked:    "跟踪 %s（杠杆 %dx, %.2f USDT, %s）",
	GatewaySelected:  "交易所网关: %s",
	JournalOpened:    "交易日志已打开: %s",
	JournalDisabled:  "交易日志已关闭（JOURNAL_PATH 为空）",
	JournalFailed:    "交易日志不可用，继续运行: %v",
	ServerListening:  "状态接口监听 :%s",
	APIServerError:   "API 服务错误: %v",
	ShuttingDown:     "正在关闭，不再调度新的任务...",
	Stopped:          "所有循环已停止。",
	TimeSyncFailed:   "交易所时间同步失败: %v",
	KeyringLoadError: "加载主密钥失败: %v",

	// Setup
	SetupApplied: "初始化 %s",
	SetupIgnored: "初始化 %s（已忽略）",

	// Scheduler
	JobStarted: "任务 %s 已启动（每 %s）",
	JobStopped: "任务 %s 已停止",
	JobPanic:   "任务 %s 从 panic 恢复: %v",
	TickFailed: "[%s] %s 执行失败: %v",

	// Entry loop
	EntryInPosition:  "[%s] 已有%s持仓: %g 张 @ %g",
	EntryStopSeeded:  "[%s] 初始止损价 %g（%s, 置信度 %s）",
	EntryFlat:        "[%s] 无持仓，请求 AI 信号",
	SignalReceived:   "[%s] 信号=%s 置信度=%s 趋势=%s 原因=%s",
	SignalHold:       "[%s] 观望，本轮不下单",
	EntrySized:       "[%s] %g USDT x%d -> %g 张",
	EntryOrderPlaced: "[%s] %s 市价单已提交: %g 张（订单 %s）",

	// Risk engine
	RiskNoPosition:  "[%s] 无持仓",
	RiskSnapshot:    "[%s] 盈亏 %.4f（%.2f%%）最高 %.4f（%.2f%%）标记价 %g 止损 %s",
	RiskExit:        "[%s] 触发 %s: 平仓 %s %g 张",
	RiskClosed:      "[%s] 已平仓，风控状态已清空",
	RiskManualClose: "[%s] %s 请求手动平仓",

	// Orders
	OrderSubmitted: "订单 %s %s %s %g 只减仓=%v -> %s",
	OrderRejected:  "订单 %s %s %s %g 被拒绝: %v",

	// Alerts
	AlertRaised: "[告警][%s] %s: %s",
}

func init() {
	messages = &messagesEN
}

// SetLanguage sets the current language
func SetLanguage(lang Language) {
	mu.Lock()
	defer mu.Unlock()

	currentLang = lang
	switch lang {
	case LangZH:
		messages = &messagesZH
	default:
		messages = &messagesEN
	}
}

// GetLanguage returns the current language
func GetLanguage() Language {
	mu.RLock()
	defer mu.RUnlock()
	return currentLang
}

// M returns the current messages
func M() *Messages {
	mu.RLock()
	defer mu.RUnlock()
	return messages
}

// Get returns specific message by key dynamically using reflection
func Get(key string) string {
	msg := M()
	v := reflect.ValueOf(msg).Elem()
	f := v.FieldByName(key)
	if f.IsValid() && f.Kind() == reflect.String {
		return f.String()
	}
	return key
}
