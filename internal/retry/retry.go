package retry

import "time"

// backoffFactor 每次失败后延迟翻倍
const backoffFactor = 2

// Executor 以有界的指数退避包装一个可能失败的操作。
// 无断路器状态，每次 Do 调用相互独立；延迟只阻塞当前调用方。
type Executor struct {
	sleep func(time.Duration)
}

func New() *Executor {
	return &Executor{sleep: time.Sleep}
}

// Do 最多执行 op attempts 次。失败且还有剩余次数时，
// 按 min(initial * 2^n, max) 休眠后重试；最后一次失败不再休眠，
// 原样返回最后一个错误（不包装、不聚合）。attempts 最小按 1 处理。
func (e *Executor) Do(op func() error, attempts int, initial, max time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}

	delay := initial
	var err error
	for i := 0; i < attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		if i == attempts-1 {
			break
		}
		if delay > max {
			delay = max
		}
		e.sleep(delay)
		delay *= backoffFactor
	}
	return err
}
