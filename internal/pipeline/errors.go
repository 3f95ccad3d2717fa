package pipeline

import (
	"errors"
	"fmt"
)

// ErrNoTriggerSecret 表示外部增强任务已配置却缺少共享触发密钥
var ErrNoTriggerSecret = errors.New("dispatch: trigger secret not configured")

// DispatchError 表示增强任务入口拒绝了本次触发。
// 不在本层重试，交给调用方决定。
type DispatchError struct {
	Status int
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch: job runner responded with status %d", e.Status)
}

// ProviderFetchError 表示某个数据源抓取失败。
// 按数据源隔离：只记入该源的结果，不中断其余数据源的同步。
type ProviderFetchError struct {
	Provider string
	Err      error
}

func (e *ProviderFetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Provider, e.Err)
}

func (e *ProviderFetchError) Unwrap() error { return e.Err }
