package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// 调度基础设施在请求上附带的头：值匹配则视为可信触发
const (
	SchedulerHeader   = "x-vercel-cron"
	schedulerSentinel = "1"
)

// TriggerAuthorizer 校验流水线触发请求。三个条件按序短路：
// 1. 调度基础设施头存在且等于约定值
// 2. 非生产模式（本地联调放行）
// 3. Bearer 令牌与共享密钥恒定时间比较一致
type TriggerAuthorizer struct {
	Secret     string
	Production bool
}

func (a *TriggerAuthorizer) Authorize(r *http.Request) bool {
	if r.Header.Get(SchedulerHeader) == schedulerSentinel {
		return true
	}
	if !a.Production {
		return true
	}
	return a.validBearer(r.Header.Get("Authorization"))
}

// validBearer 要求头的形式严格为 "Bearer <token>"，多余字段视为非法
func (a *TriggerAuthorizer) validBearer(header string) bool {
	if a.Secret == "" || header == "" {
		return false
	}
	fields := strings.Fields(header)
	if len(fields) != 2 || fields[0] != "Bearer" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(fields[1]), []byte(a.Secret)) == 1
}

// AdminAuthorizer 只用于管理端手动触发：要求管理员令牌与可信 Origin 同时成立，
// 与调度器路径互相独立。
type AdminAuthorizer struct {
	Token          string
	TrustedOrigins []string
}

// Authorize 校验 X-Admin-Token 与 Origin。令牌未配置时一律拒绝。
func (a *AdminAuthorizer) Authorize(r *http.Request) bool {
	if a.Token == "" {
		return false
	}
	token := r.Header.Get("X-Admin-Token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) != 1 {
		return false
	}
	return a.trustedOrigin(r.Header.Get("Origin"))
}

func (a *AdminAuthorizer) trustedOrigin(origin string) bool {
	if origin == "" {
		return false
	}
	for _, allowed := range a.TrustedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}
