package router

import (
	"sync"

	"github.com/gin-gonic/gin"
)

// 旁路模块（元数据、指标这类与核心工作流无关的路由）通过 init 自注册；
// 报名/目录/账号的主路由仍在各 engine 里显式装配，依赖看得见。

type APIModule interface{ MountAPI(*gin.RouterGroup) }
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

var (
	regMu     sync.Mutex
	apiMods   []APIModule
	adminMods []AdminModule
)

// Register 按类型断言分发；一个模块可以同时挂 API 和 Admin 两侧。
func Register(mod any) {
	regMu.Lock()
	defer regMu.Unlock()
	if m, ok := mod.(APIModule); ok {
		apiMods = append(apiMods, m)
	}
	if m, ok := mod.(AdminModule); ok {
		adminMods = append(adminMods, m)
	}
}

// MountAllAPI 把注册过的模块按注册顺序挂到 /api/v1。
func MountAllAPI(api *gin.RouterGroup) {
	regMu.Lock()
	mods := append([]APIModule(nil), apiMods...)
	regMu.Unlock()
	for _, m := range mods {
		m.MountAPI(api)
	}
}

// MountAllAdmin 把注册过的模块按注册顺序挂到 /admin/v1。
func MountAllAdmin(admin *gin.RouterGroup) {
	regMu.Lock()
	mods := append([]AdminModule(nil), adminMods...)
	regMu.Unlock()
	for _, m := range mods {
		m.MountAdmin(admin)
	}
}
