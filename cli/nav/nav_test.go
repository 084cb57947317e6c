package nav

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		path  string
		group string
		crumb []string
	}{
		{"/dashboard", "home", []string{"首页", "仪表盘"}},
		{"/users", "management", []string{"管理中心", "用户管理"}},
		{"/hot-update", "management", []string{"管理中心", "热更新"}},
		{"/settings", "settings", []string{"系统设置"}},
		{"/account", "settings", []string{"系统设置", "账号设置"}},
		{"/nowhere", "home", []string{"首页"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			sel := Resolve(tt.path)
			assert.Equal(t, tt.group, sel.Group)
			assert.Equal(t, tt.crumb, sel.Breadcrumb)
			assert.Equal(t, SideItems[tt.group], sel.Side)
		})
	}
}

func TestFirstPage(t *testing.T) {
	assert.Equal(t, "/users", FirstPage("management"))
	assert.Equal(t, "/dashboard", FirstPage("home"))
	assert.Equal(t, DefaultRoute, FirstPage("missing"))
}

func TestGuard(t *testing.T) {
	assert.Equal(t, LoginRoute, Guard("/hot-update", false))
	assert.Equal(t, "/hot-update", Guard("/hot-update", true))
	assert.Equal(t, LoginRoute, Guard("/", false))
	assert.Equal(t, DefaultRoute, Guard("/", true))
	assert.Equal(t, LoginRoute, Guard(LoginRoute, false))
	assert.Equal(t, LoginRoute, Guard(LoginRoute, true))
}
