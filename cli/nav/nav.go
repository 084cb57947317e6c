// Package nav maps console routes to navigation groups and breadcrumbs, and
// decides where an unauthenticated visitor ends up.
package nav

const (
	LoginRoute   = "/login"
	DefaultRoute = "/dashboard"
)

type Item struct {
	Key  string
	Text string
}

// TopGroups is the header navigation, in display order.
var TopGroups = []Item{
	{Key: "home", Text: "首页"},
	{Key: "management", Text: "管理中心"},
	{Key: "settings", Text: "系统设置"},
}

// SideItems lists the pages under each top group.
var SideItems = map[string][]Item{
	"home": {
		{Key: "/dashboard", Text: "仪表盘"},
	},
	"management": {
		{Key: "/users", Text: "用户管理"},
		{Key: "/game-data", Text: "道具管理"},
		{Key: "/hot-update", Text: "热更新"},
	},
	"settings": {
		{Key: "/settings", Text: "系统设置"},
		{Key: "/account", Text: "账号设置"},
	},
}

var pathToGroup = map[string]string{}
var pathToPage = map[string]string{}
var groupNames = map[string]string{}

func init() {
	for _, g := range TopGroups {
		groupNames[g.Key] = g.Text
		for _, it := range SideItems[g.Key] {
			pathToGroup[it.Key] = g.Key
			pathToPage[it.Key] = it.Text
		}
	}
}

// Selection is the navigation state derived from a route.
type Selection struct {
	Group      string
	Side       []Item
	Breadcrumb []string
}

// Resolve derives the selected group, its side items and the breadcrumb.
// Unknown routes fall back to the home group.
func Resolve(path string) Selection {
	group, ok := pathToGroup[path]
	if !ok {
		group = "home"
	}
	groupName := groupNames[group]

	crumbs := []string{groupName}
	if page := pathToPage[path]; page != "" && page != groupName {
		crumbs = append(crumbs, page)
	}
	return Selection{
		Group:      group,
		Side:       SideItems[group],
		Breadcrumb: crumbs,
	}
}

// FirstPage is where selecting a top group navigates to.
func FirstPage(group string) string {
	items := SideItems[group]
	if len(items) == 0 {
		return DefaultRoute
	}
	return items[0].Key
}

// Guard returns the route to actually show. The root goes to the default
// page; anything but the login page needs a credential.
func Guard(path string, authenticated bool) string {
	if path == "" || path == "/" {
		path = DefaultRoute
	}
	if path == LoginRoute {
		return path
	}
	if !authenticated {
		return LoginRoute
	}
	return path
}
