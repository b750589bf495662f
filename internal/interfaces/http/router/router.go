package router

import (
	"net/http"
	"path"
	"sort"

	"github.com/gin-gonic/gin"
)

// RouteRegistrar mounts a set of routes on a gin group
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// RouteInfo is one mounted route, reported by Router.Routes
type RouteInfo struct {
	Group  string
	Method string
	Path   string
}

// Router mounts the till's domain groups under /api/<version>. Middleware
// added with Use applies to the API only, never to /health at the root.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	groups     []RouteRegistrar
}

// RouterOption configures a Router
type RouterOption func(*Router)

// WithAPIVersion sets the API version segment, "v1" by default
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

// NewRouter creates a Router on engine
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Use adds API-wide middleware
func (r *Router) Use(mw ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, mw...)
	return r
}

// Register queues a group for Setup
func (r *Router) Register(g RouteRegistrar) *Router {
	r.groups = append(r.groups, g)
	return r
}

// Setup mounts every registered group
func (r *Router) Setup() {
	api := r.engine.Group(r.BasePath(), r.middleware...)
	for _, g := range r.groups {
		g.RegisterRoutes(api)
	}
}

// BasePath returns the versioned API prefix, e.g. /api/v1
func (r *Router) BasePath() string {
	return "/api/" + r.apiVersion
}

// Routes lists the routes of every registered DomainGroup sorted by path
func (r *Router) Routes() []RouteInfo {
	var out []RouteInfo
	for _, g := range r.groups {
		if dg, ok := g.(*DomainGroup); ok {
			out = dg.collect(r.BasePath(), out)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Method < out[j].Method
	})
	return out
}

// DomainGroup collects the routes of one area of the till (carts, sales,
// ledger) under a shared prefix and middleware
type DomainGroup struct {
	name       string
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
	children   []*DomainGroup
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

// NewDomainGroup creates an empty group
func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Name returns the group name
func (dg *DomainGroup) Name() string { return dg.name }

// Prefix returns the path prefix relative to the API base
func (dg *DomainGroup) Prefix() string { return dg.prefix }

// Use adds middleware for this group and its children
func (dg *DomainGroup) Use(mw ...gin.HandlerFunc) *DomainGroup {
	dg.middleware = append(dg.middleware, mw...)
	return dg
}

// Handle queues a route; the chain ends with the handler proper
func (dg *DomainGroup) Handle(method, relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	dg.routes = append(dg.routes, route{method: method, path: relPath, handlers: handlers})
	return dg
}

func (dg *DomainGroup) GET(relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodGet, relPath, handlers...)
}

func (dg *DomainGroup) POST(relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodPost, relPath, handlers...)
}

func (dg *DomainGroup) DELETE(relPath string, handlers ...gin.HandlerFunc) *DomainGroup {
	return dg.Handle(http.MethodDelete, relPath, handlers...)
}

// Group nests a child group under this one's prefix
func (dg *DomainGroup) Group(name, prefix string) *DomainGroup {
	child := NewDomainGroup(name, prefix)
	dg.children = append(dg.children, child)
	return child
}

// RegisterRoutes implements RouteRegistrar
func (dg *DomainGroup) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group(dg.prefix, dg.middleware...)
	for _, rt := range dg.routes {
		g.Handle(rt.method, rt.path, rt.handlers...)
	}
	for _, child := range dg.children {
		child.RegisterRoutes(g)
	}
}

func (dg *DomainGroup) collect(base string, out []RouteInfo) []RouteInfo {
	prefix := joinPath(base, dg.prefix)
	for _, rt := range dg.routes {
		out = append(out, RouteInfo{Group: dg.name, Method: rt.method, Path: joinPath(prefix, rt.path)})
	}
	for _, child := range dg.children {
		out = child.collect(prefix, out)
	}
	return out
}

// joinPath joins like gin does: path.Join drops a trailing slash, which
// gin keeps
func joinPath(base, rel string) string {
	if rel == "" {
		return base
	}
	joined := path.Join(base, rel)
	if rel[len(rel)-1] == '/' && joined[len(joined)-1] != '/' {
		return joined + "/"
	}
	return joined
}
