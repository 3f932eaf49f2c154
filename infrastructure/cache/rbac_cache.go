package cache

import (
	"sort"
	"sync"
)

// Resource maps role-based permissions to route/method metadata.
type Resource struct {
	UserResourceCode string
	Path             string
	Method           string
	Role             string
}

// RbacRolesCache stores role to resources map.
type RbacRolesCache struct {
	mu        sync.RWMutex
	resources map[string][]Resource
	allRoutes map[string]struct{}
}

func NewRbacRolesCache() *RbacRolesCache {
	return &RbacRolesCache{
		resources: make(map[string][]Resource),
		allRoutes: make(map[string]struct{}),
	}
}

// Add registers r for role. Registering the same resource twice is a no-op.
func (c *RbacRolesCache) Add(role string, r Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.resources[role] {
		if existing == r {
			return
		}
	}
	c.resources[role] = append(c.resources[role], r)
	c.allRoutes[r.UserResourceCode] = struct{}{}
}

func (c *RbacRolesCache) GetRolesAndResources(roles []string) []Resource {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Resource, 0)
	for _, role := range roles {
		out = append(out, c.resources[role]...)
	}
	return out
}

func (c *RbacRolesCache) GetAllRouteNames() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]int, len(c.allRoutes))
	for route := range c.allRoutes {
		out[route] = 1
	}
	return out
}

// CodesForRole lists the screen codes granted to role, sorted and unique.
func (c *RbacRolesCache) CodesForRole(role string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	codes := make([]string, 0, len(c.resources[role]))
	for _, res := range c.resources[role] {
		if _, ok := seen[res.UserResourceCode]; ok {
			continue
		}
		seen[res.UserResourceCode] = struct{}{}
		codes = append(codes, res.UserResourceCode)
	}
	sort.Strings(codes)
	return codes
}
