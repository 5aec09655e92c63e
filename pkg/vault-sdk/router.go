package vault

import "strings"

var authPrefixes = []string{"/register", "/login", "/protected"}

// ServiceRouter maps a logical endpoint path to one of the two backends.
// The addresses are fixed for the router's lifetime.
type ServiceRouter struct {
	authAddr string
	fileAddr string
}

// NewServiceRouter returns a router for the given base addresses.
func NewServiceRouter(authAddr, fileAddr string) *ServiceRouter {
	return &ServiceRouter{
		authAddr: normalizeAddr(authAddr),
		fileAddr: normalizeAddr(fileAddr),
	}
}

// Resolve returns the auth address for /register, /login and /protected
// paths, and the file address for everything else.
func (r *ServiceRouter) Resolve(path string) string {
	for _, prefix := range authPrefixes {
		if strings.HasPrefix(path, prefix) {
			return r.authAddr
		}
	}
	return r.fileAddr
}

// AuthAddr returns the auth service base address.
func (r *ServiceRouter) AuthAddr() string { return r.authAddr }

// FileAddr returns the file service base address.
func (r *ServiceRouter) FileAddr() string { return r.fileAddr }

func normalizeAddr(addr string) string {
	return strings.TrimRight(addr, "/")
}
