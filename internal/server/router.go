package server

import (
	"net/http"
)

// BasicRouter registers songshare's routes on an [http.ServeMux] using method-qualified patterns.
type BasicRouter struct {
	mux         *http.ServeMux
	middlewares []Middleware
}

func NewBasicRouter() *BasicRouter {
	return &BasicRouter{mux: http.NewServeMux()}
}

// Use appends to the middleware stack. Routes registered before the call are not wrapped.
func (r *BasicRouter) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// HandleFunc serves fn for "METHOD path". Other methods on the same path get a 405 from the mux.
func (r *BasicRouter) HandleFunc(method, path string, fn http.HandlerFunc) {
	r.mux.Handle(method+" "+path, r.wrap(fn))
}

// Handler mounts a [Handler] once per pattern returned by its Routes.
func (r *BasicRouter) Handler(handler Handler) {
	wrapped := r.wrap(handler)
	for _, pattern := range handler.Routes() {
		r.mux.Handle(pattern, wrapped)
	}
}

func (r *BasicRouter) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// wrap applies the stack so the first middleware added sees the request first.
func (r *BasicRouter) wrap(h http.Handler) http.Handler {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		h = r.middlewares[i](h)
	}
	return h
}
