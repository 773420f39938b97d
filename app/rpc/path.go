package rpc

import (
	"context"
	"strings"
)

// Path is an immutable sequence of URL path segments. Every extension
// returns a new value; the zero Path renders as an empty string and the
// first segment gets no leading slash.
type Path struct {
	segs []string
}

// NewPath makes a Path from already split segments
func NewPath(segs ...string) Path {
	res := Path{}
	for _, s := range segs {
		res = res.Sub(s)
	}
	return res
}

// Sub extends the path with a single segment, i.e. NewPath().Sub("web").Sub("session")
// renders as "web/session"
func (p Path) Sub(name string) Path {
	segs := make([]string, len(p.segs), len(p.segs)+1)
	copy(segs, p.segs)
	return Path{segs: append(segs, name)}
}

// At extends the path with a chunk which may contain slashes, like
// p.At("/web/session/authenticate"). Exactly one leading and one trailing
// slash are trimmed and the rest appended the same way Sub does it, so
// p.At("/web/") and p.Sub("web") build equal paths.
func (p Path) At(chunk string) Path {
	chunk = strings.TrimPrefix(chunk, "/")
	chunk = strings.TrimSuffix(chunk, "/")
	return p.Sub(chunk)
}

func (p Path) String() string { return strings.Join(p.segs, "/") }

// Builder chains path segments bound to a JSON proxy, so an endpoint call
// reads as j.Root().Sub("web").Sub("webclient").Sub("version_info").Call(ctx, nil).
// Builders are values, extending one leaves the original usable. The bound
// proxy is set on Root and never reassigned.
type Builder struct {
	proxy *JSON
	path  Path
}

// Sub returns a builder extended with a single segment
func (b Builder) Sub(name string) Builder {
	return Builder{proxy: b.proxy, path: b.path.Sub(name)}
}

// At returns a builder extended with a slash-separated chunk, normalized
// the same way Path.At does it
func (b Builder) At(chunk string) Builder {
	return Builder{proxy: b.proxy, path: b.path.At(chunk)}
}

// Call sends the accumulated path with the given params through the owning
// proxy. The builder itself holds no network state.
func (b Builder) Call(ctx context.Context, params interface{}) (*Response, error) {
	return b.proxy.Call(ctx, b.path.String(), params)
}

func (b Builder) String() string { return b.path.String() }
