package plugin

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"sort"
	"time"

	"github.com/neovim/go-client/msgpack/rpc"

	"github.com/snowduck/snowduck/core"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Plugin serves registered endpoints over a msgpack-rpc stream.
type Plugin struct {
	endpoint *rpc.Endpoint
	specs    []*methodSpec
	log      core.Logger
}

type methodSpec struct {
	Name  string `json:"name"`
	Sync  bool   `json:"sync"`
	NArgs int    `json:"nargs"`
}

// New returns a plugin reading requests from r and writing replies to w.
// c is closed when the plugin is closed.
func New(r io.Reader, w io.Writer, c io.Closer, logger core.Logger) (*Plugin, error) {
	if logger == nil {
		logger = core.NopLogger{}
	}

	endpoint, err := rpc.NewEndpoint(r, w, c, rpc.WithLogf(logger.Debugf))
	if err != nil {
		return nil, fmt.Errorf("rpc.NewEndpoint: %w", err)
	}

	return &Plugin{
		endpoint: endpoint,
		log:      logger,
	}, nil
}

func isSync(f any) bool {
	t := reflect.TypeOf(f)

	return t.Kind() == reflect.Func && t.NumOut() > 0
}

// RemoteError is the error sent back to the caller: the translated message
// prefixed with its kind, e.g. "busy: connection is busy ...".
func RemoteError(err error) error {
	e := core.Translate(err)
	if e == nil {
		return nil
	}
	return fmt.Errorf("%s: %s", e.Kind, e.Error())
}

// RegisterEndpoint registers fn as the handler of method name. The function
// signature for fn is one of
//
//	func(args...) (resultType, error)
//	func(args...) error
//
// where every argument is decoded positionally from the request params.
func (p *Plugin) RegisterEndpoint(name string, fn any) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("endpoint %q: handler is not a function: %T", name, fn)
	}

	newFn := reflect.MakeFunc(v.Type(), func(args []reflect.Value) []reflect.Value {
		p.log.Debugf("calling method %q", name)
		start := time.Now()

		ret := v.Call(args)

		last := len(ret) - 1
		if last >= 0 && ret[last].Type() == errorType && !ret[last].IsNil() {
			err := RemoteError(ret[last].Interface().(error))
			p.log.Errorf("method %q: %s", name, err)
			ret[last] = reflect.ValueOf(&err).Elem()
			return ret
		}

		p.log.Debugf("method %q returned successfully in %s", name, time.Since(start))
		return ret
	})

	if err := p.endpoint.Register(name, newFn.Interface()); err != nil {
		return fmt.Errorf("p.endpoint.Register: %w", err)
	}

	p.specs = append(p.specs, &methodSpec{
		Name:  name,
		Sync:  isSync(fn),
		NArgs: v.Type().NumIn(),
	})
	return nil
}

// Methods returns registered method names in sorted order.
func (p *Plugin) Methods() []string {
	names := make([]string, len(p.specs))
	for i, s := range p.specs {
		names[i] = s.Name
	}
	sort.Strings(names)
	return names
}

// Manifest writes a JSON description of the registered methods, so a host
// can generate its client stubs.
func (p *Plugin) Manifest(w io.Writer, executable string) error {
	// Sort for consistent order on output.
	sort.Slice(p.specs, func(i, j int) bool {
		return p.specs[i].Name < p.specs[j].Name
	})

	out, err := json.MarshalIndent(struct {
		Executable string        `json:"executable"`
		Methods    []*methodSpec `json:"methods"`
	}{
		Executable: executable,
		Methods:    p.specs,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent: %w", err)
	}

	if _, err := w.Write(append(out, '\n')); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	return nil
}

// Serve blocks until the stream is closed.
func (p *Plugin) Serve() error {
	return p.endpoint.Serve()
}

func (p *Plugin) Close() error {
	return p.endpoint.Close()
}
