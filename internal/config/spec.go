package config

import (
	"fmt"
	"runtime"

	"github.com/workanator/wrustlr/internal/apperr"
	"github.com/workanator/wrustlr/internal/netproto"
)

// CoreSpec holds the core.* settings: worker pool sizing and logging.
type CoreSpec struct {
	// WorkerCountMax upper-bounds the worker pool. Defaults to the number
	// of logical CPUs when core.worker_count is absent.
	WorkerCountMax int
	LogLevel       string
	LogColorize    bool
}

// LoadCoreSpec reads the core.* keys, applying defaults for anything
// optional.
func LoadCoreSpec(d *Document) (CoreSpec, error) {
	spec := CoreSpec{
		WorkerCountMax: runtime.NumCPU(),
		LogLevel:       "info",
	}
	if n, ok := d.Int("core.worker_count"); ok {
		if n <= 0 {
			return CoreSpec{}, apperr.Wrap(apperr.Config, "core.worker_count",
				fmt.Errorf("must be positive, got %d", n))
		}
		spec.WorkerCountMax = n
	}
	if lvl, ok := d.String("core.log.level"); ok {
		spec.LogLevel = lvl
	}
	if c, ok := d.Bool("core.log.colorize"); ok {
		spec.LogColorize = c
	}
	return spec, nil
}

// ModuleSpec names the stream module bound to a listener and the path
// module-specific options should be read relative to. Grounded on
// ModuleConf::from_config (original_source/.../conf/module.rs): the forward
// xpath is resolved first (it may itself be a reference to a shared module
// config block), then "module" is read from the resolved group.
type ModuleSpec struct {
	Name     string
	BasePath string
}

// LoadModuleSpec resolves xpath and reads the module name from it.
func LoadModuleSpec(d *Document, xpath string) (ModuleSpec, error) {
	resolved, err := d.ResolveReference(xpath)
	if err != nil {
		return ModuleSpec{}, apperr.Wrap(apperr.Config, "module", err)
	}
	name, ok := d.String(resolved + ".module")
	if !ok {
		return ModuleSpec{}, apperr.Wrap(apperr.Config, "module",
			fmt.Errorf("module name is required at %q", resolved))
	}
	return ModuleSpec{Name: name, BasePath: resolved}, nil
}

// SocketSpec describes a listener's transport and address, grounded on
// SocketConf/NetSocketConf/UnixSocketConf (original_source/.../conf/network.rs).
type SocketSpec struct {
	Protocol netproto.Protocol
	// Address and Port are populated for TCP/UDP.
	Address string
	Port    int
	// Path is populated for Unix.
	Path string
}

// LoadSocketSpec resolves xpath and reads the listener's transport.
func LoadSocketSpec(d *Document, xpath string) (SocketSpec, error) {
	resolved, err := d.ResolveReference(xpath)
	if err != nil {
		return SocketSpec{}, apperr.Wrap(apperr.Config, "listen", err)
	}

	protoStr, ok := d.String(resolved + ".protocol")
	if !ok {
		return SocketSpec{}, apperr.Wrap(apperr.Config, "listen.protocol",
			fmt.Errorf("protocol is undefined at %q", resolved))
	}
	proto, err := netproto.Parse(protoStr)
	if err != nil {
		return SocketSpec{}, apperr.Wrap(apperr.Config, "listen.protocol", err)
	}

	switch proto {
	case netproto.TCP, netproto.UDP:
		addr, ok := d.String(resolved + ".address")
		if !ok {
			return SocketSpec{}, apperr.Wrap(apperr.Config, "listen.address",
				fmt.Errorf("address is required at %q", resolved))
		}
		if addr == "*" {
			addr = "0.0.0.0"
		}
		port, ok := d.Int(resolved + ".port")
		if !ok {
			return SocketSpec{}, apperr.Wrap(apperr.Config, "listen.port",
				fmt.Errorf("port is required at %q", resolved))
		}
		return SocketSpec{Protocol: proto, Address: addr, Port: port}, nil
	case netproto.Unix:
		path, ok := d.String(resolved + ".path")
		if !ok {
			return SocketSpec{}, apperr.Wrap(apperr.Config, "listen.path",
				fmt.Errorf("path is required at %q", resolved))
		}
		return SocketSpec{Protocol: proto, Path: path}, nil
	default:
		return SocketSpec{}, apperr.Wrap(apperr.Config, "listen.protocol",
			fmt.Errorf("unsupported protocol %q", protoStr))
	}
}

// ServerSpec is one servers[i] entry: a listener plus the module it
// forwards connections to. Grounded on ServerConf::from_conf
// (original_source/.../net/server/conf.rs).
type ServerSpec struct {
	Listen  SocketSpec
	Forward ModuleSpec
}

// LoadServerSpec resolves xpath and reads its listen/forward children.
func LoadServerSpec(d *Document, xpath string) (ServerSpec, error) {
	resolved, err := d.ResolveReference(xpath)
	if err != nil {
		return ServerSpec{}, apperr.Wrap(apperr.Config, "servers", err)
	}
	listen, err := LoadSocketSpec(d, resolved+".listen")
	if err != nil {
		return ServerSpec{}, err
	}
	forward, err := LoadModuleSpec(d, resolved+".forward")
	if err != nil {
		return ServerSpec{}, err
	}
	return ServerSpec{Listen: listen, Forward: forward}, nil
}

// LoadServerList reads every servers[i] entry, mirroring
// Vec<T>::from_config's array-length-then-iterate pattern.
func LoadServerList(d *Document, xpath string) ([]ServerSpec, error) {
	count, ok := d.Len(xpath)
	if !ok {
		return nil, apperr.Wrap(apperr.Config, xpath,
			fmt.Errorf("expected array at %q but found nothing", xpath))
	}

	specs := make([]ServerSpec, 0, count)
	for i := 0; i < count; i++ {
		spec, err := LoadServerSpec(d, elementPath(xpath, i))
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
