package daemon

import (
	"os"

	"github.com/livp123/firesense/internal/app"
	"github.com/livp123/firesense/internal/source"
)

// DaemonOptions configuration options for the daemon
// DaemonOptions 守护进程配置选项
type DaemonOptions struct {
	ConfigPath string
	PidPath    string

	// AppOptions are passed to app.New, e.g. to inject an engine.
	AppOptions []app.Option
	// Source replaces the source built from config.
	Source source.Source
	// Signals replaces the OS signal channel.
	Signals chan os.Signal
}
