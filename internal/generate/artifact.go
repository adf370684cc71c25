package generate

import (
	"errors"
	"fmt"
	"os"
)

// Install locations for rendered artifacts.
const (
	WorkDir    = "/opt/teamcache"
	VarnishDir = "/etc/varnish"
	SystemdDir = "/etc/systemd/system"
)

// Artifact is a rendered configuration file ready to be installed.
type Artifact struct {
	// Name identifies the artifact (e.g. "mse4.conf").
	Name string
	// Path is the absolute destination path.
	Path string
	// Mode is the file mode to install with.
	Mode os.FileMode
	// Content is the rendered file body.
	Content []byte
}

// ConfigError reports that an artifact could not be rendered.
type ConfigError struct {
	Artifact string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("cannot render %s: %s", e.Artifact, e.Reason)
}

// IsConfigError reports whether err is a rendering failure.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}
