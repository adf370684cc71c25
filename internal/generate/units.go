package generate

import (
	"strings"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/provision"
)

// Unit names installed by the deployer.
const (
	CacheUnit      = "teamcache.service"
	MonitoringUnit = "tc-grafana.service"
)

// renderCacheUnit renders teamcache.service. In hybrid mode the unit
// runs varnishd directly on the host; in docker mode it wraps the
// compose file.
func renderCacheUnit(plan config.Plan, mounts []provision.MountEntry) (Artifact, error) {
	var content []byte
	var err error

	if plan.DeploymentMode == config.ModeHybrid {
		dirs := make([]string, len(mounts))
		for i, m := range mounts {
			dirs[i] = `"` + m.MountPoint + `"`
		}
		content, err = renderTemplate("teamcache.service.tmpl", struct {
			Port      int
			MountDirs string
		}{plan.Port, strings.Join(dirs, " ")})
	} else {
		content, err = renderTemplate("teamcache-compose.service.tmpl", struct{ WorkDir string }{WorkDir})
	}
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Name: CacheUnit, Path: SystemdDir + "/" + CacheUnit, Mode: 0o644, Content: content}, nil
}

// renderMonitoringUnit renders tc-grafana.service, which wraps the
// monitoring compose file. Only used in hybrid mode; in docker mode the
// monitoring services ride in the main compose file.
func renderMonitoringUnit() (Artifact, error) {
	content, err := renderTemplate("tc-grafana.service.tmpl", struct{ WorkDir string }{WorkDir})
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Name: MonitoringUnit, Path: SystemdDir + "/" + MonitoringUnit, Mode: 0o644, Content: content}, nil
}
