package generate

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/provision"
)

// varnishPlusDockerfile installs Varnish Enterprise from the vendor
// package repository inside a Debian base image.
const varnishPlusDockerfile = `FROM debian:bookworm-slim
RUN set -ex; \
  apt-get update; \
  apt-get install -y curl; \
  curl -s https://packagecloud.io/install/repositories/varnishplus/60-enterprise/script.deb.sh | bash; \
  apt-get install -y varnish-plus
`

// Compose file model. Only the subset of the compose schema we emit.
type composeFile struct {
	Services map[string]composeService `yaml:"services"`
	Volumes  map[string]*composeVolume `yaml:"volumes,omitempty"`
}

type composeService struct {
	Image         string                      `yaml:"image,omitempty"`
	Build         *composeBuild               `yaml:"build,omitempty"`
	Hostname      string                      `yaml:"hostname,omitempty"`
	ContainerName string                      `yaml:"container_name,omitempty"`
	DependsOn     map[string]composeCondition `yaml:"depends_on,omitempty"`
	Ports         []string                    `yaml:"ports,omitempty"`
	Expose        []string                    `yaml:"expose,omitempty"`
	Environment   []string                    `yaml:"environment,omitempty"`
	Volumes       []string                    `yaml:"volumes,omitempty"`
	Entrypoint    *[]string                   `yaml:"entrypoint,omitempty"`
	User          string                      `yaml:"user,omitempty"`
	Command       any                         `yaml:"command,omitempty"`
	Ulimits       map[string]composeUlimit    `yaml:"ulimits,omitempty"`
	Restart       string                      `yaml:"restart,omitempty"`
}

type composeBuild struct {
	DockerfileInline string `yaml:"dockerfile_inline"`
}

type composeCondition struct {
	Condition string `yaml:"condition"`
}

type composeUlimit struct {
	Soft int `yaml:"soft"`
	Hard int `yaml:"hard"`
}

type composeVolume struct {
	Driver     string            `yaml:"driver,omitempty"`
	DriverOpts map[string]string `yaml:"driver_opts,omitempty"`
}

var noEntrypoint = []string{}

// renderCompose renders the docker-mode compose file carrying the cache
// engine and, when enabled, the monitoring stack.
func renderCompose(plan config.Plan, mounts []provision.MountEntry) (Artifact, error) {
	if len(mounts) == 0 {
		return Artifact{}, &ConfigError{Artifact: "compose.yaml", Reason: "no provisioned devices"}
	}

	// Bind each provisioned mount at /mnt/diskN inside the containers,
	// matching the paths in mse4.conf.
	var diskBinds []string
	var chownCmds string
	for i, m := range mounts {
		diskBinds = append(diskBinds, fmt.Sprintf("%s:/mnt/disk%d", m.MountPoint, i+1))
		chownCmds += fmt.Sprintf("  chown -R varnish:varnish /mnt/disk%d\n", i+1)
	}

	file := composeFile{
		Services: map[string]composeService{
			"mse4_check": {
				Build: &composeBuild{DockerfileInline: varnishPlusDockerfile},
				Volumes: []string{
					"./mse4.conf:/etc/varnish/mse4.conf",
					"./varnish-enterprise.lic:/etc/varnish/varnish-enterprise.lic",
				},
				Entrypoint: &noEntrypoint,
				User:       "root",
				Command:    "mkfs.mse4 check-config -c /etc/varnish/mse4.conf",
			},
			"varnish_pre": {
				Build:         &composeBuild{DockerfileInline: varnishPlusDockerfile},
				ContainerName: "varnish_pre",
				DependsOn: map[string]composeCondition{
					"mse4_check": {Condition: "service_completed_successfully"},
				},
				Volumes:    append(append([]string{}, diskBinds...), "./varnish-enterprise.lic:/etc/varnish/varnish-enterprise.lic"),
				Entrypoint: &noEntrypoint,
				User:       "root",
				Command:    "sh -c '\n  echo \"Setting permissions for MSE directories...\"\n" + chownCmds + "  echo \"MSE permissions set\"\n'",
			},
			"varnish": {
				Build:         &composeBuild{DockerfileInline: varnishPlusDockerfile},
				Hostname:      "varnish",
				ContainerName: "varnish",
				DependsOn: map[string]composeCondition{
					"varnish_pre": {Condition: "service_completed_successfully"},
				},
				Ports: []string{fmt.Sprintf("%d:80", plan.Port)},
				Environment: []string{
					"MSE4_CONFIG=/etc/varnish/mse4.conf",
					"MSE4_CACHE_FORCE_PRESERVE=0",
					"VARNISH_ADMIN_LISTEN_ADDRESS=127.0.0.1",
					"VARNISH_ADMIN_LISTEN_PORT=6082",
					"VARNISH_LISTEN_PORT=80",
					"VARNISH_MAX_THREADS=1000",
					"VARNISH_MIN_THREADS=50",
					"VARNISH_SECRET_FILE=/etc/varnish/secret",
					"VARNISH_THREAD_TIMEOUT=120",
					"VARNISH_VCL_CONF=/etc/varnish/default.vcl",
				},
				Volumes: append([]string{
					"workdir:/var/lib/varnish",
					"./mse4.conf:/etc/varnish/mse4.conf:ro",
					"./conf/default.vcl:/etc/varnish/default.vcl:ro",
					"./varnish-enterprise.lic:/etc/varnish/varnish-enterprise.lic",
				}, diskBinds...),
				Ulimits: map[string]composeUlimit{
					"memlock": {Soft: -1, Hard: -1},
				},
			},
		},
		Volumes: map[string]*composeVolume{
			"workdir": {
				Driver:     "local",
				DriverOpts: map[string]string{"type": "tmpfs", "device": "tmpfs"},
			},
		},
	}

	if plan.Monitoring {
		file.Services["prometheus"] = prometheusService()
		file.Services["grafana"] = grafanaService(plan)
		file.Volumes["prometheus_data"] = nil
		file.Volumes["grafana_data"] = nil
	}

	content, err := yaml.Marshal(file)
	if err != nil {
		return Artifact{}, &ConfigError{Artifact: "compose.yaml", Reason: err.Error()}
	}
	return Artifact{Name: "compose.yaml", Path: WorkDir + "/compose.yaml", Mode: 0o644, Content: content}, nil
}

// renderMonitoringCompose renders the hybrid-mode compose file carrying
// only the monitoring stack; Varnish runs on the host.
func renderMonitoringCompose(plan config.Plan) (Artifact, error) {
	file := composeFile{
		Services: map[string]composeService{
			"prometheus": prometheusService(),
			"grafana":    grafanaService(plan),
		},
		Volumes: map[string]*composeVolume{
			"prometheus_data": nil,
			"grafana_data":    nil,
		},
	}

	content, err := yaml.Marshal(file)
	if err != nil {
		return Artifact{}, &ConfigError{Artifact: "monitoring-compose.yaml", Reason: err.Error()}
	}
	return Artifact{Name: "monitoring-compose.yaml", Path: WorkDir + "/monitoring-compose.yaml", Mode: 0o644, Content: content}, nil
}

func prometheusService() composeService {
	return composeService{
		Image:         "prom/prometheus:v2.53.0",
		ContainerName: "prometheus",
		Ports:         []string{"9090:9090"},
		Volumes: []string{
			"./conf/prometheus.yml:/etc/prometheus/prometheus.yml:ro",
			"prometheus_data:/prometheus",
		},
		Command: []string{
			"--config.file=/etc/prometheus/prometheus.yml",
			"--storage.tsdb.path=/prometheus",
			"--web.console.libraries=/usr/share/prometheus/console_libraries",
			"--web.console.templates=/usr/share/prometheus/consoles",
			"--enable-feature=native-histograms",
			"--storage.tsdb.retention.time=6d",
		},
		Restart: "unless-stopped",
	}
}

func grafanaService(plan config.Plan) composeService {
	return composeService{
		Image:         "grafana/grafana-enterprise",
		ContainerName: "grafana",
		Ports:         []string{"3000:3000"},
		Environment: []string{
			"GF_SECURITY_ADMIN_PASSWORD=" + plan.GrafanaPassword,
			"GF_SECURITY_ADMIN_USER=admin",
			"GF_SERVER_ROOT_URL=http://" + plan.ServerIP + ":3000",
			"GF_AUTH_ANONYMOUS_ENABLED=true",
			"GF_AUTH_ANONYMOUS_ORG_ROLE=Viewer",
		},
		Volumes: []string{
			"./conf/grafana/grafana.ini:/etc/grafana/grafana.ini:ro",
			"./conf/grafana/provisioning:/etc/grafana/provisioning:ro",
			"grafana_data:/var/lib/grafana",
		},
		DependsOn: map[string]composeCondition{
			"prometheus": {Condition: "service_started"},
		},
		Restart: "unless-stopped",
	}
}
