package generate

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/lucidlink/teamcache/internal/config"
)

// Prometheus configuration model, limited to what we emit.
type prometheusConfig struct {
	Global        prometheusGlobal   `yaml:"global"`
	ScrapeConfigs []prometheusScrape `yaml:"scrape_configs"`
}

type prometheusGlobal struct {
	ScrapeInterval string `yaml:"scrape_interval"`
}

type prometheusScrape struct {
	JobName       string             `yaml:"job_name"`
	StaticConfigs []prometheusStatic `yaml:"static_configs"`
}

type prometheusStatic struct {
	Targets []string `yaml:"targets"`
}

// renderPrometheus renders the Prometheus scrape configuration. Varnish
// exposes its metrics on /metrics through the cache listener itself.
func renderPrometheus(plan config.Plan) (Artifact, error) {
	target := "varnish:80"
	if plan.DeploymentMode == config.ModeHybrid {
		// Varnish runs on the host, so there is no container DNS name;
		// scrape the listener on the host address.
		target = fmt.Sprintf("%s:%d", plan.ServerIP, plan.Port)
	}

	cfg := prometheusConfig{
		// 5s: cache hit ratios move fast during fill, the default 1m
		// hides that.
		Global: prometheusGlobal{ScrapeInterval: "5s"},
		ScrapeConfigs: []prometheusScrape{
			{
				JobName:       "varnish",
				StaticConfigs: []prometheusStatic{{Targets: []string{target}}},
			},
		},
	}

	content, err := yaml.Marshal(cfg)
	if err != nil {
		return Artifact{}, &ConfigError{Artifact: "prometheus.yml", Reason: err.Error()}
	}
	return Artifact{Name: "prometheus.yml", Path: WorkDir + "/conf/prometheus.yml", Mode: 0o644, Content: content}, nil
}

// renderGrafana renders grafana.ini from its embedded template.
func renderGrafana(plan config.Plan) (Artifact, error) {
	content, err := renderTemplate("grafana.ini.tmpl", struct{ GrafanaPassword string }{plan.GrafanaPassword})
	if err != nil {
		return Artifact{}, err
	}
	// 0600: carries the admin password.
	return Artifact{Name: "grafana.ini", Path: WorkDir + "/conf/grafana/grafana.ini", Mode: 0o600, Content: content}, nil
}
