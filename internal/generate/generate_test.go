package generate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/provision"
)

const gib = 1024 * 1024 * 1024

func hybridPlan() config.Plan {
	plan := config.NewPlan()
	plan.Devices = []string{"/dev/sdb", "/dev/sdc"}
	plan.ServerIP = "192.168.1.10"
	plan.GrafanaPassword = "hunter2hunter2"
	plan.AutoConfirm = true
	return plan
}

func dockerPlan() config.Plan {
	plan := hybridPlan()
	plan.DeploymentMode = config.ModeDocker
	return plan
}

func testMounts() []provision.MountEntry {
	return []provision.MountEntry{
		{Device: "/dev/sdb", UUID: "aaaa", MountPoint: "/cache/disk1", SizeBytes: 100 * gib},
		{Device: "/dev/sdc", UUID: "bbbb", MountPoint: "/cache/disk2", SizeBytes: 200 * gib},
	}
}

func artifactByName(t *testing.T, artifacts []Artifact, name string) Artifact {
	t.Helper()
	for _, a := range artifacts {
		if a.Name == name {
			return a
		}
	}
	t.Fatalf("artifact %s not rendered", name)
	return Artifact{}
}

func TestStoreSizeGiB(t *testing.T) {
	tests := []struct {
		sizeBytes uint64
		want      int
	}{
		{100 * gib, 90},  // (100-8)*0.98 = 90.16
		{200 * gib, 188}, // (200-8)*0.98 = 188.16
		{10 * gib, 1},    // (10-8)*0.98 = 1.96
		{8 * gib, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StoreSizeGiB(tt.sizeBytes))
	}
}

func TestRenderMSE4Hybrid(t *testing.T) {
	a, err := renderMSE4(hybridPlan(), testMounts())
	require.NoError(t, err)

	assert.Equal(t, "/etc/varnish/mse4.conf", a.Path)
	content := string(a.Content)
	assert.Contains(t, content, `id = "book1";`)
	assert.Contains(t, content, `filename = "/cache/disk1/book";`)
	assert.Contains(t, content, `size = "8G";`)
	assert.Contains(t, content, `id = "store1";`)
	assert.Contains(t, content, `filename = "/cache/disk1/store";`)
	assert.Contains(t, content, `size = "90G";`)
	assert.Contains(t, content, `id = "book2";`)
	assert.Contains(t, content, `size = "188G";`)
}

func TestRenderMSE4DockerPaths(t *testing.T) {
	a, err := renderMSE4(dockerPlan(), testMounts())
	require.NoError(t, err)

	assert.Equal(t, "/opt/teamcache/mse4.conf", a.Path)
	assert.Contains(t, string(a.Content), `filename = "/mnt/disk1/book";`)
	assert.Contains(t, string(a.Content), `filename = "/mnt/disk2/store";`)
}

func TestRenderMSE4Errors(t *testing.T) {
	_, err := renderMSE4(hybridPlan(), nil)
	require.Error(t, err)
	assert.True(t, IsConfigError(err))

	// A device the size of the book leaves no room for a store.
	_, err = renderMSE4(hybridPlan(), []provision.MountEntry{
		{Device: "/dev/sdb", MountPoint: "/cache/disk1", SizeBytes: 8 * gib},
	})
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestRenderHybrid(t *testing.T) {
	artifacts, err := Render(hybridPlan(), testMounts())
	require.NoError(t, err)

	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = a.Name
	}
	assert.ElementsMatch(t, []string{
		"mse4.conf", "default.vcl", "teamcache.service",
		"prometheus.yml", "grafana.ini", "monitoring-compose.yaml", "tc-grafana.service",
	}, names)

	unit := string(artifactByName(t, artifacts, "teamcache.service").Content)
	assert.Contains(t, unit, "-a :80")
	assert.Contains(t, unit, "ExecStart=/usr/sbin/varnishd")
	assert.Contains(t, unit, `for dir in "/cache/disk1" "/cache/disk2"; do`)

	vcl := artifactByName(t, artifacts, "default.vcl")
	assert.Equal(t, "/etc/varnish/default.vcl", vcl.Path)
	assert.Contains(t, string(vcl.Content), "vcl 4.1;")

	grafana := artifactByName(t, artifacts, "grafana.ini")
	assert.Contains(t, string(grafana.Content), "admin_password = hunter2hunter2")
	assert.Equal(t, "grafana.ini", grafana.Name)
}

func TestRenderDocker(t *testing.T) {
	artifacts, err := Render(dockerPlan(), testMounts())
	require.NoError(t, err)

	names := make([]string, len(artifacts))
	for i, a := range artifacts {
		names[i] = a.Name
	}
	assert.ElementsMatch(t, []string{
		"mse4.conf", "default.vcl", "teamcache.service",
		"compose.yaml", "prometheus.yml", "grafana.ini",
	}, names)

	unit := string(artifactByName(t, artifacts, "teamcache.service").Content)
	assert.Contains(t, unit, "docker compose -f compose.yaml up")

	var file composeFile
	require.NoError(t, yaml.Unmarshal(artifactByName(t, artifacts, "compose.yaml").Content, &file))

	varnish := file.Services["varnish"]
	assert.Equal(t, []string{"80:80"}, varnish.Ports)
	assert.Contains(t, varnish.Volumes, "/cache/disk1:/mnt/disk1")
	assert.Contains(t, varnish.Volumes, "/cache/disk2:/mnt/disk2")

	_, hasPrometheus := file.Services["prometheus"]
	assert.True(t, hasPrometheus)
	grafana := file.Services["grafana"]
	assert.Contains(t, grafana.Environment, "GF_SECURITY_ADMIN_PASSWORD=hunter2hunter2")
}

func TestRenderWithoutMonitoring(t *testing.T) {
	plan := dockerPlan()
	plan.Monitoring = false
	plan.GrafanaPassword = ""

	artifacts, err := Render(plan, testMounts())
	require.NoError(t, err)

	for _, a := range artifacts {
		assert.NotContains(t, []string{"prometheus.yml", "grafana.ini", "monitoring-compose.yaml", "tc-grafana.service"}, a.Name)
	}

	var file composeFile
	require.NoError(t, yaml.Unmarshal(artifactByName(t, artifacts, "compose.yaml").Content, &file))
	_, hasPrometheus := file.Services["prometheus"]
	assert.False(t, hasPrometheus)
}

func TestRenderPrometheusTargets(t *testing.T) {
	a, err := renderPrometheus(hybridPlan())
	require.NoError(t, err)

	var cfg prometheusConfig
	require.NoError(t, yaml.Unmarshal(a.Content, &cfg))
	assert.Equal(t, "5s", cfg.Global.ScrapeInterval)
	require.Len(t, cfg.ScrapeConfigs, 1)
	assert.Equal(t, []string{"192.168.1.10:80"}, cfg.ScrapeConfigs[0].StaticConfigs[0].Targets)

	a, err = renderPrometheus(dockerPlan())
	require.NoError(t, err)
	require.NoError(t, yaml.Unmarshal(a.Content, &cfg))
	assert.Equal(t, []string{"varnish:80"}, cfg.ScrapeConfigs[0].StaticConfigs[0].Targets)
}

func TestRenderDeterministic(t *testing.T) {
	first, err := Render(hybridPlan(), testMounts())
	require.NoError(t, err)
	second, err := Render(hybridPlan(), testMounts())
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Path, second[i].Path)
		assert.Equal(t, first[i].Content, second[i].Content, "artifact %s must render byte-identically", first[i].Name)
	}
}
