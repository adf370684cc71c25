package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/generate"
	"github.com/lucidlink/teamcache/internal/platform/shell"
)

func testInstaller(t *testing.T, runner shell.Runner) (*Installer, string) {
	t.Helper()
	root := t.TempDir()
	return NewInstaller(runner, zerolog.Nop(), WithRoot(root)), root
}

func testPlan(t *testing.T) config.Plan {
	t.Helper()
	lic := filepath.Join(t.TempDir(), "varnish.lic")
	require.NoError(t, os.WriteFile(lic, []byte("license-body"), 0o640))

	plan := config.NewPlan()
	plan.ServerIP = "192.168.1.10"
	plan.GrafanaPassword = "secret"
	plan.LicenseFile = lic
	return plan
}

func testArtifacts() []generate.Artifact {
	return []generate.Artifact{
		{Name: "mse4.conf", Path: "/etc/varnish/mse4.conf", Mode: 0o644, Content: []byte("env: {}\n")},
		{Name: "teamcache.service", Path: "/etc/systemd/system/teamcache.service", Mode: 0o644, Content: []byte("[Unit]\n")},
		{Name: "tc-grafana.service", Path: "/etc/systemd/system/tc-grafana.service", Mode: 0o644, Content: []byte("[Unit]\n")},
	}
}

func TestInstall(t *testing.T) {
	runner := shell.NewFakeRunner()
	inst, root := testInstaller(t, runner)

	require.NoError(t, inst.Install(context.Background(), testPlan(t), testArtifacts()))

	content, err := os.ReadFile(filepath.Join(root, "etc/varnish/mse4.conf"))
	require.NoError(t, err)
	assert.Equal(t, "env: {}\n", string(content))

	lic, err := os.ReadFile(filepath.Join(root, "etc/varnish/varnish-enterprise.lic"))
	require.NoError(t, err)
	assert.Equal(t, "license-body", string(lic))

	assert.FileExists(t, filepath.Join(root, "etc/systemd/system/teamcache.service"))
	assert.Len(t, runner.CallsMatching("systemctl daemon-reload"), 1)
	assert.Len(t, runner.CallsMatching("systemctl enable teamcache.service"), 1)
	assert.Len(t, runner.CallsMatching("systemctl start teamcache.service"), 1)
	assert.Len(t, runner.CallsMatching("systemctl start tc-grafana.service"), 1)
}

func TestInstallStopsRunningUnitBeforeReplacing(t *testing.T) {
	runner := shell.NewFakeRunner()
	runner.Respond("systemctl is-active teamcache.service", "active")
	inst, _ := testInstaller(t, runner)

	require.NoError(t, inst.Install(context.Background(), testPlan(t), testArtifacts()))

	calls := runner.Calls()
	stop := indexOf(calls, "systemctl stop teamcache.service")
	reload := indexOf(calls, "systemctl daemon-reload")
	start := indexOf(calls, "systemctl start teamcache.service")
	require.NotEqual(t, -1, stop, "running unit must be stopped")
	require.NotEqual(t, -1, start)
	assert.Less(t, stop, reload, "stop happens before the unit file is reloaded")
	assert.Less(t, reload, start, "start happens after daemon-reload")
}

func TestInstallInactiveUnitNotStopped(t *testing.T) {
	runner := shell.NewFakeRunner()
	runner.Fail("systemctl is-active", errors.New("inactive"))
	inst, _ := testInstaller(t, runner)

	require.NoError(t, inst.Install(context.Background(), testPlan(t), testArtifacts()))

	assert.Empty(t, runner.CallsMatching("systemctl stop"))
}

func TestInstallDockerLicenseLocation(t *testing.T) {
	runner := shell.NewFakeRunner()
	inst, root := testInstaller(t, runner)

	plan := testPlan(t)
	plan.DeploymentMode = config.ModeDocker

	require.NoError(t, inst.Install(context.Background(), plan, testArtifacts()))

	assert.FileExists(t, filepath.Join(root, "opt/teamcache/varnish-enterprise.lic"))
}

func TestInstallMissingLicenseIsWarning(t *testing.T) {
	runner := shell.NewFakeRunner()
	inst, root := testInstaller(t, runner)

	plan := testPlan(t)
	plan.LicenseFile = filepath.Join(t.TempDir(), "absent.lic")

	require.NoError(t, inst.Install(context.Background(), plan, testArtifacts()))
	assert.NoFileExists(t, filepath.Join(root, "etc/varnish/varnish-enterprise.lic"))
}

func TestInstallSystemctlFailure(t *testing.T) {
	runner := shell.NewFakeRunner()
	runner.Fail("systemctl enable tc-grafana.service", errors.New("unit masked"))
	inst, _ := testInstaller(t, runner)

	err := inst.Install(context.Background(), testPlan(t), testArtifacts())
	require.Error(t, err)

	var se *ServiceError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "tc-grafana.service", se.Unit)
	assert.Equal(t, "enable", se.Op)
	assert.True(t, IsServiceError(err))
}

func indexOf(calls []string, call string) int {
	for i, c := range calls {
		if strings.HasPrefix(c, call) {
			return i
		}
	}
	return -1
}
