package wizard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lucidlink/teamcache/internal/config"
)

func TestBuildPlan(t *testing.T) {
	result := &WizardResult{
		DeploymentMode:  config.ModeDocker,
		Devices:         []string{"/dev/sdb"},
		DeviceMode:      config.DeviceModeFormat,
		ServerIP:        "10.0.0.5",
		Port:            8080,
		Monitoring:      true,
		GrafanaPassword: "hunter2hunter2",
		LicenseFile:     "/opt/varnish.lic",
		FormatConfirmed: true,
	}

	plan := BuildPlan(result)

	assert.Equal(t, config.ModeDocker, plan.DeploymentMode)
	assert.Equal(t, []string{"/dev/sdb"}, plan.Devices)
	assert.Equal(t, config.DeviceModeFormat, plan.DeviceMode)
	assert.Equal(t, "10.0.0.5", plan.ServerIP)
	assert.Equal(t, 8080, plan.Port)
	assert.True(t, plan.Monitoring)
	assert.Equal(t, "/opt/varnish.lic", plan.LicenseFile)
	assert.True(t, plan.AutoConfirm, "in-wizard confirmation carries into the plan")
}

func TestBuildPlanAutoConfirm(t *testing.T) {
	tests := []struct {
		name      string
		mode      string
		confirmed bool
		want      bool
	}{
		{"format confirmed", config.DeviceModeFormat, true, true},
		{"format declined", config.DeviceModeFormat, false, false},
		{"reuse needs no confirmation", config.DeviceModeReuse, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := BuildPlan(&WizardResult{DeviceMode: tt.mode, FormatConfirmed: tt.confirmed})
			assert.Equal(t, tt.want, plan.AutoConfirm)
		})
	}
}

func TestBuildPlanDefaultLicense(t *testing.T) {
	plan := BuildPlan(&WizardResult{DeviceMode: config.DeviceModeReuse})
	assert.Equal(t, config.DefaultLicenseFile, plan.LicenseFile)
}

func TestValidators(t *testing.T) {
	assert.ErrorIs(t, validateDeviceSelection(nil), errDevicesRequired)
	assert.NoError(t, validateDeviceSelection([]string{"/dev/sdb"}))

	assert.ErrorIs(t, validateServerIP(""), errServerIPRequired)
	assert.ErrorIs(t, validateServerIP("999.1.1.1"), errServerIPInvalid)
	assert.NoError(t, validateServerIP("192.168.1.10"))

	assert.ErrorIs(t, validatePassword(""), errPasswordRequired)
	assert.ErrorIs(t, validatePassword("short"), errPasswordTooShort)
	assert.NoError(t, validatePassword("longenough"))
}
