package generate

import (
	"bytes"
	"embed"
	"text/template"

	"github.com/lucidlink/teamcache/internal/config"
	"github.com/lucidlink/teamcache/internal/provision"
)

//go:embed templates
var templatesFS embed.FS

// renderTemplate renders an embedded template with the provided data.
func renderTemplate(name string, data any) ([]byte, error) {
	raw, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		return nil, &ConfigError{Artifact: name, Reason: err.Error()}
	}
	tmpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return nil, &ConfigError{Artifact: name, Reason: err.Error()}
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, &ConfigError{Artifact: name, Reason: err.Error()}
	}
	return buf.Bytes(), nil
}

// Render computes every artifact for the plan. The mounts are the
// provisioner's output, in device order; ordinals in mse4.conf and the
// compose bind paths follow that order.
func Render(plan config.Plan, mounts []provision.MountEntry) ([]Artifact, error) {
	var artifacts []Artifact

	add := func(a Artifact, err error) error {
		if err != nil {
			return err
		}
		artifacts = append(artifacts, a)
		return nil
	}

	if err := add(renderMSE4(plan, mounts)); err != nil {
		return nil, err
	}

	vcl, err := templatesFS.ReadFile("templates/default.vcl")
	if err != nil {
		return nil, &ConfigError{Artifact: "default.vcl", Reason: err.Error()}
	}
	vclPath := WorkDir + "/conf/default.vcl"
	if plan.DeploymentMode == config.ModeHybrid {
		vclPath = VarnishDir + "/default.vcl"
	}
	artifacts = append(artifacts, Artifact{Name: "default.vcl", Path: vclPath, Mode: 0o644, Content: vcl})

	if err := add(renderCacheUnit(plan, mounts)); err != nil {
		return nil, err
	}

	if plan.DeploymentMode == config.ModeDocker {
		if err := add(renderCompose(plan, mounts)); err != nil {
			return nil, err
		}
	}

	if plan.Monitoring {
		if err := add(renderPrometheus(plan)); err != nil {
			return nil, err
		}
		if err := add(renderGrafana(plan)); err != nil {
			return nil, err
		}
		if plan.DeploymentMode == config.ModeHybrid {
			if err := add(renderMonitoringCompose(plan)); err != nil {
				return nil, err
			}
			if err := add(renderMonitoringUnit()); err != nil {
				return nil, err
			}
		}
	}

	return artifacts, nil
}
