package config

import (
	"bytes"
	_ "embed"
	"os"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// File names rendered from templates into the deploy root.
const (
	ComposeFileName = "compose.yaml"
	CaddyFileName   = "Caddyfile"
)

//go:embed templates/compose.yaml.tmpl
var composeTemplate string

//go:embed templates/Caddyfile.tmpl
var caddyTemplate string

// RenderedFile is one deployable file produced from a template.
type RenderedFile struct {
	Name    string
	Content []byte
	Mode    os.FileMode
}

// templateData is what the deployment templates see.
type templateData struct {
	FacilitatorImage string
	ProxyImage       string
	Port             int
	Domain           string
	Network          string
}

// RenderBundle renders the deployable files for a manifest: the compose
// topology and the proxy config. config.toml and .env are not part of
// the bundle; they are materialized separately so operator edits and
// generated secrets survive redeploys.
func RenderBundle(m *Manifest) ([]RenderedFile, error) {
	data := templateData{
		FacilitatorImage: m.Images.Facilitator,
		ProxyImage:       m.Images.Proxy,
		Port:             m.Facilitator.Port,
		Domain:           m.Facilitator.Domain,
		Network:          m.Facilitator.Network,
	}

	compose, err := renderTemplate(ComposeFileName, composeTemplate, data)
	if err != nil {
		return nil, err
	}
	caddy, err := renderTemplate(CaddyFileName, caddyTemplate, data)
	if err != nil {
		return nil, err
	}

	return []RenderedFile{
		{Name: ComposeFileName, Content: compose, Mode: 0o644},
		{Name: CaddyFileName, Content: caddy, Mode: 0o644},
	}, nil
}

func renderTemplate(name, text string, data templateData) ([]byte, error) {
	tmpl, err := template.New(name).Funcs(sprig.FuncMap()).Parse(text)
	if err != nil {
		return nil, NewTemplateError(name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, NewTemplateError(name, err)
	}
	return buf.Bytes(), nil
}
