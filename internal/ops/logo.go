package ops

import (
	"bytes"
	"encoding/xml"
	"log"
	"strings"
	"text/template"

	"github.com/zlormann/giveaway-linux/internal/config"
	"github.com/zlormann/giveaway-linux/internal/errors"
)

var logoTemplate = template.Must(template.New("logo").Funcs(template.FuncMap{
	"xml": func(s string) (string, error) {
		var buf bytes.Buffer
		if err := xml.EscapeText(&buf, []byte(s)); err != nil {
			return "", err
		}
		return buf.String(), nil
	},
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" width="820" height="220" viewBox="0 0 820 220">
  <defs>
    <linearGradient id="bg" x1="0" x2="1">
      <stop offset="0" stop-color="#0b1220"/>
      <stop offset="1" stop-color="#111827"/>
    </linearGradient>
    <linearGradient id="accent" x1="0" x2="1">
      <stop offset="0" stop-color="#22c55e"/>
      <stop offset="1" stop-color="#38bdf8"/>
    </linearGradient>
  </defs>

  <rect x="0" y="0" width="820" height="220" rx="22" fill="url(#bg)"/>
  <g transform="translate(56,46)">
    <rect x="0" y="0" width="128" height="128" rx="28" fill="#0f172a" stroke="url(#accent)" stroke-width="3"/>
    <g transform="translate(22,28)">
      <rect x="10" y="44" width="64" height="48" rx="10" fill="#111827" stroke="#1f2937" stroke-width="2"/>
      <rect x="10" y="44" width="64" height="16" rx="8" fill="url(#accent)" opacity="0.9"/>
      <rect x="40" y="44" width="8" height="48" fill="url(#accent)" opacity="0.9"/>
      <path d="M40 44 C28 34, 22 26, 26 20 C30 14, 42 18, 44 30 C46 18, 58 14, 62 20 C66 26, 60 34, 48 44"
            fill="none" stroke="url(#accent)" stroke-width="6" stroke-linecap="round" stroke-linejoin="round"/>
    </g>
  </g>

  <g transform="translate(210,78)">
    <text x="0" y="0" font-family="Inter,Segoe UI,Roboto,Arial,sans-serif" font-size="44" font-weight="800" fill="#e5e7eb">
      {{xml .Lead}}{{with .Accent}} <tspan fill="url(#accent)">{{xml .}}</tspan>{{end}}
    </text>
    <text x="2" y="46" font-family="Inter,Segoe UI,Roboto,Arial,sans-serif" font-size="18" fill="#9ca3af">
      {{xml .Tagline}}
    </text>
  </g>
</svg>
`))

type logoData struct {
	Lead    string
	Accent  string
	Tagline string
}

// RenderLogo renders the project logo as SVG. The first word of the project
// name is drawn plain and the rest in the accent gradient.
func RenderLogo(projectName, tagline string) ([]byte, error) {
	words := strings.Fields(projectName)
	if len(words) == 0 {
		return nil, errors.NewInvalidRequest("project name is required")
	}

	data := logoData{
		Lead:    words[0],
		Accent:  strings.Join(words[1:], " "),
		Tagline: strings.TrimSpace(tagline),
	}

	var buf bytes.Buffer
	if err := logoTemplate.Execute(&buf, data); err != nil {
		return nil, errors.NewInternal(err)
	}
	return buf.Bytes(), nil
}

// LogoOutput contains the result of the WriteLogo operation.
type LogoOutput struct {
	Path string `json:"path"`
}

// WriteLogo renders the configured logo to assets/logo-giveaway-linux.svg.
func WriteLogo(layout Layout, cfg *config.Config) (*LogoOutput, error) {
	data, err := RenderLogo(cfg.ProjectName, cfg.Tagline)
	if err != nil {
		return nil, err
	}
	return writeLogo(layout, data)
}

func writeLogo(layout Layout, data []byte) (*LogoOutput, error) {
	path := layout.LogoPath()
	if err := writeFileAtomic(path, data); err != nil {
		return nil, err
	}
	log.Printf("updated %s", LogoFile)
	return &LogoOutput{Path: path}, nil
}
