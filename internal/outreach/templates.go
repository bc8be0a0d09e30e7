// Package outreach renders and sends campaign emails and advances leads
// through the campaign steps.
package outreach

import (
	"bytes"
	_ "embed"
	"html"
	"os"
	"strings"
	"text/template"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-cli/internal/config"
	"github.com/sells-group/leadgen-cli/internal/model"
)

//go:embed templates.yaml
var defaultTemplates []byte

// ErrInvalidStep is returned for a step outside the campaign.
var ErrInvalidStep = eris.New("outreach: invalid campaign step")

var locationMarkers = []struct{ marker, location string }{
	{"Harley", "Harley Street"},
	{"Kensington", "Kensington"},
	{"Chelsea", "Chelsea"},
	{"Mayfair", "Mayfair"},
}

const defaultLocation = "London"

// Vars are the fields available to a template.
type Vars struct {
	SellerName      string
	CompanyName     string
	LeadCompanyName string
	Location        string
	Email           string
	Phone           string
	Website         string
	Step            int
}

// NewVars builds template fields for a lead.
func NewVars(lead *model.Lead, cfg config.CampaignConfig, step int) Vars {
	v := Vars{
		SellerName:      cfg.SellerName,
		CompanyName:     cfg.CompanyName,
		LeadCompanyName: lead.CompanyName,
		Location:        defaultLocation,
		Phone:           "not provided",
		Website:         "not available",
		Step:            step,
	}
	if lead.Address != nil {
		v.Location = LocationFor(*lead.Address)
	}
	if lead.Email != nil {
		v.Email = *lead.Email
	}
	if lead.HasPhone() {
		v.Phone = *lead.Phone
	}
	if lead.HasWebsite() {
		v.Website = *lead.WebsiteURL
	}
	return v
}

// LocationFor names the district of an address for use in copy.
func LocationFor(address string) string {
	for _, m := range locationMarkers {
		if strings.Contains(address, m.marker) {
			return m.location
		}
	}
	return defaultLocation
}

// Message is a rendered email.
type Message struct {
	Template string
	Subject  string
	Text     string
	HTML     string
}

// Content is the form stored on the interaction record.
func (m *Message) Content() string {
	return "Subject: " + m.Subject + "\n\n" + m.Text
}

type templateFile struct {
	Steps []struct {
		Step    int    `yaml:"step"`
		Name    string `yaml:"name"`
		Subject string `yaml:"subject"`
		Body    string `yaml:"body"`
	} `yaml:"steps"`
}

type stepTemplate struct {
	name    string
	subject *template.Template
	body    *template.Template
}

// Templates holds the parsed template for every campaign step.
type Templates struct {
	steps map[int]stepTemplate
}

// LoadTemplates parses the file at path, or the built-in templates when
// path is empty.
func LoadTemplates(path string) (*Templates, error) {
	data := defaultTemplates
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "outreach: read templates %s", path)
		}
		data = b
	}
	return ParseTemplates(data)
}

// ParseTemplates parses YAML template definitions. Every step must be present.
func ParseTemplates(data []byte) (*Templates, error) {
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, eris.Wrap(err, "outreach: parse templates")
	}

	t := &Templates{steps: make(map[int]stepTemplate, len(file.Steps))}
	for _, s := range file.Steps {
		if !model.ValidStep(s.Step) {
			return nil, eris.Wrapf(ErrInvalidStep, "outreach: template step %d", s.Step)
		}
		name := s.Name
		if name == "" {
			name = model.StepTemplateName(s.Step)
		}
		subject, err := template.New(name + "_subject").Option("missingkey=error").Parse(s.Subject)
		if err != nil {
			return nil, eris.Wrapf(err, "outreach: parse subject for step %d", s.Step)
		}
		body, err := template.New(name).Option("missingkey=error").Parse(s.Body)
		if err != nil {
			return nil, eris.Wrapf(err, "outreach: parse body for step %d", s.Step)
		}
		t.steps[s.Step] = stepTemplate{name: name, subject: subject, body: body}
	}

	for step := model.FirstStep; step <= model.FinalStep; step++ {
		if _, ok := t.steps[step]; !ok {
			return nil, eris.Errorf("outreach: no template for step %d", step)
		}
	}
	return t, nil
}

// Render fills in the template for step.
func (t *Templates) Render(step int, vars Vars) (*Message, error) {
	st, ok := t.steps[step]
	if !ok {
		return nil, eris.Wrapf(ErrInvalidStep, "outreach: render step %d", step)
	}

	var subject, body bytes.Buffer
	if err := st.subject.Execute(&subject, vars); err != nil {
		return nil, eris.Wrapf(err, "outreach: render subject for step %d", step)
	}
	if err := st.body.Execute(&body, vars); err != nil {
		return nil, eris.Wrapf(err, "outreach: render body for step %d", step)
	}

	msg := &Message{
		Template: st.name,
		Subject:  strings.TrimSpace(subject.String()),
		Text:     strings.TrimSpace(body.String()),
	}
	if msg.Subject == "" {
		msg.Subject = "Partnership Opportunity - " + vars.LeadCompanyName
	}
	msg.HTML = htmlBody(msg.Text)
	return msg, nil
}

func htmlBody(text string) string {
	escaped := strings.ReplaceAll(html.EscapeString(text), "\n", "<br>\n")
	return `<html><body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">` +
		escaped + `</body></html>`
}
