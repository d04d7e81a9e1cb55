package providers

import "net/url"

// DefaultLinkParam is the survey link query parameter echoed back as the
// dynamic part of URL-button templates.
const DefaultLinkParam = "id"

// Template describes an approved, parameterized message.
type Template struct {
	Name          string
	Language      string
	RecipientName string
	TargetLink    string
	// ButtonParam is the dynamic suffix of the URL button. Empty means the
	// link had no such parameter and the button slot is omitted.
	ButtonParam string
}

// TemplateConfig holds the static part of a provider's template.
type TemplateConfig struct {
	Name      string
	Language  string
	LinkParam string
}

// Build fills the dynamic parts for one recipient.
func (c TemplateConfig) Build(recipientName, targetLink string) *Template {
	param := c.LinkParam
	if param == "" {
		param = DefaultLinkParam
	}
	return &Template{
		Name:          c.Name,
		Language:      c.Language,
		RecipientName: recipientName,
		TargetLink:    targetLink,
		ButtonParam:   queryParam(targetLink, param),
	}
}

func queryParam(link, key string) string {
	u, err := url.Parse(link)
	if err != nil {
		return ""
	}
	return u.Query().Get(key)
}

// TemplateLanguage is the language block of a template payload.
type TemplateLanguage struct {
	Code string `json:"code"`
}

// TemplateParameter is one positional template parameter.
type TemplateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TemplateComponent is a body or button component of a template payload.
type TemplateComponent struct {
	Type       string              `json:"type"`
	SubType    string              `json:"sub_type,omitempty"`
	Index      string              `json:"index,omitempty"`
	Parameters []TemplateParameter `json:"parameters"`
}

// TemplatePayload is the template block of an outbound message.
type TemplatePayload struct {
	Name       string              `json:"name"`
	Language   TemplateLanguage    `json:"language"`
	Components []TemplateComponent `json:"components"`
}

// TextPayload is the text block of an outbound freeform message.
type TextPayload struct {
	Body string `json:"body"`
}

// Payload renders t in the shared template shape: a body component with the
// recipient name, plus a URL button component when ButtonParam is set.
func (t *Template) Payload() TemplatePayload {
	components := []TemplateComponent{{
		Type:       "body",
		Parameters: []TemplateParameter{{Type: "text", Text: t.RecipientName}},
	}}
	if t.ButtonParam != "" {
		components = append(components, TemplateComponent{
			Type:       "button",
			SubType:    "url",
			Index:      "0",
			Parameters: []TemplateParameter{{Type: "text", Text: t.ButtonParam}},
		})
	}
	return TemplatePayload{
		Name:       t.Name,
		Language:   TemplateLanguage{Code: t.Language},
		Components: components,
	}
}
