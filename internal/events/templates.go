package events

import (
	"fmt"
	"strings"
)

// MessageTemplateEngine provides dynamic message generation for events.
type MessageTemplateEngine struct {
	templates map[EventReason]string
}

// NewMessageTemplateEngine creates a new message template engine with default templates.
func NewMessageTemplateEngine() *MessageTemplateEngine {
	engine := &MessageTemplateEngine{
		templates: make(map[EventReason]string),
	}
	engine.loadDefaultTemplates()
	return engine
}

// loadDefaultTemplates initializes the default message templates for all event reasons.
func (e *MessageTemplateEngine) loadDefaultTemplates() {
	e.templates[ReasonInstanceCreated] = "Lab instance {{.Name}} accepted (template {{.Template}}, requested by {{.RequestedBy}})"
	e.templates[ReasonProvisioningStarted] = "Provisioning started for lab instance {{.Name}}"
	e.templates[ReasonInstanceReady] = "Lab instance {{.Name}} is ready{{if .Endpoint}} at {{.Endpoint}}{{end}}"
	e.templates[ReasonTeardownStarted] = "Teardown started for lab instance {{.Name}}{{if .Detail}} ({{.Detail}}){{end}}"
	e.templates[ReasonInstanceDeleted] = "Lab instance {{.Name}} deleted"
	e.templates[ReasonInstanceFailed] = "Lab instance {{.Name}} failed{{if .Error}}: {{.Error}}{{end}}"
}

// Render generates a message for the given event reason and data.
func (e *MessageTemplateEngine) Render(reason EventReason, data EventData) string {
	template, exists := e.templates[reason]
	if !exists {
		// Fallback for unknown event reasons
		return fmt.Sprintf("Event: %s for %s", string(reason), data.Name)
	}

	return e.renderTemplate(template, data)
}

// SetTemplate allows customizing the message template for a specific event reason.
func (e *MessageTemplateEngine) SetTemplate(reason EventReason, template string) {
	e.templates[reason] = template
}

// GetTemplate returns the template for a specific event reason.
func (e *MessageTemplateEngine) GetTemplate(reason EventReason) (string, bool) {
	template, exists := e.templates[reason]
	return template, exists
}

// renderTemplate performs simple template rendering with EventData.
// This is a simplified template system that supports basic variable substitution.
func (e *MessageTemplateEngine) renderTemplate(template string, data EventData) string {
	// Conditional blocks go first so their inner variables survive.
	result := e.renderConditionals(template, data)

	result = strings.ReplaceAll(result, "{{.Name}}", data.Name)
	result = strings.ReplaceAll(result, "{{.Template}}", data.Template)
	result = strings.ReplaceAll(result, "{{.RequestedBy}}", data.RequestedBy)
	result = strings.ReplaceAll(result, "{{.Endpoint}}", data.Endpoint)
	result = strings.ReplaceAll(result, "{{.Detail}}", data.Detail)
	result = strings.ReplaceAll(result, "{{.Error}}", data.Error)

	return result
}

// renderConditionals handles simple conditional rendering in templates.
// Supports: {{if .FieldName}}content{{end}}
func (e *MessageTemplateEngine) renderConditionals(template string, data EventData) string {
	result := template

	result = e.renderConditional(result, "{{if .Endpoint}}", "{{end}}", data.Endpoint != "")
	result = e.renderConditional(result, "{{if .Detail}}", "{{end}}", data.Detail != "")
	result = e.renderConditional(result, "{{if .Error}}", "{{end}}", data.Error != "")

	return result
}

// renderConditional handles a single conditional block.
func (e *MessageTemplateEngine) renderConditional(template, startMarker, endMarker string, condition bool) string {
	startIndex := strings.Index(template, startMarker)
	if startIndex == -1 {
		return template
	}

	endIndex := strings.Index(template[startIndex:], endMarker)
	if endIndex == -1 {
		return template
	}

	endIndex += startIndex // Convert to absolute index

	if condition {
		// Keep the content between markers, remove the markers
		before := template[:startIndex]
		content := template[startIndex+len(startMarker) : endIndex]
		after := template[endIndex+len(endMarker):]
		return before + content + after
	}
	// Remove the entire conditional block
	before := template[:startIndex]
	after := template[endIndex+len(endMarker):]
	return before + after
}
