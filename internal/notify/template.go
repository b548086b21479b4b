package notify

import (
	"bytes"
	"fmt"
	"strconv"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
)

// TemplateData holds all data available to notification templates.
type TemplateData struct {
	Target map[string]string
	Status map[string]string
	Event  map[string]string
}

// BuildTemplateData flattens a message into the maps templates read from.
func BuildTemplateData(msg Message) TemplateData {
	return TemplateData{
		Target: map[string]string{
			"name":    msg.Target,
			"map_id":  strconv.Itoa(msg.MapID),
			"map_url": msg.MapURL,
		},
		Status: map[string]string{
			"level":  msg.Level,
			"detail": msg.Detail,
		},
		Event: map[string]string{
			"kind":  string(msg.Kind),
			"time":  msg.Time.Format(time.DateTime),
			"emoji": statusEmoji(msg.Kind, msg.Level),
		},
	}
}

func statusEmoji(kind Kind, level string) string {
	if kind == KindRecovery {
		return "\u2705" // ✅
	}
	switch level {
	case "error":
		return "\U0001f6a8" // 🚨
	case "warning":
		return "\U0001f7e1" // 🟡
	case "ok":
		return "\U0001f7e2" // 🟢
	default:
		return "\u2753" // ❓
	}
}

// Render executes a Go text/template string with Sprig functions and the
// accessor functions target, status and event.
func Render(tmplStr string, data TemplateData) (string, error) {
	funcMap := sprig.TxtFuncMap()

	// {{target.name}}: "target" returns the map, ".name" reads a key.
	funcMap["target"] = func() map[string]string { return data.Target }
	funcMap["status"] = func() map[string]string { return data.Status }
	funcMap["event"] = func() map[string]string { return data.Event }

	t, err := template.New("notify").Funcs(funcMap).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
