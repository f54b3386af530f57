package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mikluko/xin/internal/envelope"
)

// renderPlain prints a terse human-readable summary of env to stdout. It
// never attempts to reproduce the full JSON shape; --json remains the
// contract for programmatic consumers.
func renderPlain(env *envelope.Envelope) {
	if !env.OK {
		fmt.Printf("error: %s: %s\n", env.Err.Kind, env.Err.Message)
		return
	}

	switch data := env.Data.(type) {
	case map[string]any:
		if items, ok := data["items"].([]map[string]any); ok {
			renderItems(items)
			if total, ok := data["total"]; ok {
				fmt.Printf("(%v total)\n", total)
			}
			if env.Meta.NextPage != "" {
				fmt.Printf("next page: %s\n", env.Meta.NextPage)
			}
			return
		}
		renderKV(data)
	default:
		out, _ := json.Marshal(env.Data)
		fmt.Println(string(out))
	}
	for _, w := range env.Meta.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
}

func renderItems(items []map[string]any) {
	for _, item := range items {
		id := item["emailId"]
		if id == nil {
			id = item["id"]
		}
		subject := item["subject"]
		from := item["from"]
		fmt.Printf("%-28v %-40v %v\n", id, subject, from)
	}
}

func renderKV(data map[string]any) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	for _, k := range keys {
		v := data[k]
		if s, ok := v.(string); ok && strings.Contains(s, "\n") {
			fmt.Printf("%s:\n%s\n", k, s)
			continue
		}
		fmt.Printf("%s: %v\n", k, v)
	}
}
