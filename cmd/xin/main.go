// Command xin is an agent-first JMAP mail client.
package main

import (
	"context"

	"github.com/mikluko/xin/internal/cli"
)

func main() {
	cli.Execute(context.Background())
}
