// Package all registers all optional shell commands.
package all

import (
	_ "github.com/robotalks/rcx.go/pkg/cli/cmds/scripts"
)
