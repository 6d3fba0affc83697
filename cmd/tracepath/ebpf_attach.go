// cmd/tracepath/ebpf_attach.go
// Registers the `tracepath ebpf-attach` command for attaching to a running Go
// process with eBPF uprobes. Running it returns an error; no process is
// attached.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEBPFAttachCmd() *cobra.Command {
    return &cobra.Command{
        Use:   "ebpf-attach <pid>",
        Short: "Attach to a running Go process using eBPF uprobes (Linux only)",
        RunE: func(cmd *cobra.Command, args []string) error {
            return fmt.Errorf("eBPF attach not yet implemented")
        },
    }
}