// cmd/tracepath/kubectl.go
// Registers the `tracepath kubectl` command for port‑forwarding a Kubernetes
// Pod and attaching to it. Running it returns an error; no port‑forward or
// attach is performed.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newKubectlCmd() *cobra.Command {
    return &cobra.Command{
        Use:   "kubectl attach -n <namespace> <resource>",
        Short: "Port-forward and attach to a Kubernetes Pod",
        RunE: func(cmd *cobra.Command, args []string) error {
            return fmt.Errorf("kubectl attach not yet implemented")
        },
    }
}