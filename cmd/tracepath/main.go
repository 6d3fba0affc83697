// cmd/tracepath/main.go
// Entrypoint for the `tracepath` multi‑tool CLI binary.  The file is intentionally
// tiny: it delegates all logic to the root command defined in root.go.  Keeping
// main.go minimal allows unit tests to import cmd/tracepath without executing
// side‑effects.
package main

import (
	"fmt"
	"os"
)

func main() {
    if err := Execute(); err != nil {
        _, _ = fmt.Fprintln(os.Stderr, err)
        os.Exit(1)
    }
}
