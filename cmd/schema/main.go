// Command schema regenerates the JSON schema embedded into pkg/config,
// used to verify starscope.yml at startup. Invoked through go:generate
// from the config package.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/umputun/starscope/pkg/config"
)

func main() {
	schema := jsonschema.Reflect(&config.Config{})

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal config schema: %v", err)
	}

	// output defaults to schema.json in the invoking package dir
	outputPath := "schema.json"
	if len(os.Args) > 1 {
		outputPath = os.Args[1]
	}

	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		log.Fatalf("failed to write %s: %v", outputPath, err)
	}

	fmt.Printf("config schema written to %s\n", outputPath)
}
