package main

import (
	"encoding/json"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"github.com/mattsolo1/grove-gallery/cmd"
	"github.com/mattsolo1/grove-gallery/pkg/settings"
)

func main() {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}

	schema := r.Reflect(&cmd.GalleryConfig{})
	schema.Title = "Grove Gallery Configuration"
	schema.Description = "Schema for gallery.yml."

	// Every field has a default
	schema.Required = nil
	write("gallery.schema.json", schema)

	settingsSchema := r.Reflect(&settings.Settings{})
	settingsSchema.Title = "Grove Gallery Settings"
	settingsSchema.Description = "Schema for the character roster in settings.yml."
	write("settings.schema.json", settingsSchema)
}

func write(path string, schema *jsonschema.Schema) {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("Error marshaling %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Fatalf("Error writing %s: %v", path, err)
	}
	log.Printf("Successfully generated schema at %s", path)
}
