package domain

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestLocationFieldsFlattenInEveryEncoding(t *testing.T) {
	values := map[string]any{
		"link":  ParsedLocationLink{Location: Location{Lat: -6.17, Lon: 106.82}, Zoom: 15, Pattern: "at_zoom"},
		"place": Place{Location: Location{Lat: -6.17, Lon: 106.82}, DisplayName: "Monas"},
	}
	for name, value := range values {
		t.Run(name, func(t *testing.T) {
			var fromJSON map[string]any
			payload, err := json.Marshal(value)
			if err != nil {
				t.Fatalf("marshal json: %v", err)
			}
			if err := json.Unmarshal(payload, &fromJSON); err != nil {
				t.Fatalf("decode json: %v", err)
			}

			var fromYAML map[string]any
			payload, err = yaml.Marshal(value)
			if err != nil {
				t.Fatalf("marshal yaml: %v", err)
			}
			if err := yaml.Unmarshal(payload, &fromYAML); err != nil {
				t.Fatalf("decode yaml: %v", err)
			}

			if _, nested := fromYAML["location"]; nested {
				t.Fatalf("yaml nests the location:\n%s", payload)
			}
			for key := range fromJSON {
				if _, ok := fromYAML[key]; !ok {
					t.Fatalf("yaml is missing %q present in json; keys %s", key, strings.Join(keys(fromYAML), ","))
				}
			}
		})
	}
}

func keys(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for key := range m {
		out = append(out, key)
	}
	return out
}
