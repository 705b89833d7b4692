package schema

import (
	"fmt"

	"github.com/go-viper/mapstructure/v2"
)

// Decode copies validated data onto a typed struct using its json tags.
// Keys missing from data leave the corresponding fields untouched, so
// pointer fields distinguish "absent" from "zero".
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("schema: build decoder: %w", err)
	}
	if err := dec.Decode(data); err != nil {
		return fmt.Errorf("schema: decode: %w", err)
	}
	return nil
}
