package config

import "reflect"

// EnvVar describes a single environment variable understood by torchd.
type EnvVar struct {
	Name        string // short name under the TORCHD_ prefix (e.g. "DATADIR")
	FullName    string // e.g. "TORCHD_DATADIR"
	Type        string
	Default     string // "" if none
	Description string
}

// EnvSpecs lists every supported env var, derived from the Config struct tags
// so the docs can never drift from the actual binding.
func EnvSpecs() []EnvVar {
	const prefix = "TORCHD_"

	t := reflect.TypeOf(Config{})
	specs := make([]EnvVar, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := f.Tag.Get("mapstructure")
		specs = append(specs, EnvVar{
			Name:        name,
			FullName:    prefix + name,
			Type:        f.Type.String(),
			Default:     f.Tag.Get("envDefault"),
			Description: f.Tag.Get("envInfo"),
		})
	}
	return specs
}

//go:generate go run ../../tools/gen-env-doc/main.go
