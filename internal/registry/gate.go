// SPDX-License-Identifier: MPL-2.0

package registry

import (
	"reflect"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnableAliasesEnvVar is the opt-in switch for compat aliasing. Aliasing
// silently rebinds legacy names, so it must never activate by accident:
// only the truthy spellings "1", "true" and "yes" (case-insensitive) turn
// it on, anything else leaves the registry untouched.
const EnableAliasesEnvVar = "MODSHIM_COMPAT_ALIASES"

type (
	// TruthyFlag is a bool that parses from the small truthy allow-list
	// instead of strconv.ParseBool. Unknown values are falsy, never errors.
	TruthyFlag bool

	// Gate holds the environment switches read at startup.
	Gate struct {
		// CompatAliases enables applying configured alias pairs.
		CompatAliases TruthyFlag `env:"MODSHIM_COMPAT_ALIASES"`
	}
)

// ParseTruthy maps "1", "true" and "yes" (any case, surrounding space
// ignored) to true and every other value, including empty, to false.
func ParseTruthy(v string) TruthyFlag {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// LoadGate reads the gate switches from the process environment.
func LoadGate() (Gate, error) {
	return env.ParseAsWithOptions[Gate](env.Options{
		FuncMap: map[reflect.Type]env.ParserFunc{
			reflect.TypeOf(TruthyFlag(false)): func(v string) (any, error) {
				return ParseTruthy(v), nil
			},
		},
	})
}
