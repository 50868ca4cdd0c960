// Package fromenv builds typed configuration values from environment
// variables, with errors that name the failing field and an inventory of
// every variable a type may read.
//
// Quick Start:
//
//	type Database struct {
//	    Host string `fromenv:"var:DB_HOST" desc:"database host name"`
//	    Port uint16 `fromenv:"var:DB_PORT" desc:"database port"`
//	}
//
//	type Config struct {
//	    Database Database
//	    Debug    fromenv.Optional[fromenv.Flag] `fromenv:"var:DEBUG,optional" desc:"enable debug output"`
//	    Cache    *Cache                         `fromenv:"skip"`
//	}
//
//	cfg, err := fromenv.NewLoader[Config]().
//	    WithSource(sourceenv.New(sourceenv.Options{Prefix: "APP_"})).
//	    Load(context.Background())
//
// Tag directives: var:NAME, optional, infallible, secret, skip. Every var
// needs a `desc` tag. Untagged struct fields are nested configurations.
//
// Absent and empty variables fail with KindInput and KindEmpty and are never
// re-wrapped; parse failures are tagged with a *FieldError per nesting level.
// Optional fields turn the former into an unset value and keep the latter.
//
// Types can also implement Config by hand and be embedded in tagged structs.
package fromenv
