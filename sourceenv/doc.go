// Package sourceenv provides fromenv sources backed by the process
// environment.
//
// Names are looked up verbatim, after an optional prefix is prepended:
// Options{Prefix: "APP_"} turns a lookup of DB_HOST into APP_DB_HOST.
//
// Example:
//
//	source := sourceenv.New(sourceenv.Options{Prefix: "APP_"})
//	loader := fromenv.NewLoader[Config]().WithSource(source)
package sourceenv
