// Package config loads policyctl configuration.
//
// Configuration is read from an optional YAML file, then environment
// overrides are applied, then the result is validated. Values are applied in
// this order (later overrides earlier):
//
//  1. Default values (defined in defaults.go)
//  2. Values from the YAML file
//  3. Environment variables CASBINSQL_DATABASE_DRIVER, CASBINSQL_DATABASE_DSN,
//     CASBINSQL_DATABASE_DIALECT, CASBINSQL_DATABASE_TABLE, CASBINSQL_MODEL_PATH
//     and CASBINSQL_LOG_LEVEL
//
// Example file:
//
//	database:
//	  driver: pgx
//	  dsn: postgres://casbin@localhost/authz
//	  table: casbin_rule
//	model:
//	  path: ./rbac_model.conf
//	log:
//	  level: debug
//
// Validation collects every problem into a ValidationError.
package config
