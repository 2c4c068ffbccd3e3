// Package output renders sidconf-cli results as a table, JSON or YAML.
//
// Tables are built from structs, slices of structs and maps by reflection,
// using the json tag for column names. Fields tagged `table:"wide"` only
// appear with --wide.
package output
