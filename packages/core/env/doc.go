// Package env builds the environment handed to test commands.
//
// It provides functionality for:
//   - Loading .env files
//   - Expanding ${NAME} references in configured variables and command lines
//   - Merging variable sources, later sources taking precedence
package env
