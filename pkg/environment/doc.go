// Package environment names the deployment environments a service can run in
// and parses them from configuration strings.
package environment
