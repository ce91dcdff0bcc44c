// Package paths resolves the on-disk locations of every configuration file
// and state directory from a config_paths.json override layered over
// compiled-in defaults. It is the leaf dependency of the other configuration
// stores: they ask the resolver where to read and write, never the
// filesystem directly.
package paths
