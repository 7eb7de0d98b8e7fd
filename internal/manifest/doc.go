// Package manifest reads package.json manifests and locates a package's
// declared entry file.
package manifest
