// Package pkgcache manages the on-disk lifecycle of one registry package:
// resolving "latest" to a concrete version, deriving the version-keyed cache
// directory, checking for an existing copy, installing or updating it through
// an Installer, and locating the installed entry file.
//
// A Package either works in cached mode (a store directory is set and the
// on-disk location is derived from name and version) or in direct mode (the
// caller names the exact target path and no version resolution happens).
//
// A Package is not safe for concurrent use. Two processes sharing one store
// directory are not coordinated either. The installer package stages every
// install and renames it into place, so a crash leaves at most a
// ".staging-*" directory in the store, never a half-filled cache directory.
package pkgcache
