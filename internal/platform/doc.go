// Package platform papers over OS differences in the filesystem operations
// the installer needs: directory links into node_modules and permission bits
// restored from package tarballs. Windows without developer mode cannot
// create symlinks; there a .target sidecar records the intended link.
package platform
