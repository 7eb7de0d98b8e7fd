// Package runtime starts child processes: the install and start commands of
// a scaffolded project, and Node.js for package entry points. Children
// inherit the CLI's standard streams unless told otherwise. On Windows every
// command is routed through "cmd /c" so that .cmd shims such as npm resolve.
package runtime
