// Package registry talks to an npm-compatible package registry. Client
// fetches a package's metadata document; Resolver turns the published
// version list into concrete versions ("latest", or the newest version
// above a given one) using semantic-version ordering.
package registry
