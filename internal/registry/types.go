package registry

// Metadata is the subset of a registry package document the CLI reads.
type Metadata struct {
	Name     string                     `json:"name"`
	DistTags map[string]string          `json:"dist-tags"`
	Versions map[string]VersionMetadata `json:"versions"`
}

// VersionMetadata describes one published version.
type VersionMetadata struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Main    string `json:"main,omitempty"`
	Dist    Dist   `json:"dist"`
}

// Dist locates and fingerprints a version's tarball.
type Dist struct {
	Tarball string `json:"tarball"`
	// Shasum is the hex SHA-1 of the tarball.
	Shasum string `json:"shasum,omitempty"`
	// Integrity is a Subresource Integrity string, e.g. "sha512-<base64>".
	Integrity string `json:"integrity,omitempty"`
}
