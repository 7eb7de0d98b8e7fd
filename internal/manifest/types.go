package manifest

// FileName is the manifest file name looked up by the locator.
const FileName = "package.json"

// PackageJSON holds the manifest fields the CLI reads.
type PackageJSON struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"description,omitempty"`
	Main         string            `json:"main,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}
