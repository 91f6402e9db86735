package plugin

// Manifest is the metadata the host shows in its plugin list.
type Manifest struct {
	Name                string `json:"name" yaml:"name"`
	Description         string `json:"description" yaml:"description"`
	Category            string `json:"category" yaml:"category"`
	Version             string `json:"version" yaml:"version"`
	HasAdvancedSettings bool   `json:"hasAdvancedSettings" yaml:"hasAdvancedSettings"`
}

// Button labels set when a session starts.
const (
	RunButtonLabel      = "Merge"
	SettingsButtonLabel = "Settings"
)

const description = "A plugin to merge multiple entry list small molecule ligands into a single entry " +
	"with multiple frames. Frames use the small molecule's local coordinate space. " +
	"Ideal for creating multi-model SDFs."

// DefaultManifest returns the plugin's registration metadata.
func DefaultManifest(version string) Manifest {
	return Manifest{
		Name:                "Merge As Frames",
		Description:         description,
		Category:            "Tools",
		Version:             version,
		HasAdvancedSettings: true,
	}
}
