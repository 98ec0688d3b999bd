package drivershim

import "encoding/json"

const (
	// ResourceRoot names the directory the host resolves override assets
	// against.
	ResourceRoot = "distortion_shim"

	// SettingsSchemaPath points host tooling at the descriptor of the
	// tunable override values, relative to the resource root.
	SettingsSchemaPath = "{distortion_shim}/settings/settingsschema.json"
)

// SettingsControl describes one tunable value for host-side settings
// UIs: its storage key, display name, range and default.
type SettingsControl struct {
	Key     string  `json:"key"`
	Name    string  `json:"name"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Step    float64 `json:"step"`
	Default float64 `json:"default"`
}

// SettingsSchemaSpec is the serialized descriptor published under
// SettingsSchemaPath.
type SettingsSchemaSpec struct {
	SchemaVersion int               `json:"schema_version"`
	Section       string            `json:"section"`
	Controls      []SettingsControl `json:"controls"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// MarshalIndent renders the descriptor the way it is shipped on disk.
func (s SettingsSchemaSpec) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func centerControl(key, name string) SettingsControl {
	return SettingsControl{Key: key, Name: name, Min: 0, Max: 1, Step: 0.001, Default: 0.5}
}

func coefficientControl(key, name string) SettingsControl {
	return SettingsControl{Key: key, Name: name, Min: -1, Max: 1, Step: 1e-6, Default: 0}
}

func focalControl(key, name string) SettingsControl {
	return SettingsControl{Key: key, Name: name, Min: 0.01, Max: 4, Step: 0.001, Default: 0.5}
}

func principalControl(key, name string) SettingsControl {
	return SettingsControl{Key: key, Name: name, Min: -1, Max: 1, Step: 0.001, Default: 0}
}

func skewControl(key, name string) SettingsControl {
	return SettingsControl{Key: key, Name: name, Min: -1, Max: 1, Step: 0.001, Default: 0}
}

// DefaultSettingsSchema enumerates every override key with pass-through
// defaults: centers at mid-viewport, all radial coefficients zero,
// half-dimension focal lengths, zero principal points and skew.
func DefaultSettingsSchema() SettingsSchemaSpec {
	var controls []SettingsControl

	eyeTitle := [EyeCount]string{"Left", "Right"}
	channelTitle := [ChannelCount]string{"Red", "Green", "Blue"}

	for eye := 0; eye < EyeCount; eye++ {
		prefix := eyePrefix[eye]
		title := eyeTitle[eye]

		for ch := 0; ch < ChannelCount; ch++ {
			base := prefix + "_" + channelName[ch]
			label := title + " " + channelTitle[ch]
			controls = append(controls,
				centerControl(base+"_cod_x", label+" distortion center X"),
				centerControl(base+"_cod_y", label+" distortion center Y"),
				coefficientControl(base+"_k1", label+" radial k1"),
				coefficientControl(base+"_k2", label+" radial k2"),
				coefficientControl(base+"_k3", label+" radial k3"),
			)
		}

		controls = append(controls,
			focalControl(prefix+"_focal_length_x", title+" focal length X"),
			focalControl(prefix+"_focal_length_y", title+" focal length Y"),
			principalControl(prefix+"_principal_point_x", title+" principal point X"),
			principalControl(prefix+"_principal_point_y", title+" principal point Y"),
			skewControl(prefix+"_skew_factor", title+" skew factor"),
		)
	}

	return SettingsSchemaSpec{
		SchemaVersion: 1,
		Section:       SettingsSection,
		Controls:      controls,
		Meta: map[string]string{
			"resource_root": ResourceRoot,
		},
	}
}
