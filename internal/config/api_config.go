package config

// APIConfig holds settings shared by every endpoint of the remote API
type APIConfig struct {
	// APIKey is normally supplied through the API_KEY environment variable
	APIKey                 string            `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	AssignedEndpointScheme string            `json:"assigned_endpoint_scheme,omitempty" yaml:"assigned_endpoint_scheme,omitempty" validate:"omitempty,oneof=http https"`
	APIVersionPath         string            `json:"api_version_path,omitempty" yaml:"api_version_path,omitempty"`
	// ExtraFields replaces the default fields when present in the file; an
	// empty object sends none
	ExtraFields map[string]string `json:"extra_fields,omitempty" yaml:"extra_fields,omitempty"`
}

// NewDefaultAPIConfig creates default API configuration
func NewDefaultAPIConfig() APIConfig {
	return APIConfig{
		AssignedEndpointScheme: DefaultAssignedEndpointScheme,
		APIVersionPath:         DefaultAPIVersionPath,
	}
}

// defaultExtraFields is sent with every job unless extra_fields is configured
func defaultExtraFields() map[string]string {
	return map[string]string{
		"paperoffice_device_origin": "paperoffice_api_wrapper",
	}
}
