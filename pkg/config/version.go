package config

// Version constants for riyu configuration manifests.
const (
	// APIVersion is the Kubernetes-style API version for riyu configs
	APIVersion = "riyu.cyberwithvishal.dev/v1alpha1"

	// SchemaVersion is the version string used in schema paths
	SchemaVersion = "v1alpha1"

	// KindRiyuConfig is the only manifest kind currently understood.
	KindRiyuConfig = "RiyuConfig"
)
