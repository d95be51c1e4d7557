package types

// Subset of the Black Duck developer-scans view written by Detect in RAPID mode.
// One PolicyViolation per non-compliant dependency.

type PolicyViolation struct {
	ComponentName                  string            `json:"componentName"`
	VersionName                    string            `json:"versionName"`
	ComponentIdentifier            string            `json:"componentIdentifier"`
	ViolatingPolicies              []ViolatingPolicy `json:"violatingPolicies"`
	PolicyViolationLicenses        []NamedViolation  `json:"policyViolationLicenses"`
	PolicyViolationVulnerabilities []NamedViolation  `json:"policyViolationVulnerabilities"`
	Meta                           ResourceMetadata  `json:"_meta"`
}

// ViolatingPolicy consolidates the license, vulnerability and component
// violating-policy views, which share these attributes.
type ViolatingPolicy struct {
	PolicyName     string `json:"policyName"`
	PolicySeverity string `json:"policySeverity,omitempty"`
	PolicyStatus   string `json:"policyStatus,omitempty"`
	Description    string `json:"description,omitempty"`
}

type NamedViolation struct {
	Name string `json:"name"`
}

type ResourceMetadata struct {
	Href string `json:"href,omitempty"`
}

// DisplayName is "<component> <version>", the dependency label used in reports.
func (v PolicyViolation) DisplayName() string {
	if v.VersionName == "" {
		return v.ComponentName
	}
	return v.ComponentName + " " + v.VersionName
}

func (v PolicyViolation) PolicyNames() []string {
	names := make([]string, 0, len(v.ViolatingPolicies))
	for _, p := range v.ViolatingPolicies {
		names = append(names, p.PolicyName)
	}
	return names
}

func (v PolicyViolation) ViolatingLicenseNames() []string {
	return names(v.PolicyViolationLicenses)
}

func (v PolicyViolation) ViolatingVulnerabilityNames() []string {
	return names(v.PolicyViolationVulnerabilities)
}

func names(in []NamedViolation) []string {
	out := make([]string, 0, len(in))
	for _, n := range in {
		out = append(out, n.Name)
	}
	return out
}
