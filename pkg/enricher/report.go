package enricher

// EnrichedComponentReport is one violating component merged with what the
// catalog knows about it. Href and the upgrade fields are empty when unknown.
type EnrichedComponentReport struct {
	ViolatedPolicies []string              `json:"violatedPolicies"`
	Name             string                `json:"name"`
	Href             string                `json:"href,omitempty"`
	Licenses         []LicenseReport       `json:"licenses"`
	Vulnerabilities  []VulnerabilityReport `json:"vulnerabilities"`
	ShortTermUpgrade *UpgradeReport        `json:"shortTermUpgrade,omitempty"`
	LongTermUpgrade  *UpgradeReport        `json:"longTermUpgrade,omitempty"`
}

type LicenseReport struct {
	Name           string `json:"name"`
	Href           string `json:"href,omitempty"`
	ViolatesPolicy bool   `json:"violatesPolicy"`
}

type VulnerabilityReport struct {
	Name           string   `json:"name"`
	Href           string   `json:"href,omitempty"`
	CVSSScore      *float64 `json:"cvssScore,omitempty"`
	Severity       string   `json:"severity,omitempty"`
	ViolatesPolicy bool     `json:"violatesPolicy"`
}

type UpgradeReport struct {
	Name               string `json:"name"`
	Href               string `json:"href"`
	VulnerabilityCount int    `json:"vulnerabilityCount"`
}
