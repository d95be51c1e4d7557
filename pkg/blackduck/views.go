package blackduck

// Subset of the Black Duck REST views used for enrichment.
// The short-term and long-term upgrade-guidance views, and the cvss2 and cvss3
// views, are consolidated since only their common attributes are read.

type ResourceMetadata struct {
	Href string `json:"href"`
}

// ComponentSearchResult is one item of /api/components?q=...
type ComponentSearchResult struct {
	Component     string `json:"component,omitempty"`
	ComponentName string `json:"componentName,omitempty"`
	Version       string `json:"version"`
	VersionName   string `json:"versionName"`
}

type ComponentVersionView struct {
	Meta    ResourceMetadata            `json:"_meta"`
	License ComponentVersionLicenseView `json:"license"`
}

type ComponentVersionLicenseView struct {
	Licenses []ComponentVersionLicenseLicensesView `json:"licenses"`
}

type ComponentVersionLicenseLicensesView struct {
	Name    string `json:"name"`
	License string `json:"license"`
}

type VulnerabilityView struct {
	Meta     ResourceMetadata   `json:"_meta"`
	Name     string             `json:"name"`
	Severity string             `json:"severity"`
	UseCvss3 bool               `json:"useCvss3"`
	Cvss2    *VulnerabilityCvss `json:"cvss2,omitempty"`
	Cvss3    *VulnerabilityCvss `json:"cvss3,omitempty"`
}

type VulnerabilityCvss struct {
	BaseScore float64 `json:"baseScore"`
	Severity  string  `json:"severity"`
}

// BaseScore picks cvss3 or cvss2 as the server indicates. ok is false when the
// selected score is not present.
func (v VulnerabilityView) BaseScore() (score float64, ok bool) {
	c := v.Cvss2
	if v.UseCvss3 {
		c = v.Cvss3
	}
	if c == nil {
		return 0, false
	}
	return c.BaseScore, true
}

type UpgradeGuidanceView struct {
	Version   string               `json:"version"`
	ShortTerm *UpgradeGuidanceTerm `json:"shortTerm,omitempty"`
	LongTerm  *UpgradeGuidanceTerm `json:"longTerm,omitempty"`
}

type UpgradeGuidanceTerm struct {
	Version           string            `json:"version"`
	VersionName       string            `json:"versionName"`
	VulnerabilityRisk VulnerabilityRisk `json:"vulnerabilityRisk"`
}

type VulnerabilityRisk struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

func (r VulnerabilityRisk) Total() int {
	return r.Critical + r.High + r.Medium + r.Low
}
